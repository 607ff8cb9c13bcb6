package kfmt

import "io"

// PrefixWriter is an io.Writer that injects a prefix at the beginning of each
// line written to the wrapped Sink.
type PrefixWriter struct {
	// Sink receives the prefixed output.
	Sink io.Writer

	// Prefix is written at the start of every line.
	Prefix []byte

	// midLine is true if the last write did not end with a line feed.
	midLine bool
}

// Write writes p to the sink, injecting the prefix after every line feed
// that is followed by more data. The returned byte count excludes any
// injected prefixes.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written, lineStart int

	for i := 0; i < len(p); i++ {
		if p[i] != '\n' && i != len(p)-1 {
			continue
		}

		if !w.midLine {
			if _, err := w.Sink.Write(w.Prefix); err != nil {
				return written, err
			}
		}

		n, err := w.Sink.Write(p[lineStart : i+1])
		written += n
		if err != nil {
			return written, err
		}

		w.midLine = p[i] != '\n'
		lineStart = i + 1
	}

	return written, nil
}
