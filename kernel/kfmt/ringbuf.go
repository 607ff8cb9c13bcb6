package kfmt

import "io"

// ringBufferSize is the capacity of the buffer that captures early Printf
// output; enough for a full 80x25 text console. Must be a power of 2.
const ringBufferSize = 2048

// ringBuffer is a fixed-size FIFO that overwrites its oldest contents when
// full.
type ringBuffer struct {
	buffer         [ringBufferSize]byte
	rIndex, wIndex int
}

// Write appends p to the buffer, discarding the oldest bytes if needed.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[rb.wIndex] = b
		rb.wIndex = (rb.wIndex + 1) & (ringBufferSize - 1)
		if rb.wIndex == rb.rIndex {
			rb.rIndex = (rb.rIndex + 1) & (ringBufferSize - 1)
		}
	}

	return len(p), nil
}

// Read reads up to len(p) buffered bytes into p. It returns io.EOF when the
// buffer is empty.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	var avail []byte
	switch {
	case rb.rIndex < rb.wIndex:
		avail = rb.buffer[rb.rIndex:rb.wIndex]
	case rb.rIndex > rb.wIndex:
		avail = rb.buffer[rb.rIndex:]
	default:
		return 0, io.EOF
	}

	n := copy(p, avail)
	rb.rIndex = (rb.rIndex + n) & (ringBufferSize - 1)
	return n, nil
}

// WriteTo drains the buffer into w. Implementing io.WriterTo lets the buffer
// be flushed without the intermediate buffer that io.Copy would allocate.
func (rb *ringBuffer) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for rb.rIndex != rb.wIndex {
		end := rb.wIndex
		if rb.rIndex > rb.wIndex {
			end = ringBufferSize
		}

		n, err := w.Write(rb.buffer[rb.rIndex:end])
		total += int64(n)
		rb.rIndex = (rb.rIndex + n) & (ringBufferSize - 1)
		if err != nil {
			return total, err
		}
	}

	return total, nil
}
