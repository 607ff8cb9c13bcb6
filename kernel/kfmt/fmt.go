// Package kfmt provides formatted output for code that runs before the Go
// allocator is available.
package kfmt

import (
	"io"
	"unsafe"
)

// numBufSize is the size of the scratch buffer used for formatting numbers.
// It fits a 64-bit value in base 8 plus a sign.
const numBufSize = 32

var (
	errMissingArg   = []byte("%!(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	numBuf  [numBufSize]byte
	padByte [1]byte

	// earlyBuffer captures output written before an output sink is
	// attached.
	earlyBuffer ringBuffer

	// outputSink receives the output of Printf. When nil, output is
	// captured by earlyBuffer.
	outputSink io.Writer
)

// SetOutputSink directs the output of Printf to w. Any output that was
// captured before a sink was attached is flushed to w.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		earlyBuffer.WriteTo(w)
	}
}

// GetOutputSink returns the writer that currently receives Printf output.
func GetOutputSink() io.Writer {
	return outputSink
}

// Printf formats according to a format specifier and writes to the active
// output sink. Printf does not allocate memory.
//
// The following subset of the fmt verbs is supported:
//
//	%s  string or []byte
//	%d  integer, base 10 (padded with spaces)
//	%x  integer, base 16, lower-case (padded with zeroes)
//	%o  integer, base 8 (padded with zeroes)
//	%t  bool
//	%%  a literal percent sign
//
// An optional decimal width may precede the verb. Arguments implementing
// fmt.Stringer are not detected; callers pass the result of String() instead.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves like Printf but writes to w. If w is nil, the output is
// captured by the early output buffer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex   int
		blockStart int
		fmtLen     = len(format)
	)

	for i := 0; i < fmtLen; i++ {
		if format[i] != '%' {
			continue
		}

		writeString(w, format[blockStart:i])

		width := 0
		for i++; i < fmtLen && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}

		if i == fmtLen {
			doWrite(w, errNoVerb)
			blockStart = fmtLen
			break
		}

		switch verb := format[i]; verb {
		case '%':
			writeString(w, "%")
		case 's', 'd', 'x', 'o', 't':
			if argIndex >= len(args) {
				doWrite(w, errMissingArg)
				break
			}

			switch verb {
			case 's':
				fmtString(w, args[argIndex], width)
			case 'd':
				fmtInt(w, args[argIndex], 10, width)
			case 'x':
				fmtInt(w, args[argIndex], 16, width)
			case 'o':
				fmtInt(w, args[argIndex], 8, width)
			case 't':
				fmtBool(w, args[argIndex])
			}
			argIndex++
		default:
			doWrite(w, errNoVerb)
		}

		blockStart = i + 1
	}

	writeString(w, format[blockStart:])

	for ; argIndex < len(args); argIndex++ {
		doWrite(w, errExtraArg)
	}
}

func fmtBool(w io.Writer, v interface{}) {
	b, ok := v.(bool)
	switch {
	case !ok:
		doWrite(w, errWrongArgType)
	case b:
		doWrite(w, trueValue)
	default:
		doWrite(w, falseValue)
	}
}

// fmtString writes a string or []byte value left-padded with spaces to width.
func fmtString(w io.Writer, v interface{}, width int) {
	switch s := v.(type) {
	case string:
		writePadding(w, ' ', width-len(s))
		writeString(w, s)
	case []byte:
		writePadding(w, ' ', width-len(s))
		doWrite(w, s)
	default:
		doWrite(w, errWrongArgType)
	}
}

// fmtInt writes an integer value in the requested base. Base 10 values are
// left-padded with spaces; base 8 and 16 values with zeroes.
func fmtInt(w io.Writer, v interface{}, base uint64, width int) {
	var (
		uval     uint64
		negative bool
	)

	switch n := v.(type) {
	case uint8:
		uval = uint64(n)
	case uint16:
		uval = uint64(n)
	case uint32:
		uval = uint64(n)
	case uint64:
		uval = n
	case uint:
		uval = uint64(n)
	case uintptr:
		uval = uint64(n)
	case int8:
		uval, negative = abs(int64(n))
	case int16:
		uval, negative = abs(int64(n))
	case int32:
		uval, negative = abs(int64(n))
	case int64:
		uval, negative = abs(n)
	case int:
		uval, negative = abs(int64(n))
	default:
		doWrite(w, errWrongArgType)
		return
	}

	// Digits are generated right to left.
	pos := numBufSize
	for {
		pos--
		digit := uval % base
		if digit < 10 {
			numBuf[pos] = byte(digit) + '0'
		} else {
			numBuf[pos] = byte(digit-10) + 'a'
		}

		uval /= base
		if uval == 0 {
			break
		}
	}

	if width > numBufSize-1 {
		width = numBufSize - 1
	}

	switch {
	case base == 10:
		if negative {
			pos--
			numBuf[pos] = '-'
		}
		for numBufSize-pos < width {
			pos--
			numBuf[pos] = ' '
		}
	default:
		signLen := 0
		if negative {
			signLen = 1
		}
		for numBufSize-pos+signLen < width {
			pos--
			numBuf[pos] = '0'
		}
		if negative {
			pos--
			numBuf[pos] = '-'
		}
	}

	doWrite(w, numBuf[pos:])
}

func abs(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}

	return uint64(v), false
}

func writePadding(w io.Writer, ch byte, count int) {
	padByte[0] = ch
	for ; count > 0; count-- {
		doWrite(w, padByte[:])
	}
}

// writeString writes s without converting it to a byte slice, which would
// allocate.
func writeString(w io.Writer, s string) {
	if len(s) == 0 {
		return
	}

	doWrite(w, unsafe.Slice(unsafe.StringData(s), len(s)))
}

// doWrite hides p from escape analysis before handing it to the (unknown at
// compile time) io.Writer. Otherwise the compiler assumes that p escapes and
// every call to Printf allocates.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w == nil {
		earlyBuffer.Write(p)
		return
	}

	w.Write(p)
}

// noEscape hides a pointer from escape analysis. Copied from runtime/stubs.go.
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
