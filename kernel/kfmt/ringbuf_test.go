package kfmt

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingBuffer(t *testing.T) {
	expStr := "the big brown fox jumped over the lazy dog"

	specs := []struct {
		descr          string
		rIndex, wIndex int
	}{
		{"empty buffer", 0, 0},
		{"wrap around", ringBufferSize - 2, ringBufferSize - 2},
	}

	for _, spec := range specs {
		t.Run(spec.descr, func(t *testing.T) {
			var rb ringBuffer
			rb.rIndex, rb.wIndex = spec.rIndex, spec.wIndex

			n, err := rb.Write([]byte(expStr))
			require.NoError(t, err)
			require.Equal(t, len(expStr), n)

			// read one byte at a time to exercise both read paths
			var (
				buf bytes.Buffer
				b   = make([]byte, 1)
			)
			for {
				n, err := rb.Read(b)
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				buf.Write(b[:n])
			}
			require.Equal(t, expStr, buf.String())
		})
	}

	t.Run("write moves read pointer", func(t *testing.T) {
		var rb ringBuffer
		rb.wIndex = ringBufferSize - 1

		_, err := rb.Write([]byte{'!'})
		require.NoError(t, err)
		require.Equal(t, 1, rb.rIndex)
	})

	t.Run("overflow keeps the most recent bytes", func(t *testing.T) {
		var rb ringBuffer
		input := bytes.Repeat([]byte("0123456789abcdef"), ringBufferSize/16+1)
		rb.Write(input)

		var buf bytes.Buffer
		n, err := rb.WriteTo(&buf)
		require.NoError(t, err)
		require.Equal(t, int64(ringBufferSize-1), n)
		require.Equal(t, input[len(input)-(ringBufferSize-1):], buf.Bytes())
	})

	t.Run("WriteTo across the wrap point", func(t *testing.T) {
		var rb ringBuffer
		rb.rIndex, rb.wIndex = ringBufferSize-4, ringBufferSize-4
		rb.Write([]byte(expStr))

		var buf bytes.Buffer
		_, err := rb.WriteTo(&buf)
		require.NoError(t, err)
		require.Equal(t, expStr, buf.String())

		_, err = rb.Read(make([]byte, 1))
		require.Equal(t, io.EOF, err)
	})
}
