package console

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func newTestConsole(width, height uint16) (*Vga, []uint16) {
	fb := make([]uint16, int(width)*int(height))
	var cons Vga
	cons.Init(width, height, uintptr(unsafe.Pointer(&fb[0])))
	return &cons, fb
}

// row returns the characters in row y of the framebuffer with trailing
// blanks removed.
func row(fb []uint16, width, y int) string {
	var sb strings.Builder
	for _, cell := range fb[y*width : (y+1)*width] {
		sb.WriteByte(byte(cell))
	}
	return strings.TrimRight(sb.String(), " ")
}

func TestVgaInit(t *testing.T) {
	cons, fb := newTestConsole(DefaultWidth, DefaultHeight)

	w, h := cons.Dimensions()
	require.Equal(t, uint16(80), w)
	require.Equal(t, uint16(25), h)

	clr := uint16(MakeAttr(LightGrey, Black))<<8 | uint16(' ')
	for i, cell := range fb {
		require.Equal(t, clr, cell, "cell %d", i)
	}
}

func TestMakeAttr(t *testing.T) {
	require.Equal(t, Attr(0x07), MakeAttr(LightGrey, Black))
	require.Equal(t, Attr(0x1f), MakeAttr(White, Blue))
}

func TestVgaPosition(t *testing.T) {
	specs := []struct {
		inX, inY   uint16
		expX, expY uint16
	}{
		{20, 20, 20, 20},
		{100, 20, 79, 20},
		{10, 200, 10, 24},
		{100, 100, 79, 24},
	}

	cons, _ := newTestConsole(80, 25)
	for specIndex, spec := range specs {
		cons.SetPosition(spec.inX, spec.inY)
		x, y := cons.Position()
		require.Equal(t, spec.expX, x, "spec %d", specIndex)
		require.Equal(t, spec.expY, y, "spec %d", specIndex)
	}
}

func TestVgaWrite(t *testing.T) {
	cons, fb := newTestConsole(10, 4)

	n, err := cons.Write([]byte("12\n3\n45\r6"))
	require.NoError(t, err)
	require.Equal(t, 9, n)

	require.Equal(t, "12", row(fb, 10, 0))
	require.Equal(t, "3", row(fb, 10, 1))
	require.Equal(t, "65", row(fb, 10, 2))

	x, y := cons.Position()
	require.Equal(t, uint16(1), x)
	require.Equal(t, uint16(2), y)
}

func TestVgaWriteAttr(t *testing.T) {
	cons, fb := newTestConsole(10, 4)

	cons.SetAttr(MakeAttr(LightRed, Black))
	cons.Write([]byte("!"))
	require.Equal(t, uint16(0x0c21), fb[0])
}

func TestVgaWrapAndScroll(t *testing.T) {
	cons, fb := newTestConsole(4, 3)

	cons.Write([]byte("abcdefgh"))
	require.Equal(t, "abcd", row(fb, 4, 0))
	require.Equal(t, "efgh", row(fb, 4, 1))

	x, y := cons.Position()
	require.Equal(t, uint16(0), x)
	require.Equal(t, uint16(2), y)

	// Line feed on the last row scrolls everything up
	cons.Write([]byte("ij\nkl"))
	require.Equal(t, "efgh", row(fb, 4, 0))
	require.Equal(t, "ij", row(fb, 4, 1))
	require.Equal(t, "kl", row(fb, 4, 2))

	cons.Clear()
	for y := 0; y < 3; y++ {
		require.Empty(t, row(fb, 4, y))
	}
}

func TestVgaWriteWithoutFramebuffer(t *testing.T) {
	var cons Vga
	n, err := cons.Write([]byte("lost"))
	require.NoError(t, err)
	require.Equal(t, 4, n)
}
