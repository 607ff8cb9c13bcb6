// Package console implements an io.Writer on top of the VGA text-mode
// framebuffer.
package console

// Attr defines a color attribute.
type Attr uint8

// The set of colors that can be combined into a cell attribute with MakeAttr.
const (
	Black Attr = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGrey
	Grey
	LightBlue
	LightGreen
	LightCyan
	LightRed
	LightMagenta
	LightBrown
	White
)

// MakeAttr combines a foreground and a background color into a cell
// attribute.
func MakeAttr(fg, bg Attr) Attr {
	return (bg << 4) | (fg & 0xF)
}
