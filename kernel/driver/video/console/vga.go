package console

import "unsafe"

const (
	// DefaultFbAddr is the physical address of the VGA text framebuffer.
	DefaultFbAddr = uintptr(0xB8000)

	// DefaultWidth and DefaultHeight describe the standard 80x25 text mode.
	DefaultWidth  = 80
	DefaultHeight = 25

	clearChar = byte(' ')
)

// Vga is a text console that renders into a VGA-compatible framebuffer. Each
// framebuffer cell is a uint16 with the character in the low byte and its
// color attribute in the high byte.
//
// Vga keeps track of a cursor and supports line feeds, carriage returns,
// line wrapping and scrolling, so it can be used directly as the kfmt output
// sink.
type Vga struct {
	width  uint16
	height uint16

	curX, curY uint16
	attr       Attr

	fb []uint16
}

// Init sets up the console to use the framebuffer at fbPhysAddr. The console
// is cleared and the cursor is moved to the top-left corner.
func (cons *Vga) Init(width, height uint16, fbPhysAddr uintptr) {
	cons.width = width
	cons.height = height
	cons.attr = MakeAttr(LightGrey, Black)
	cons.fb = unsafe.Slice((*uint16)(unsafe.Pointer(fbPhysAddr)), int(width)*int(height))

	cons.Clear()
}

// Dimensions returns the console width and height in characters.
func (cons *Vga) Dimensions() (uint16, uint16) {
	return cons.width, cons.height
}

// Position returns the current cursor position (x, y).
func (cons *Vga) Position() (uint16, uint16) {
	return cons.curX, cons.curY
}

// SetPosition moves the cursor to (x, y). Coordinates outside the console
// are clipped.
func (cons *Vga) SetPosition(x, y uint16) {
	if x >= cons.width {
		x = cons.width - 1
	}
	if y >= cons.height {
		y = cons.height - 1
	}

	cons.curX, cons.curY = x, y
}

// SetAttr sets the attribute used for subsequent writes.
func (cons *Vga) SetAttr(attr Attr) {
	cons.attr = attr
}

// Clear fills the console with blanks and resets the cursor.
func (cons *Vga) Clear() {
	clr := cons.cell(clearChar)
	for i := range cons.fb {
		cons.fb[i] = clr
	}

	cons.curX, cons.curY = 0, 0
}

// Write implements io.Writer. Bytes are written as-is at the cursor
// position; '\n' moves to the start of the next line and '\r' to the start
// of the current one. Writing past the last row scrolls the console up.
func (cons *Vga) Write(data []byte) (int, error) {
	if len(cons.fb) == 0 {
		return len(data), nil
	}

	for _, b := range data {
		switch b {
		case '\r':
			cons.curX = 0
		case '\n':
			cons.curX = 0
			cons.lf()
		default:
			cons.fb[int(cons.curY)*int(cons.width)+int(cons.curX)] = cons.cell(b)
			cons.curX++
			if cons.curX == cons.width {
				cons.curX = 0
				cons.lf()
			}
		}
	}

	return len(data), nil
}

// lf moves the cursor down one row, scrolling the console if the cursor is
// already on the last row.
func (cons *Vga) lf() {
	if cons.curY+1 < cons.height {
		cons.curY++
		return
	}

	cons.scrollUp()
}

func (cons *Vga) scrollUp() {
	width := int(cons.width)
	copy(cons.fb, cons.fb[width:])

	clr := cons.cell(clearChar)
	for i := len(cons.fb) - width; i < len(cons.fb); i++ {
		cons.fb[i] = clr
	}
}

func (cons *Vga) cell(ch byte) uint16 {
	return uint16(cons.attr)<<8 | uint16(ch)
}
