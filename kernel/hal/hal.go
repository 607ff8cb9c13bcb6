// Package hal sets up the output devices used by the kernel during boot.
package hal

import (
	"io"

	"gopherboot/kernel/driver/serial"
	"gopherboot/kernel/driver/video/console"
	"gopherboot/kernel/hal/multiboot"
)

var (
	vgaConsole console.Vga
	serialPort serial.Port

	// mux fans terminal output out to the console and, optionally, to the
	// serial port.
	mux teeWriter
)

// InitTerminal sets up a VGA text console using the framebuffer reported by
// the bootloader, or the standard 80x25 text mode framebuffer if the boot
// information does not describe an EGA text framebuffer. If mirrorSerial is
// true, all output is also sent to COM1.
//
// The returned writer is meant to be used as the kfmt output sink.
func InitTerminal(info multiboot.Info, mirrorSerial bool) io.Writer {
	width, height, fbAddr := consoleGeometry(info)
	vgaConsole.Init(width, height, fbAddr)

	mux.count = 0
	mux.attach(&vgaConsole)

	if mirrorSerial {
		serialPort.Init(serial.COM1)
		mux.attach(&serialPort)
	}

	return &mux
}

// consoleGeometry returns the console dimensions and framebuffer address
// to use for the supplied boot information.
func consoleGeometry(info multiboot.Info) (uint16, uint16, uintptr) {
	fb, ok := info.FramebufferInfo()
	if !ok || fb.Type != multiboot.FramebufferTypeEGA || fb.Width == 0 || fb.Height == 0 ||
		fb.Width > 0xffff || fb.Height > 0xffff {
		return console.DefaultWidth, console.DefaultHeight, console.DefaultFbAddr
	}

	return uint16(fb.Width), uint16(fb.Height), uintptr(fb.PhysAddr)
}

// teeWriter duplicates writes to a fixed set of writers. Unlike
// io.MultiWriter it does not need to allocate.
type teeWriter struct {
	writers [2]io.Writer
	count   int
}

func (t *teeWriter) attach(w io.Writer) {
	if t.count == len(t.writers) {
		return
	}

	t.writers[t.count] = w
	t.count++
}

// Write implements io.Writer. Write errors of individual writers are
// ignored so a broken device can not silence the others.
func (t *teeWriter) Write(p []byte) (int, error) {
	for i := 0; i < t.count; i++ {
		t.writers[i].Write(p)
	}

	return len(p), nil
}
