package multiboot

import "unsafe"

// BootLoaderName provides the name of the bootloader that booted the kernel.
type BootLoaderName struct {
	payload []byte
}

// Name returns the bootloader name. The returned string borrows the boot
// information memory and stops at the first NULL byte. The bootloader is
// trusted to provide valid UTF-8 so the contents are not re-validated.
func (n BootLoaderName) Name() string {
	return cString(n.payload)
}

// BootCommandLine provides the command line that was passed to the kernel.
//
// The command line is treated as a whitespace-separated list of key=value
// pairs. A pair without an equals sign (e.g. "nofoo") is reported with its
// value set to its key.
type BootCommandLine struct {
	payload []byte
}

// String returns the raw command line.
func (c BootCommandLine) String() string {
	return cString(c.payload)
}

// Visit invokes visitor for each key/value pair in the command line, in
// order. The visitor must return true to continue or false to abort the scan.
// Visit does not allocate; the strings passed to visitor borrow the boot
// information memory.
func (c BootCommandLine) Visit(visitor func(key, value string) bool) {
	var (
		cmdLine = c.String()
		start   int
	)

	for start < len(cmdLine) {
		for start < len(cmdLine) && isSpace(cmdLine[start]) {
			start++
		}

		end := start
		for end < len(cmdLine) && !isSpace(cmdLine[end]) {
			end++
		}

		if start == end {
			return
		}

		key, value := cmdLine[start:end], cmdLine[start:end]
		for i := start; i < end; i++ {
			if cmdLine[i] == '=' {
				key, value = cmdLine[start:i], cmdLine[i+1:end]
				break
			}
		}

		if !visitor(key, value) {
			return
		}

		start = end
	}
}

// Get returns the value for the first occurrence of key in the command line.
func (c BootCommandLine) Get(key string) (string, bool) {
	var (
		value string
		found bool
	)

	c.Visit(func(k, v string) bool {
		if k == key {
			value, found = v, true
			return false
		}
		return true
	})

	return value, found
}

// BasicMemoryInfo reports the amount of lower and upper memory in kilobytes.
// Lower memory starts at address 0 and upper memory starts at address 1MiB.
type BasicMemoryInfo struct {
	MemLower uint32
	MemUpper uint32
}

// BootDevice reports the BIOS disk device that the kernel image was loaded
// from.
type BootDevice struct {
	// BIOS drive number, e.g. 0x00 for the first floppy disk or 0x80 for
	// the first hard disk.
	BiosDev uint32

	// Top-level partition number and sub-partition number. A value of
	// 0xFFFFFFFF means that the partition is not used.
	Partition    uint32
	SubPartition uint32
}

// FramebufferType defines the type of the initialized framebuffer.
type FramebufferType uint8

const (
	// FramebufferTypeIndexed specifies a 256-color palette.
	FramebufferTypeIndexed FramebufferType = iota

	// FramebufferTypeRGB specifies direct RGB mode.
	FramebufferTypeRGB

	// FramebufferTypeEGA specifies EGA text mode.
	FramebufferTypeEGA
)

// FramebufferInfo provides information about the framebuffer initialized by
// the bootloader.
type FramebufferInfo struct {
	// The framebuffer physical address.
	PhysAddr uint64

	// Row pitch in bytes.
	Pitch uint32

	// Width and height in pixels (or characters if Type is
	// FramebufferTypeEGA).
	Width, Height uint32

	// Bits per pixel (non EGA modes only).
	Bpp uint8

	// Framebuffer type.
	Type FramebufferType
}

// EndTag is the tag that terminates the tag stream.
type EndTag struct {
	tag Tag
}

// Size returns the size of the end tag which is always 8 for boot
// information accepted by Load.
func (e EndTag) Size() uint32 {
	return e.tag.Size
}

// cString returns a borrowed string over b up to (but not including) the
// first NULL byte.
func cString(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}

	if n == 0 {
		return ""
	}

	return unsafe.String(&b[0], n)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
