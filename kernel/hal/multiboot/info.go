// Package multiboot decodes the Multiboot2 boot information structure that a
// compliant bootloader hands to the kernel.
//
// All types exported by this package are read-only views into the boot
// information memory; nothing is copied and nothing is allocated, so the
// package can be used before the Go allocator is available.
package multiboot

import (
	"unsafe"

	"gopherboot/kernel"
	"gopherboot/kernel/mm"
)

const (
	// infoHeaderSize is the size of the fixed header that precedes the
	// tag stream.
	infoHeaderSize = 8

	// tagHeaderSize is the size of the header that precedes each tag.
	tagHeaderSize = 8

	// tagAlignment is the alignment of the info structure and of every
	// tag inside it.
	tagAlignment = 8
)

var (
	// ErrAddress is returned when the boot information address is null
	// or not 8-byte aligned.
	ErrAddress = &kernel.Error{Module: "multiboot", Message: "boot information address is null or not 8-byte aligned"}

	// ErrSize is returned when the boot information total size is not a
	// multiple of 8.
	ErrSize = &kernel.Error{Module: "multiboot", Message: "boot information size is not a multiple of 8"}

	// ErrEndTag is returned when the last 8 bytes of the boot information
	// do not contain an end tag of size 8.
	ErrEndTag = &kernel.Error{Module: "multiboot", Message: "boot information is not terminated by a valid end tag"}

	// ErrTruncated is returned by LoadBytes when the declared total size
	// exceeds the length of the supplied buffer.
	ErrTruncated = &kernel.Error{Module: "multiboot", Message: "boot information size exceeds the supplied buffer"}
)

// infoHeader describes the multiboot info section header.
type infoHeader struct {
	// Total size of the multiboot info section, including this header.
	totalSize uint32

	// Always set to zero; reserved for future use.
	reserved uint32
}

// Info is a validated view of the boot information structure. The zero
// value describes an empty structure without any tags.
type Info struct {
	data []byte
}

// Load validates the boot information structure located at the supplied
// physical address and returns a view over it.
//
// Validation happens in three steps: the address must be non-null and 8-byte
// aligned, the total size must be a multiple of 8 and the last 8 bytes of the
// structure must hold an end tag of size 8. The end tag is located using the
// total size rather than by walking the tag stream so that a corrupted tag
// cannot hide a missing terminator. No tag is read unless all checks pass.
func Load(addr uintptr) (Info, *kernel.Error) {
	if addr == 0 || addr&(tagAlignment-1) != 0 {
		return Info{}, ErrAddress
	}

	totalSize := (*infoHeader)(unsafe.Pointer(addr)).totalSize
	return validate(unsafe.Slice((*byte)(unsafe.Pointer(addr)), totalSize))
}

// LoadBytes behaves like Load for a boot information structure that has been
// copied or mapped into b. It additionally ensures that the total size
// declared by the structure does not exceed len(b). The returned Info
// references b directly.
func LoadBytes(b []byte) (Info, *kernel.Error) {
	if len(b) == 0 || uintptr(unsafe.Pointer(&b[0]))&(tagAlignment-1) != 0 {
		return Info{}, ErrAddress
	}

	if len(b) < infoHeaderSize {
		return Info{}, ErrTruncated
	}

	totalSize := (*infoHeader)(unsafe.Pointer(&b[0])).totalSize
	switch {
	case totalSize&(tagAlignment-1) != 0:
		return Info{}, ErrSize
	case uint64(totalSize) > uint64(len(b)):
		return Info{}, ErrTruncated
	}

	return validate(b[:totalSize:totalSize])
}

// validate checks the size and the terminator of the boot information held
// in data, whose length must equal the declared total size.
func validate(data []byte) (Info, *kernel.Error) {
	totalSize := uint32(len(data))
	if totalSize&(tagAlignment-1) != 0 {
		return Info{}, ErrSize
	}

	// The structure must at least fit its own header and the end tag.
	if totalSize < infoHeaderSize+tagHeaderSize {
		return Info{}, ErrEndTag
	}

	if !isEndTag(data[totalSize-tagHeaderSize:]) {
		return Info{}, ErrEndTag
	}

	return Info{data: data}, nil
}

// Address returns the address of the first byte of the boot information.
func (info Info) Address() uintptr {
	if len(info.data) == 0 {
		return 0
	}

	return uintptr(unsafe.Pointer(&info.data[0]))
}

// TotalSize returns the size of the boot information in bytes.
func (info Info) TotalSize() uint32 {
	return uint32(len(info.data))
}

// FrameRange returns the physical frames occupied by the boot information.
// The frame allocator must never hand these frames out.
func (info Info) FrameRange() mm.FrameRange {
	addr := info.Address()
	return mm.FrameRangeFromAddresses(addr, addr+uintptr(len(info.data)))
}

// Tags returns an iterator over all tags that precede the end tag.
func (info Info) Tags() TagIterator {
	if len(info.data) < infoHeaderSize+tagHeaderSize {
		return TagIterator{done: true}
	}

	return TagIterator{
		data: info.data,
		next: infoHeaderSize,
		end:  uint32(len(info.data)) - tagHeaderSize,
	}
}

// FindTag scans the tag stream and returns the first tag with the requested
// type. The second return value is false if no such tag exists.
func (info Info) FindTag(tagType TagType) (Tag, bool) {
	for it := info.Tags(); ; {
		tag, ok := it.Next()
		if !ok {
			return Tag{}, false
		}

		if tag.Type == tagType {
			return tag, true
		}
	}
}

// EndTag returns the end tag that terminates the tag stream.
func (info Info) EndTag() (EndTag, bool) {
	if len(info.data) < infoHeaderSize+tagHeaderSize {
		return EndTag{}, false
	}

	off := uint32(len(info.data)) - tagHeaderSize
	return EndTag{tag: newTag(info.data, off, off+tagHeaderSize)}, true
}

// BootLoaderName returns the bootloader name tag, if present.
func (info Info) BootLoaderName() (BootLoaderName, bool) {
	tag, ok := info.FindTag(TagBootLoaderName)
	if !ok {
		return BootLoaderName{}, false
	}

	return BootLoaderName{payload: tag.Payload()}, true
}

// BootCommandLine returns the kernel command line tag, if present.
func (info Info) BootCommandLine() (BootCommandLine, bool) {
	tag, ok := info.FindTag(TagBootCommandLine)
	if !ok {
		return BootCommandLine{}, false
	}

	return BootCommandLine{payload: tag.Payload()}, true
}

// BasicMemoryInfo returns the basic memory information tag, if present.
func (info Info) BasicMemoryInfo() (*BasicMemoryInfo, bool) {
	tag, ok := info.FindTag(TagBasicMemoryInfo)
	if !ok {
		return nil, false
	}

	ptr := tag.overlay(unsafe.Sizeof(BasicMemoryInfo{}))
	if ptr == nil {
		return nil, false
	}

	return (*BasicMemoryInfo)(ptr), true
}

// BootDevice returns the BIOS boot device tag, if present.
func (info Info) BootDevice() (*BootDevice, bool) {
	tag, ok := info.FindTag(TagBiosBootDevice)
	if !ok {
		return nil, false
	}

	ptr := tag.overlay(unsafe.Sizeof(BootDevice{}))
	if ptr == nil {
		return nil, false
	}

	return (*BootDevice)(ptr), true
}

// FramebufferInfo returns the framebuffer info tag, if present.
func (info Info) FramebufferInfo() (*FramebufferInfo, bool) {
	tag, ok := info.FindTag(TagFramebufferInfo)
	if !ok {
		return nil, false
	}

	ptr := tag.overlay(unsafe.Sizeof(FramebufferInfo{}))
	if ptr == nil {
		return nil, false
	}

	return (*FramebufferInfo)(ptr), true
}

// MemoryMap returns the memory map tag, if present.
func (info Info) MemoryMap() (MemoryMap, bool) {
	tag, ok := info.FindTag(TagMemoryMap)
	if !ok {
		return MemoryMap{}, false
	}

	ptr := tag.overlay(unsafe.Sizeof(mmapHeader{}))
	if ptr == nil {
		return MemoryMap{}, false
	}

	return MemoryMap{
		hdr:     (*mmapHeader)(ptr),
		entries: tag.Payload()[unsafe.Sizeof(mmapHeader{}):],
	}, true
}

// ElfSymbols returns the ELF section header tag, if present.
func (info Info) ElfSymbols() (ElfSymbols, bool) {
	tag, ok := info.FindTag(TagElfSymbols)
	if !ok {
		return ElfSymbols{}, false
	}

	ptr := tag.overlay(unsafe.Sizeof(elfSymbolsHeader{}))
	if ptr == nil {
		return ElfSymbols{}, false
	}

	return ElfSymbols{
		hdr:      (*elfSymbolsHeader)(ptr),
		sections: tag.Payload()[unsafe.Sizeof(elfSymbolsHeader{}):],
	}, true
}
