package multiboot

import "unsafe"

// TagType identifies the contents of a tag.
type TagType uint32

// The tag types defined by the Multiboot2 specification.
const (
	TagEnd TagType = iota
	TagBootCommandLine
	TagBootLoaderName
	TagModules
	TagBasicMemoryInfo
	TagBiosBootDevice
	TagMemoryMap
	TagVbeInfo
	TagFramebufferInfo
	TagElfSymbols
	TagApmTable
	TagEfi32SystemTablePtr
	TagEfi64SystemTablePtr
	TagSmBiosTables
	TagAcpiOldRsdp
	TagAcpiNewRsdp
	TagNetworkingInfo
	TagEfiMemoryMap
	TagEfiBootServicesNotTerminated
	TagEfi32ImageHandlePtr
	TagEfi64ImageHandlePtr
	TagImageLoadBasePhysAddr

	// Any value >= tagUnknown is not defined by the specification.
	tagUnknown
)

var tagTypeNames = [tagUnknown]string{
	"end",
	"boot command line",
	"bootloader name",
	"modules",
	"basic memory info",
	"BIOS boot device",
	"memory map",
	"VBE info",
	"framebuffer info",
	"ELF symbols",
	"APM table",
	"EFI 32-bit system table",
	"EFI 64-bit system table",
	"SMBIOS tables",
	"ACPI old RSDP",
	"ACPI new RSDP",
	"networking info",
	"EFI memory map",
	"EFI boot services not terminated",
	"EFI 32-bit image handle",
	"EFI 64-bit image handle",
	"image load base address",
}

// String implements fmt.Stringer for TagType.
func (t TagType) String() string {
	if t >= tagUnknown {
		return "unknown"
	}

	return tagTypeNames[t]
}

// tagHeader describes the header that precedes each tag.
type tagHeader struct {
	// The type of the tag.
	tagType TagType

	// The size of the tag including the header but *not* including any
	// padding. Each tag starts at an 8-byte aligned offset.
	size uint32
}

// isEndTag returns true if b starts with an end tag of size 8.
func isEndTag(b []byte) bool {
	if len(b) < tagHeaderSize {
		return false
	}

	hdr := (*tagHeader)(unsafe.Pointer(&b[0]))
	return hdr.tagType == TagEnd && hdr.size == tagHeaderSize
}

// Tag is an opaque tag from the boot information tag stream. Typed views over
// a Tag are obtained via the accessors provided by Info.
type Tag struct {
	// Type is the tag type code.
	Type TagType

	// Size is the tag size in bytes, including the tag header.
	Size uint32

	// Offset is the offset of the tag from the start of the boot
	// information and uniquely identifies the tag.
	Offset uint32

	// The tag bytes (header included), clipped to the validated part of
	// the boot information.
	data []byte
}

// newTag returns the tag located at offset off, clipping its contents so
// they never extend past limit.
func newTag(data []byte, off, limit uint32) Tag {
	hdr := (*tagHeader)(unsafe.Pointer(&data[off]))

	end := uint64(off) + uint64(hdr.size)
	if end > uint64(limit) {
		end = uint64(limit)
	}

	return Tag{
		Type:   hdr.tagType,
		Size:   hdr.size,
		Offset: off,
		data:   data[off:end],
	}
}

// Payload returns the tag contents that follow the tag header.
func (t Tag) Payload() []byte {
	if len(t.data) < tagHeaderSize {
		return nil
	}

	return t.data[tagHeaderSize:]
}

// overlay returns a pointer to the tag payload if the payload is at least
// size bytes long or nil otherwise.
func (t Tag) overlay(size uintptr) unsafe.Pointer {
	payload := t.Payload()
	if uintptr(len(payload)) < size || len(payload) == 0 {
		return nil
	}

	return unsafe.Pointer(&payload[0])
}

// TagIterator walks the tag stream. TagIterator is a value type: copying an
// iterator yields an independent cursor that resumes from the same position,
// so the same stream can be scanned any number of times.
type TagIterator struct {
	data []byte

	// next is the offset of the next tag header to read and end is the
	// offset of the end tag located by Load.
	next, end uint32
	done      bool
}

// Next returns the next tag in the stream. It returns false once the end tag
// is reached; the end tag itself is never returned.
func (it *TagIterator) Next() (Tag, bool) {
	if it.done || it.next > it.end {
		it.done = true
		return Tag{}, false
	}

	hdr := (*tagHeader)(unsafe.Pointer(&it.data[it.next]))
	if (hdr.tagType == TagEnd && hdr.size == tagHeaderSize) || hdr.size < tagHeaderSize {
		it.done = true
		return Tag{}, false
	}

	tag := newTag(it.data, it.next, it.end)

	// Tags are aligned at 8-byte aligned offsets
	next := uint64(it.next) + (uint64(hdr.size)+tagAlignment-1)&^(tagAlignment-1)
	if next > uint64(it.end) {
		it.done = true
	} else {
		it.next = uint32(next)
	}

	return tag, true
}
