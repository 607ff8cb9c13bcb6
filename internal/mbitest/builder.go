// Package mbitest builds synthetic Multiboot2 boot information structures for
// tests.
package mbitest

import (
	"encoding/binary"
	"unsafe"
)

// Tag type codes used by the builder helpers.
const (
	TagEnd             = 0
	TagBootCommandLine = 1
	TagBootLoaderName  = 2
	TagBasicMemoryInfo = 4
	TagBiosBootDevice  = 5
	TagMemoryMap       = 6
	TagFramebufferInfo = 8
	TagElfSymbols      = 9
)

// AreaSize is the size of a version 0 memory map entry.
const AreaSize = 24

// Area describes a memory map entry.
type Area struct {
	Base, Length uint64
	Type         uint32
}

// Builder assembles a boot information structure tag by tag. The zero value
// is ready to use.
type Builder struct {
	tags [][]byte
}

// Tag appends a raw tag with the given type and payload. The tag size is
// set to len(payload) + 8.
func (b *Builder) Tag(tagType uint32, payload []byte) *Builder {
	tag := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint32(tag[0:], tagType)
	binary.LittleEndian.PutUint32(tag[4:], uint32(len(tag)))
	copy(tag[8:], payload)
	b.tags = append(b.tags, tag)
	return b
}

// BootLoaderName appends a bootloader name tag holding name and a NULL
// terminator.
func (b *Builder) BootLoaderName(name string) *Builder {
	return b.Tag(TagBootLoaderName, append([]byte(name), 0))
}

// BootCommandLine appends a command line tag holding cmdLine and a NULL
// terminator.
func (b *Builder) BootCommandLine(cmdLine string) *Builder {
	return b.Tag(TagBootCommandLine, append([]byte(cmdLine), 0))
}

// BasicMemoryInfo appends a basic memory info tag.
func (b *Builder) BasicMemoryInfo(lower, upper uint32) *Builder {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[0:], lower)
	binary.LittleEndian.PutUint32(payload[4:], upper)
	return b.Tag(TagBasicMemoryInfo, payload)
}

// FramebufferInfo appends a framebuffer info tag for an EGA text mode
// framebuffer at addr.
func (b *Builder) FramebufferInfo(addr uint64, width, height uint32) *Builder {
	payload := make([]byte, 24)
	binary.LittleEndian.PutUint64(payload[0:], addr)
	binary.LittleEndian.PutUint32(payload[8:], width*2)
	binary.LittleEndian.PutUint32(payload[12:], width)
	binary.LittleEndian.PutUint32(payload[16:], height)
	payload[20] = 16
	payload[21] = 2
	return b.Tag(TagFramebufferInfo, payload)
}

// MemoryMap appends a memory map tag whose entries are entrySize bytes
// apart. entrySize must be at least AreaSize.
func (b *Builder) MemoryMap(entrySize uint32, areas ...Area) *Builder {
	payload := make([]byte, 8+int(entrySize)*len(areas))
	binary.LittleEndian.PutUint32(payload[0:], entrySize)
	for i, area := range areas {
		entry := payload[8+i*int(entrySize):]
		binary.LittleEndian.PutUint64(entry[0:], area.Base)
		binary.LittleEndian.PutUint64(entry[8:], area.Length)
		binary.LittleEndian.PutUint32(entry[16:], area.Type)
	}
	return b.Tag(TagMemoryMap, payload)
}

// Bytes returns the assembled boot information, including the header and a
// trailing end tag, in an 8-byte aligned buffer.
func (b *Builder) Bytes() []byte {
	size := 8
	for _, tag := range b.tags {
		size += align8(len(tag))
	}
	size += 8

	out := Aligned(size)
	binary.LittleEndian.PutUint32(out[0:], uint32(size))

	off := 8
	for _, tag := range b.tags {
		copy(out[off:], tag)
		off += align8(len(tag))
	}
	binary.LittleEndian.PutUint32(out[off:], TagEnd)
	binary.LittleEndian.PutUint32(out[off+4:], 8)

	return out
}

// Aligned returns a zeroed buffer of size bytes whose first byte is 8-byte
// aligned.
func Aligned(size int) []byte {
	if size == 0 {
		return nil
	}

	words := make([]uint64, (size+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)
}

// Copy returns an 8-byte aligned copy of data.
func Copy(data []byte) []byte {
	out := Aligned(len(data))
	copy(out, data)
	return out
}

func align8(n int) int {
	return (n + 7) &^ 7
}
