package multiboot

import (
	"math"
	"unsafe"
)

// mmapHeader describes the header for a memory map specification.
type mmapHeader struct {
	// The size of each entry. Always a multiple of 8.
	entrySize uint32

	// The version of the entries that follow.
	entryVersion uint32
}

// MemoryAreaType defines the type of a MemoryArea.
type MemoryAreaType uint32

const (
	// MemoryAreaAvailable indicates that the memory area is available for
	// general use.
	MemoryAreaAvailable MemoryAreaType = iota + 1

	// MemoryAreaReservedHibernate indicates a reserved area that must be
	// preserved when hibernating.
	MemoryAreaReservedHibernate

	// MemoryAreaAcpiInfo indicates memory that holds ACPI information.
	MemoryAreaAcpiInfo

	// MemoryAreaReserved indicates that the memory area is not available
	// for use.
	MemoryAreaReserved

	// MemoryAreaDefective indicates defective RAM.
	MemoryAreaDefective
)

// String implements fmt.Stringer for MemoryAreaType.
func (t MemoryAreaType) String() string {
	switch t {
	case MemoryAreaAvailable:
		return "available"
	case MemoryAreaReservedHibernate:
		return "reserved (hibernate)"
	case MemoryAreaAcpiInfo:
		return "ACPI info"
	case MemoryAreaReserved:
		return "reserved"
	case MemoryAreaDefective:
		return "defective"
	default:
		return "unknown"
	}
}

// MemoryArea describes a memory region, namely its physical address, its
// length and its type. MemoryArea values returned by this package point
// directly into the boot information memory.
type MemoryArea struct {
	// The physical address for this memory region.
	BaseAddr uint64

	// The length of the memory region in bytes.
	Length uint64

	// The type of this memory region.
	Type MemoryAreaType

	reserved uint32
}

// End returns the physical address one past the last byte of the area. The
// result saturates at math.MaxUint64 if the area wraps the address space.
func (a *MemoryArea) End() uint64 {
	end := a.BaseAddr + a.Length
	if end < a.BaseAddr {
		return math.MaxUint64
	}

	return end
}

// Available returns true if the area can be used for frame allocations.
func (a *MemoryArea) Available() bool {
	return a.Type == MemoryAreaAvailable
}

// MemoryMap describes the memory layout of the machine as reported by the
// bootloader.
type MemoryMap struct {
	hdr     *mmapHeader
	entries []byte
}

// EntrySize returns the size of each memory map entry in bytes.
func (m MemoryMap) EntrySize() uint32 {
	return m.hdr.entrySize
}

// EntryVersion returns the version of the memory map entries.
func (m MemoryMap) EntryVersion() uint32 {
	return m.hdr.entryVersion
}

// Areas returns an iterator over all memory areas in the map.
func (m MemoryMap) Areas() MemoryAreaIterator {
	if m.hdr == nil {
		return MemoryAreaIterator{}
	}

	return MemoryAreaIterator{
		entries: m.entries,
		stride:  m.hdr.entrySize,
	}
}

// AvailableAreas returns an iterator over the memory areas whose type is
// MemoryAreaAvailable.
func (m MemoryMap) AvailableAreas() MemoryAreaIterator {
	it := m.Areas()
	it.availableOnly = true
	return it
}

// MemoryAreaIterator walks the entries of a memory map. Like TagIterator,
// it is a value type and copies of it can be used to restart a scan.
type MemoryAreaIterator struct {
	entries       []byte
	stride        uint32
	next          uint32
	availableOnly bool
}

// Next returns the next memory area or false if no more areas exist.
func (it *MemoryAreaIterator) Next() (*MemoryArea, bool) {
	for {
		if it.stride < uint32(unsafe.Sizeof(MemoryArea{})) ||
			uint64(it.next)+uint64(it.stride) > uint64(len(it.entries)) {
			return nil, false
		}

		area := (*MemoryArea)(unsafe.Pointer(&it.entries[it.next]))
		it.next += it.stride

		if it.availableOnly && !area.Available() {
			continue
		}

		return area, true
	}
}
