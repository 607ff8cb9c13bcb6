package multiboot

import "unsafe"

// elfSymbolsHeader describes the fixed fields of the ELF symbols tag. These
// fields correspond to the shdr_num, shdr_entsize and shdr_shndx fields of
// the kernel's ELF header.
type elfSymbolsHeader struct {
	num     uint32
	entSize uint32
	shndx   uint32
}

type elfSection32 struct {
	nameIndex   uint32
	sectionType uint32
	flags       uint32
	address     uint32
	offset      uint32
	size        uint32
	link        uint32
	info        uint32
	addrAlign   uint32
	entSize     uint32
}

type elfSection64 struct {
	nameIndex   uint32
	sectionType uint32
	flags       uint64
	address     uint64
	offset      uint64
	size        uint64
	link        uint32
	info        uint32
	addrAlign   uint64
	entSize     uint64
}

// ElfSectionFlag defines an OR-able flag associated with an ElfSection.
type ElfSectionFlag uint64

const (
	// ElfSectionWritable marks the section as writable.
	ElfSectionWritable ElfSectionFlag = 1 << iota

	// ElfSectionAllocated means that the section occupies memory when the
	// image is loaded (e.g .bss sections).
	ElfSectionAllocated

	// ElfSectionExecutable marks the section as executable.
	ElfSectionExecutable
)

// ElfSection describes a section of the loaded kernel image.
type ElfSection struct {
	// Offset of the section name in the string table section.
	NameIndex uint32

	Type    uint32
	Flags   ElfSectionFlag
	Address uint64
	Size    uint64
}

// ElfSymbols provides the section header table of the loaded kernel image.
type ElfSymbols struct {
	hdr      *elfSymbolsHeader
	sections []byte
}

// Num returns the number of section headers.
func (e ElfSymbols) Num() uint32 {
	return e.hdr.num
}

// EntSize returns the size of each section header in bytes.
func (e ElfSymbols) EntSize() uint32 {
	return e.hdr.entSize
}

// Shndx returns the index of the section that holds the section name
// string table.
func (e ElfSymbols) Shndx() uint32 {
	return e.hdr.shndx
}

// Sections returns an iterator over the section headers. Both 32-bit and
// 64-bit section headers are supported; tags using any other entry size
// yield no sections.
func (e ElfSymbols) Sections() ElfSectionIterator {
	if e.hdr == nil {
		return ElfSectionIterator{}
	}

	return ElfSectionIterator{
		sections: e.sections,
		entSize:  e.hdr.entSize,
		num:      e.hdr.num,
	}
}

// KernelBounds returns the physical address range [start, end) spanned by
// the sections that are allocated in memory. The last return value is false
// if no such section exists.
func (e ElfSymbols) KernelBounds() (uintptr, uintptr, bool) {
	var (
		start, end uint64
		found      bool
	)

	for it := e.Sections(); ; {
		sec, ok := it.Next()
		if !ok {
			break
		}

		if sec.Flags&ElfSectionAllocated == 0 || sec.Size == 0 {
			continue
		}

		if !found || sec.Address < start {
			start = sec.Address
		}
		if secEnd := sec.Address + sec.Size; !found || secEnd > end {
			end = secEnd
		}
		found = true
	}

	return uintptr(start), uintptr(end), found
}

// ElfSectionIterator walks the section headers of an ElfSymbols tag.
type ElfSectionIterator struct {
	sections []byte
	entSize  uint32
	num      uint32
	index    uint32
}

// Next returns the next section header or false if no more sections exist.
func (it *ElfSectionIterator) Next() (ElfSection, bool) {
	if it.index >= it.num {
		return ElfSection{}, false
	}

	off := uint64(it.index) * uint64(it.entSize)
	if off+uint64(it.entSize) > uint64(len(it.sections)) {
		return ElfSection{}, false
	}

	var (
		sec ElfSection
		ptr = unsafe.Pointer(&it.sections[off])
	)

	switch uintptr(it.entSize) {
	case unsafe.Sizeof(elfSection32{}):
		raw := (*elfSection32)(ptr)
		sec = ElfSection{
			NameIndex: raw.nameIndex,
			Type:      raw.sectionType,
			Flags:     ElfSectionFlag(raw.flags),
			Address:   uint64(raw.address),
			Size:      uint64(raw.size),
		}
	case unsafe.Sizeof(elfSection64{}):
		raw := (*elfSection64)(ptr)
		sec = ElfSection{
			NameIndex: raw.nameIndex,
			Type:      raw.sectionType,
			Flags:     ElfSectionFlag(raw.flags),
			Address:   raw.address,
			Size:      raw.size,
		}
	default:
		return ElfSection{}, false
	}

	it.index++
	return sec, true
}
