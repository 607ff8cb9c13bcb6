// Package mm contains the physical memory primitives shared by the boot-time
// memory code.
package mm

import "math"

// Frame describes a physical memory page index.
type Frame uintptr

const (
	// InvalidFrame is returned by frame allocators when they fail to
	// reserve the requested frame.
	InvalidFrame = Frame(math.MaxUint64)
)

// Valid returns true if this is a valid frame.
func (f Frame) Valid() bool {
	return f != InvalidFrame
}

// Address returns the physical memory address pointed to by this Frame.
func (f Frame) Address() uintptr {
	return uintptr(f << PageShift)
}

// FrameFromAddress returns the Frame that contains the given physical
// address. Addresses that are not page-aligned are rounded down.
func FrameFromAddress(physAddr uintptr) Frame {
	return Frame((physAddr & ^(uintptr(PageSize - 1))) >> PageShift)
}

// FrameRange describes an inclusive range of physical frames that must never
// be handed out by a frame allocator, e.g. the frames occupied by the kernel
// image or by the boot information supplied by the bootloader.
type FrameRange struct {
	First, Last Frame
}

// FrameRangeFromAddresses returns the smallest FrameRange that covers the
// physical address range [start, end). An empty address range yields a
// FrameRange with First > Last that contains no frames.
func FrameRangeFromAddresses(start, end uintptr) FrameRange {
	if end <= start {
		return FrameRange{First: 1, Last: 0}
	}

	return FrameRange{
		First: FrameFromAddress(start),
		Last:  FrameFromAddress(end - 1),
	}
}

// Contains returns true if f lies inside the range.
func (r FrameRange) Contains(f Frame) bool {
	return f >= r.First && f <= r.Last
}

// Count returns the number of frames in the range.
func (r FrameRange) Count() uint64 {
	if r.Last < r.First {
		return 0
	}

	return uint64(r.Last-r.First) + 1
}
