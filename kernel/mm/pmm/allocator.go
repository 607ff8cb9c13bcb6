// Package pmm implements the boot-time physical frame allocator.
package pmm

import (
	"io"

	"gopherboot/kernel"
	"gopherboot/kernel/hal/multiboot"
	"gopherboot/kernel/kfmt"
	"gopherboot/kernel/mm"
)

var (
	// ErrUnsupported is returned by FreeFrame. Frames handed out by the
	// boot allocator can never be reclaimed.
	ErrUnsupported = &kernel.Error{Module: "pmm", Message: "frame deallocation is not supported"}
)

// FrameAllocator is implemented by physical frame allocators.
type FrameAllocator interface {
	// AllocFrame reserves the next free frame. It returns false when no
	// more frames can be allocated.
	AllocFrame() (mm.Frame, bool)

	// FreeFrame releases a previously allocated frame.
	FreeFrame(mm.Frame) *kernel.Error
}

// AreaFrameAllocator hands out physical frames from the available memory
// areas reported by the bootloader, in increasing address order, while
// skipping the frames occupied by the kernel image and the boot information.
//
// The allocator only tracks the next candidate frame, so it never needs to
// allocate memory itself. Allocated frames can not be freed; once the kernel
// is properly initialized, the allocated frames are expected to be handed
// over to a more advanced allocator.
type AreaFrameAllocator struct {
	// nextFree is the next frame to be considered for allocation.
	nextFree mm.Frame

	// current is the area that nextFree points into or nil if all areas
	// have been exhausted.
	current                   *multiboot.MemoryArea
	currentFirst, currentLast mm.Frame

	// areas is never advanced; area selection always scans a copy.
	areas multiboot.MemoryAreaIterator

	kernel, mbi mm.FrameRange

	// allocCount tracks the total number of allocated frames.
	allocCount uint64
}

// NewAreaFrameAllocator returns an allocator that serves frames from the
// areas yielded by the supplied iterator. Frames that belong to the kernel
// or the mbi range are never returned.
//
// Areas that are not MemoryAreaAvailable are skipped so both the Areas and
// the AvailableAreas iterator of a memory map can be used.
func NewAreaFrameAllocator(areas multiboot.MemoryAreaIterator, kernel, mbi mm.FrameRange) AreaFrameAllocator {
	alloc := AreaFrameAllocator{
		areas:  areas,
		kernel: kernel,
		mbi:    mbi,
	}
	alloc.chooseNextArea()

	return alloc
}

// AllocFrame reserves the next free frame. Frames are returned in strictly
// increasing order. Once it returns false, all subsequent calls also return
// false.
func (alloc *AreaFrameAllocator) AllocFrame() (mm.Frame, bool) {
	for alloc.current != nil {
		frame := alloc.nextFree

		switch {
		case frame > alloc.currentLast:
			alloc.chooseNextArea()
		case alloc.kernel.Contains(frame):
			alloc.nextFree = alloc.kernel.Last + 1
		case alloc.mbi.Contains(frame):
			alloc.nextFree = alloc.mbi.Last + 1
		default:
			alloc.nextFree++
			alloc.allocCount++
			return frame, true
		}
	}

	return mm.InvalidFrame, false
}

// FreeFrame always fails with ErrUnsupported.
func (alloc *AreaFrameAllocator) FreeFrame(_ mm.Frame) *kernel.Error {
	return ErrUnsupported
}

// AllocCount returns the number of frames allocated so far.
func (alloc *AreaFrameAllocator) AllocCount() uint64 {
	return alloc.allocCount
}

// chooseNextArea selects the available area with the lowest base address that
// still contains frames at or after nextFree. If nextFree lies before the
// selected area it is moved to the area's first frame. If no such area
// exists, current is set to nil.
func (alloc *AreaFrameAllocator) chooseNextArea() {
	var (
		best                *multiboot.MemoryArea
		bestFirst, bestLast mm.Frame
	)

	it := alloc.areas

	for area, ok := it.Next(); ok; area, ok = it.Next() {
		if !area.Available() {
			continue
		}

		first, last, ok := areaFrames(area)
		if !ok || last < alloc.nextFree {
			continue
		}

		if best == nil || area.BaseAddr < best.BaseAddr {
			best, bestFirst, bestLast = area, first, last
		}
	}

	alloc.current, alloc.currentFirst, alloc.currentLast = best, bestFirst, bestLast
	if best != nil && alloc.nextFree < bestFirst {
		alloc.nextFree = bestFirst
	}
}

// areaFrames returns the first and last frame that fit entirely inside the
// area. Reported addresses may not be page-aligned; the start is rounded up
// and the end is rounded down. The function returns false if the area does
// not contain a whole frame.
func areaFrames(area *multiboot.MemoryArea) (mm.Frame, mm.Frame, bool) {
	pageSizeMinus1 := uint64(mm.PageSize - 1)

	start := area.BaseAddr + pageSizeMinus1
	if start < area.BaseAddr {
		return 0, 0, false
	}
	start &^= pageSizeMinus1
	end := area.End() &^ pageSizeMinus1

	if end <= start {
		return 0, 0, false
	}

	return mm.Frame(start >> mm.PageShift), mm.Frame(end>>mm.PageShift) - 1, true
}

// PrintStats writes the allocator state and the system memory map to w.
func (alloc *AreaFrameAllocator) PrintStats(w io.Writer) {
	var (
		totalFree mm.Size
		it        = alloc.areas
	)

	kfmt.Fprintf(w, "system memory map:\n")
	for area, ok := it.Next(); ok; area, ok = it.Next() {
		kfmt.Fprintf(w, "\t[0x%10x - 0x%10x], size: %10d, type: %s\n", area.BaseAddr, area.End(), area.Length, area.Type.String())

		if area.Available() {
			totalFree += mm.Size(area.Length)
		}
	}
	kfmt.Fprintf(w, "free memory: %dKb\n", uint64(totalFree/mm.Kb))
	kfmt.Fprintf(w, "kernel frames: [%d - %d], mbi frames: [%d - %d]\n", uintptr(alloc.kernel.First), uintptr(alloc.kernel.Last), uintptr(alloc.mbi.First), uintptr(alloc.mbi.Last))
	kfmt.Fprintf(w, "allocated frames: %d\n", alloc.allocCount)
}
