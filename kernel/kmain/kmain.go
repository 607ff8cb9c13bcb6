// Package kmain contains the kernel entry point.
package kmain

import (
	"io"

	"gopherboot/kernel"
	"gopherboot/kernel/hal"
	"gopherboot/kernel/hal/multiboot"
	"gopherboot/kernel/kfmt"
	"gopherboot/kernel/mm"
	"gopherboot/kernel/mm/pmm"
)

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}
	errNoMemoryMap   = &kernel.Error{Module: "kmain", Message: "boot information does not contain a memory map"}
	errOutOfMemory   = &kernel.Error{Module: "kmain", Message: "no free physical frames"}

	// The following functions are mocked by tests.
	initTerminalFn = hal.InitTerminal
	panicFn        = kfmt.Panic

	// frameAllocator is the allocator used for all physical frame
	// allocations during boot.
	frameAllocator pmm.AreaFrameAllocator

	multibootWriter = kfmt.PrefixWriter{Prefix: []byte("[multiboot] ")}
	pmmWriter       = kfmt.PrefixWriter{Prefix: []byte("[pmm] ")}
)

// bootConfig holds the settings parsed from the boot command line.
type bootConfig struct {
	// dumpMemoryMap enables the boot information and memory map dump.
	// Disabled with memmap=off.
	dumpMemoryMap bool

	// mirrorSerial mirrors console output to COM1. Disabled with
	// serial=off.
	mirrorSerial bool
}

func parseBootConfig(info multiboot.Info) bootConfig {
	cfg := bootConfig{dumpMemoryMap: true, mirrorSerial: true}

	cmdLine, ok := info.BootCommandLine()
	if !ok {
		return cfg
	}

	cmdLine.Visit(func(key, value string) bool {
		switch {
		case key == "memmap" && value == "off":
			cfg.dumpMemoryMap = false
		case key == "serial" && value == "off":
			cfg.mirrorSerial = false
		}
		return true
	})

	return cfg
}

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. This function is invoked by the rt0 assembly code
// after setting up the GDT and setting up a a minimal g0 struct that allows
// Go code using the 4K stack allocated by the assembly code.
//
// The rt0 code passes the address of the multiboot info payload provided by
// the bootloader as well as the physical addresses for the kernel start/end.
// If the kernel bounds are not known (kernelEnd <= kernelStart) they are
// derived from the ELF section headers supplied by the bootloader.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(multibootInfoPtr, kernelStart, kernelEnd uintptr) {
	// Output generated before the terminal is attached is captured by
	// kfmt and replayed once an output sink is set.
	info, err := multiboot.Load(multibootInfoPtr)

	cfg := parseBootConfig(info)
	kfmt.SetOutputSink(initTerminalFn(info, cfg.mirrorSerial))

	if err != nil {
		panicFn(err)
		return
	}

	if name, ok := info.BootLoaderName(); ok {
		kfmt.Printf("[kmain] booted by %s\n", name.Name())
	}

	if cfg.dumpMemoryMap {
		dumpBootInfo(kfmt.GetOutputSink(), info)
	}

	memMap, ok := info.MemoryMap()
	if !ok {
		panicFn(errNoMemoryMap)
		return
	}

	kernelFrames := kernelFrameRange(info, kernelStart, kernelEnd)
	frameAllocator = pmm.NewAreaFrameAllocator(memMap.Areas(), kernelFrames, info.FrameRange())

	frame, ok := frameAllocator.AllocFrame()
	if !ok {
		panicFn(errOutOfMemory)
		return
	}
	kfmt.Printf("[kmain] allocated frame %d at 0x%x\n", uintptr(frame), frame.Address())

	if cfg.dumpMemoryMap {
		pmmWriter.Sink = kfmt.GetOutputSink()
		frameAllocator.PrintStats(&pmmWriter)
	}

	// Use panicFn instead of returning to ensure that the CPU gets halted
	// with a visible message.
	panicFn(errKmainReturned)
}

// kernelFrameRange returns the frames occupied by the kernel image. It falls
// back to the ELF section headers if the supplied bounds are empty and to an
// empty range if neither source is available.
func kernelFrameRange(info multiboot.Info, kernelStart, kernelEnd uintptr) mm.FrameRange {
	if kernelEnd > kernelStart {
		return mm.FrameRangeFromAddresses(kernelStart, kernelEnd)
	}

	if elf, ok := info.ElfSymbols(); ok {
		if start, end, ok := elf.KernelBounds(); ok {
			return mm.FrameRangeFromAddresses(start, end)
		}
	}

	return mm.FrameRangeFromAddresses(0, 0)
}

// dumpBootInfo lists the tags in the boot information.
func dumpBootInfo(w io.Writer, info multiboot.Info) {
	multibootWriter.Sink = w

	kfmt.Fprintf(&multibootWriter, "boot information at 0x%x, size: %d\n", info.Address(), info.TotalSize())
	for it := info.Tags(); ; {
		tag, ok := it.Next()
		if !ok {
			break
		}

		kfmt.Fprintf(&multibootWriter, "\ttag: %s (type %d, size %d)\n", tag.Type.String(), uint32(tag.Type), tag.Size)
	}

	if memInfo, ok := info.BasicMemoryInfo(); ok {
		kfmt.Fprintf(&multibootWriter, "lower memory: %dKb, upper memory: %dKb\n", memInfo.MemLower, memInfo.MemUpper)
	}
}
