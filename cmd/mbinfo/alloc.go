package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gopherboot/kernel/mm"
	"gopherboot/kernel/mm/pmm"
)

var (
	allocKernel  string
	allocMbiBase string
	allocCount   int
)

func init() {
	cmd := newAllocCmd()
	cmd.Flags().StringVar(&allocKernel, "kernel", "", "Physical address range of the kernel image (START-END, END exclusive)")
	cmd.Flags().StringVar(&allocMbiBase, "mbi-base", "", "Physical address the boot information was loaded at")
	cmd.Flags().IntVar(&allocCount, "count", 16, "Number of allocated frames to list (0 lists none)")
	_ = cmd.MarkFlagRequired("kernel")
	rootCmd.AddCommand(cmd)
}

func newAllocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alloc <dump>",
		Short: "Simulate boot-time frame allocation",
		Long: `The alloc command runs the kernel's area frame allocator over the memory
map of a dump. Frames occupied by the kernel image (--kernel) and by the boot
information itself (--mbi-base) are never handed out. The first --count
allocated frames are listed, then the allocator is drained to report how many
frames are available in total.

Addresses accept the 0x prefix for hexadecimal values.

Example:
  mbinfo alloc mbi.bin --kernel 0x100000-0x1985e0
  mbinfo alloc mbi.bin --kernel 0x100000-0x1985e0 --mbi-base 0x9500 --count 4
  mbinfo alloc mbi.bin --kernel 0x100000-0x1985e0 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlloc(args)
		},
	}
	return cmd
}

type frameRangeEntry struct {
	First uint64 `json:"first"`
	Last  uint64 `json:"last"`
	Count uint64 `json:"count"`
}

func newFrameRangeEntry(r mm.FrameRange) frameRangeEntry {
	return frameRangeEntry{First: uint64(r.First), Last: uint64(r.Last), Count: r.Count()}
}

type frameEntry struct {
	Frame   uint64 `json:"frame"`
	Address uint64 `json:"address"`
}

// parseAddress parses a decimal or 0x-prefixed hexadecimal address.
func parseAddress(s string) (uintptr, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}

	return uintptr(v), nil
}

// parseAddressRange parses a START-END address range.
func parseAddressRange(s string) (uintptr, uintptr, error) {
	startStr, endStr, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid address range %q: expected START-END", s)
	}

	start, err := parseAddress(startStr)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseAddress(endStr)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("invalid address range %q: end precedes start", s)
	}

	return start, end, nil
}

func runAlloc(args []string) error {
	kernelStart, kernelEnd, err := parseAddressRange(allocKernel)
	if err != nil {
		return err
	}

	d, err := loadDump(args[0])
	if err != nil {
		return err
	}
	defer d.Close()

	mbi := mm.FrameRangeFromAddresses(0, 0)
	if allocMbiBase != "" {
		base, err := parseAddress(allocMbiBase)
		if err != nil {
			return err
		}
		mbi = mm.FrameRangeFromAddresses(base, base+uintptr(d.info.TotalSize()))
	}

	memMap, ok := d.info.MemoryMap()
	if !ok {
		return fmt.Errorf("%s: no memory map tag", d.path)
	}

	kernel := mm.FrameRangeFromAddresses(kernelStart, kernelEnd)
	alloc := pmm.NewAreaFrameAllocator(memMap.AvailableAreas(), kernel, mbi)

	var frames []frameEntry
	for {
		frame, ok := alloc.AllocFrame()
		if !ok {
			break
		}

		if len(frames) < allocCount {
			frames = append(frames, frameEntry{Frame: uint64(frame), Address: uint64(frame.Address())})
		}
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"file":   d.path,
			"kernel": newFrameRangeEntry(kernel),
			"mbi":    newFrameRangeEntry(mbi),
			"frames": frames,
			"total":  alloc.AllocCount(),
		})
	}

	printVerbose("Kernel frames: %d-%d, mbi frames: %d-%d\n", kernel.First, kernel.Last, mbi.First, mbi.Last)
	for _, f := range frames {
		printInfo("frame %8d at 0x%010x\n", f.Frame, f.Address)
	}
	printInfo("\n%d frame(s) available (%d KiB)\n", alloc.AllocCount(), alloc.AllocCount()*uint64(mm.PageSize)/1024)

	return nil
}
