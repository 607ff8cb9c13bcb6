package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gopherboot/kernel/hal/multiboot"
)

var mmapAvailableOnly bool

func init() {
	cmd := newMmapCmd()
	cmd.Flags().BoolVar(&mmapAvailableOnly, "available", false, "Only list areas available for allocation")
	rootCmd.AddCommand(cmd)
}

func newMmapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mmap <dump>",
		Short: "List the memory areas reported by the bootloader",
		Long: `The mmap command decodes the memory map tag and lists every memory
area with its address range, length and type.

Example:
  mbinfo mmap mbi.bin
  mbinfo mmap mbi.bin --available
  mbinfo mmap mbi.bin --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMmap(args)
		},
	}
	return cmd
}

type areaEntry struct {
	Base     uint64 `json:"base"`
	End      uint64 `json:"end"`
	Length   uint64 `json:"length"`
	Type     uint32 `json:"type"`
	TypeName string `json:"type_name"`
}

func runMmap(args []string) error {
	d, err := loadDump(args[0])
	if err != nil {
		return err
	}
	defer d.Close()

	memMap, ok := d.info.MemoryMap()
	if !ok {
		return fmt.Errorf("%s: no memory map tag", d.path)
	}

	it := memMap.Areas()
	if mmapAvailableOnly {
		it = memMap.AvailableAreas()
	}

	var (
		entries   []areaEntry
		available uint64
	)
	for area, ok := it.Next(); ok; area, ok = it.Next() {
		entries = append(entries, areaEntry{
			Base:     area.BaseAddr,
			End:      area.End(),
			Length:   area.Length,
			Type:     uint32(area.Type),
			TypeName: area.Type.String(),
		})
		if area.Type == multiboot.MemoryAreaAvailable {
			available += area.Length
		}
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"file":          d.path,
			"entry_size":    memMap.EntrySize(),
			"entry_version": memMap.EntryVersion(),
			"areas":         entries,
			"available":     available,
		})
	}

	printVerbose("Entry size: %d, entry version: %d\n", memMap.EntrySize(), memMap.EntryVersion())
	for _, e := range entries {
		printInfo("[0x%010x - 0x%010x] size: %12d type: %s\n", e.Base, e.End, e.Length, e.TypeName)
	}
	printInfo("\navailable memory: %d KiB\n", available/1024)

	return nil
}
