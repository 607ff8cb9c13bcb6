package main

import (
	"github.com/spf13/cobra"

	"gopherboot/kernel/hal/multiboot"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <dump>",
		Short: "Summarize a boot information dump",
		Long: `The info command displays the bootloader name, the kernel command line,
the basic memory information, the BIOS boot device, the framebuffer and a
summary of the kernel ELF sections.

Example:
  mbinfo info mbi.bin
  mbinfo info mbi.bin --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

type infoResult struct {
	File       string            `json:"file"`
	TotalSize  uint32            `json:"total_size"`
	BootLoader string            `json:"bootloader,omitempty"`
	CmdLine    *string           `json:"cmdline,omitempty"`
	CmdLineKV  map[string]string `json:"cmdline_args,omitempty"`
	MemLower   *uint32           `json:"mem_lower_kb,omitempty"`
	MemUpper   *uint32           `json:"mem_upper_kb,omitempty"`
	BootDevice *bootDeviceEntry  `json:"boot_device,omitempty"`
	Fb         *framebufferEntry `json:"framebuffer,omitempty"`
	Elf        *elfEntry         `json:"elf,omitempty"`
}

type bootDeviceEntry struct {
	BiosDev      uint32 `json:"bios_dev"`
	Partition    uint32 `json:"partition"`
	SubPartition uint32 `json:"sub_partition"`
}

type framebufferEntry struct {
	Address uint64 `json:"address"`
	Width   uint32 `json:"width"`
	Height  uint32 `json:"height"`
	Bpp     uint8  `json:"bpp"`
	Type    uint8  `json:"type"`
}

type elfEntry struct {
	Sections    uint32 `json:"sections"`
	EntSize     uint32 `json:"entsize"`
	Shndx       uint32 `json:"shndx"`
	KernelStart uint64 `json:"kernel_start,omitempty"`
	KernelEnd   uint64 `json:"kernel_end,omitempty"`
}

func collectInfo(path string, info multiboot.Info) infoResult {
	res := infoResult{File: path, TotalSize: info.TotalSize()}

	if name, ok := info.BootLoaderName(); ok {
		res.BootLoader = sanitize(name.Name())
	}

	if cmdLine, ok := info.BootCommandLine(); ok {
		s := sanitize(cmdLine.String())
		res.CmdLine = &s

		cmdLine.Visit(func(key, value string) bool {
			if res.CmdLineKV == nil {
				res.CmdLineKV = make(map[string]string)
			}
			res.CmdLineKV[sanitize(key)] = sanitize(value)
			return true
		})
	}

	if memInfo, ok := info.BasicMemoryInfo(); ok {
		lower, upper := memInfo.MemLower, memInfo.MemUpper
		res.MemLower, res.MemUpper = &lower, &upper
	}

	if dev, ok := info.BootDevice(); ok {
		res.BootDevice = &bootDeviceEntry{BiosDev: dev.BiosDev, Partition: dev.Partition, SubPartition: dev.SubPartition}
	}

	if fb, ok := info.FramebufferInfo(); ok {
		res.Fb = &framebufferEntry{Address: fb.PhysAddr, Width: fb.Width, Height: fb.Height, Bpp: fb.Bpp, Type: uint8(fb.Type)}
	}

	if elf, ok := info.ElfSymbols(); ok {
		res.Elf = &elfEntry{Sections: elf.Num(), EntSize: elf.EntSize(), Shndx: elf.Shndx()}
		if start, end, ok := elf.KernelBounds(); ok {
			res.Elf.KernelStart, res.Elf.KernelEnd = uint64(start), uint64(end)
		}
	}

	return res
}

func runInfo(args []string) error {
	d, err := loadDump(args[0])
	if err != nil {
		return err
	}
	defer d.Close()

	res := collectInfo(d.path, d.info)
	if jsonOut {
		return printJSON(res)
	}

	printInfo("\nBoot Information:\n")
	printInfo("  File: %s\n", res.File)
	printInfo("  Size: %d bytes\n", res.TotalSize)
	if res.BootLoader != "" {
		printInfo("  Bootloader: %s\n", res.BootLoader)
	}
	if res.CmdLine != nil {
		printInfo("  Command line: %q\n", *res.CmdLine)
	}
	if res.MemLower != nil {
		printInfo("  Lower memory: %d KiB\n", *res.MemLower)
		printInfo("  Upper memory: %d KiB\n", *res.MemUpper)
	}
	if res.BootDevice != nil {
		printInfo("  Boot device: 0x%x (partition 0x%x, sub-partition 0x%x)\n",
			res.BootDevice.BiosDev, res.BootDevice.Partition, res.BootDevice.SubPartition)
	}
	if res.Fb != nil {
		printInfo("  Framebuffer: %dx%d at 0x%x (type %d, %d bpp)\n",
			res.Fb.Width, res.Fb.Height, res.Fb.Address, res.Fb.Type, res.Fb.Bpp)
	}
	if res.Elf != nil {
		printInfo("  ELF sections: %d (entry size %d, string table %d)\n", res.Elf.Sections, res.Elf.EntSize, res.Elf.Shndx)
		if res.Elf.KernelEnd != 0 {
			printInfo("  Kernel image: [0x%x - 0x%x)\n", res.Elf.KernelStart, res.Elf.KernelEnd)
		}
	}

	return nil
}
