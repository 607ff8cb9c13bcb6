package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newValidateCmd())
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <dump>",
		Short: "Validate a boot information dump",
		Long: `The validate command runs the same checks as the kernel does before
decoding any tags: the structure must be 8-byte aligned, its total size must be
a multiple of 8, and it must be terminated by an end tag.

Example:
  mbinfo validate mbi.bin
  mbinfo validate mbi.bin --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args)
		},
	}
	return cmd
}

func runValidate(args []string) error {
	dumpPath := args[0]

	d, err := loadDump(dumpPath)

	result := map[string]interface{}{
		"file":  dumpPath,
		"valid": err == nil,
	}
	if err != nil {
		result["error"] = err.Error()
	} else {
		defer d.Close()
		result["total_size"] = d.info.TotalSize()
	}

	if jsonOut {
		if jerr := printJSON(result); jerr != nil {
			return jerr
		}
		return err
	}

	if err != nil {
		printInfo("%s: invalid\n", dumpPath)
		return err
	}

	printInfo("%s: ok (%d bytes)\n", dumpPath, d.info.TotalSize())
	return nil
}
