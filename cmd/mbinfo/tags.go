package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newTagsCmd())
}

func newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags <dump>",
		Short: "List the tags of a boot information dump",
		Long: `The tags command lists every tag preceding the end tag together with
its offset, type and size.

Example:
  mbinfo tags mbi.bin
  mbinfo tags mbi.bin --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTags(args)
		},
	}
	return cmd
}

type tagEntry struct {
	Offset   uint32 `json:"offset"`
	Type     uint32 `json:"type"`
	TypeName string `json:"type_name"`
	Size     uint32 `json:"size"`
}

func runTags(args []string) error {
	d, err := loadDump(args[0])
	if err != nil {
		return err
	}
	defer d.Close()

	var entries []tagEntry
	for it := d.info.Tags(); ; {
		tag, ok := it.Next()
		if !ok {
			break
		}

		entries = append(entries, tagEntry{
			Offset:   tag.Offset,
			Type:     uint32(tag.Type),
			TypeName: tag.Type.String(),
			Size:     tag.Size,
		})
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"file":       d.path,
			"total_size": d.info.TotalSize(),
			"tags":       entries,
		})
	}

	printInfo("%-8s %-4s %-34s %s\n", "OFFSET", "TYPE", "NAME", "SIZE")
	for _, e := range entries {
		printInfo("%-8d %-4d %-34s %d\n", e.Offset, e.Type, e.TypeName, e.Size)
	}
	printInfo("\n%d tag(s), %d bytes\n", len(entries), d.info.TotalSize())

	return nil
}
