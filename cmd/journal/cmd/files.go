package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/threewords/journal/internal/journal"
	"github.com/threewords/journal/internal/model"
)

var outFile string

var migrateCmd = &cobra.Command{
	Use:   "migrate <export.json>",
	Short: "Upgrade an export file to the tagged entry format",
	Long: `Reads an export file, turns single-topic entries into tagged entries
and writes the result. Files already in the current format come out unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		records, err := journal.Decode(data)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		legacy := 0
		for _, r := range records {
			if _, ok := r.(journal.LegacyEntry); ok {
				legacy++
			}
		}

		err = writeEntries(cmd, journal.Migrate(records))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %d entries, %d migrated\n", color.GreenString("✓"), len(records), legacy)
		return nil
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge <local.json> <remote.json>",
	Short: "Merge two export files the way a sync does",
	Long: `Merges remote into local: remote entries replace local entries with the
same id, everything else is kept, newest experience first.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		local, err := readEntries(args[0])
		if err != nil {
			return err
		}
		remote, err := readEntries(args[1])
		if err != nil {
			return err
		}

		merged := journal.Merge(local, remote)
		err = writeEntries(cmd, merged)
		if err != nil {
			return err
		}

		localIDs := journal.IDs(local)
		added := 0
		for _, e := range remote {
			if !localIDs[e.ID] {
				added++
			}
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %d entries (%d from remote not in local)\n", color.GreenString("✓"), len(merged), added)
		return nil
	},
}

func readEntries(path string) ([]model.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries, err := journal.DecodeEntries(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// writeEntries writes to --out, or stdout when unset.
func writeEntries(cmd *cobra.Command, entries []model.Entry) error {
	data, err := journal.Encode(entries)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	_, err = w.Write(data)
	return err
}

func init() {
	for _, c := range []*cobra.Command{migrateCmd, mergeCmd} {
		c.Flags().StringVarP(&outFile, "out", "o", "", "write to file instead of stdout")
	}
}
