package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mkctf/internal/challenge"
	"mkctf/internal/export"
	"mkctf/internal/format"
	"mkctf/internal/logging"
)

func newExportCmd(a *app) *cobra.Command {
	var includeDisabled bool
	cmd := &cobra.Command{
		Use:   "export OUT_DIR",
		Short: "Archive the public files of each challenge",
		Long: "Write one <category>-<slug>.tar.gz per challenge into OUT_DIR, holding\n" +
			"only the public directories. Disabled challenges are skipped by default.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chs, err := challenge.Discover(cmd.Context(), a.root, a.tmpl, challenge.WithLogger(logging.New("challenge")))
			if err != nil {
				return fmt.Errorf("discover challenges: %w", err)
			}
			results, err := export.ToDir(cmd.Context(), args[0], chs, includeDisabled)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "Nothing to export.")
				return nil
			}
			tbl := format.NewTable(format.ASCII, "Challenge", "Files", "Content", "Archive")
			tbl.AlignRight(2, 3, 4)
			var total int64
			for _, r := range results {
				tbl.Append(r.Challenge.ID(), r.Stats.Files,
					humanize.Bytes(uint64(r.Stats.Bytes)), humanize.Bytes(uint64(r.Size)))
				total += r.Size
			}
			fmt.Fprintln(out, tbl.String())
			fmt.Fprintf(out, "Wrote %d archives (%s) to %s\n", len(results), humanize.Bytes(uint64(total)), args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeDisabled, "include-disabled", false, "Also export disabled challenges")
	return cmd
}
