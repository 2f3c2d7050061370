package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mkctf/internal/challenge"
	"mkctf/internal/config"
	"mkctf/internal/format"
	"mkctf/internal/logging"
)

type listOptions struct {
	category    string
	enabledOnly bool
	markdown    bool
	showFlags   bool
}

func newListCmd(a *app) *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List challenges in the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runList(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.category, "category", "", "Only list challenges in this category")
	f.BoolVar(&opts.enabledOnly, "enabled", false, "Only list enabled challenges")
	f.BoolVar(&opts.markdown, "markdown", false, "Render a Markdown table")
	f.BoolVar(&opts.showFlags, "flags", false, "Include the current flag of each challenge")
	return cmd
}

func (a *app) runList(cmd *cobra.Command, opts listOptions) error {
	chs, err := challenge.Discover(cmd.Context(), a.root, a.tmpl, challenge.WithLogger(logging.New("challenge")))
	if err != nil {
		return fmt.Errorf("discover challenges: %w", err)
	}

	mode := format.ASCII
	if opts.markdown {
		mode = format.Markdown
	}
	headers := []string{"Category", "Slug", "Enabled", "Standalone"}
	if opts.showFlags {
		headers = append(headers, "Flag")
	}
	tbl := format.NewTable(mode, headers...)

	for _, ch := range chs {
		if opts.category != "" && ch.Category() != opts.category {
			continue
		}
		enabled, err := ch.Enabled()
		if err != nil {
			return err
		}
		if opts.enabledOnly && !enabled {
			continue
		}
		standalone, err := ch.IsStandalone()
		if err != nil {
			return err
		}
		row := []any{ch.Category(), ch.Slug(), format.BoolMark(enabled), format.BoolMark(standalone)}
		if opts.showFlags {
			flag, err := ch.Flag()
			if errors.Is(err, config.ErrKeyNotFound) {
				flag = "-"
			} else if err != nil {
				return err
			}
			row = append(row, format.Truncate(flag, 40))
		}
		tbl.Append(row...)
	}

	out := cmd.OutOrStdout()
	if tbl.Len() == 0 {
		fmt.Fprintln(out, "No challenges found.")
		return nil
	}
	fmt.Fprintln(out, tbl.String())
	return nil
}
