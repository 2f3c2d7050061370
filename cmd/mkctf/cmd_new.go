package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mkctf/internal/challenge"
	"mkctf/internal/config"
	"mkctf/internal/logging"
)

type newOptions struct {
	standalone bool
	flagSize   int
}

func newNewCmd(a *app) *cobra.Command {
	var opts newOptions
	cmd := &cobra.Command{
		Use:   "new CATEGORY SLUG",
		Short: "Scaffold a challenge",
		Long: "Create the challenge directory tree, template files and lifecycle scripts.\n" +
			"Existing entries are left untouched; missing ones are filled in.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNew(cmd, args, opts)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.standalone, "standalone", false, "Mark the challenge as standalone (needs no shared infrastructure)")
	f.IntVar(&opts.flagSize, "flag-size", challenge.DefaultFlagSize, "Random bytes in the generated flag")
	return cmd
}

func (a *app) runNew(cmd *cobra.Command, args []string, opts newOptions) error {
	id := args[0] + "/" + args[1]
	if _, _, err := challenge.SplitID(id); err != nil {
		return err
	}
	ch := challenge.New(filepath.Join(a.root, args[0], args[1]), a.tmpl,
		challenge.WithLogger(logging.New("challenge")))

	created, err := ch.Create()
	if err != nil {
		return err
	}
	if !ch.Config().Exists() {
		flag, err := challenge.MakeFlag(a.tmpl, opts.flagSize)
		if err != nil {
			return err
		}
		doc := config.Document{
			Enabled:    config.Bool(false),
			Standalone: config.Bool(opts.standalone),
			Flag:       config.String(flag),
		}
		if err := ch.Config().Set(doc); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if created {
		fmt.Fprintf(out, "Created %s in %s\n", ch.ID(), ch.Dir())
	} else {
		fmt.Fprintf(out, "%s already exists; missing entries were added\n", ch.ID())
	}
	return nil
}
