package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mkctf/internal/challenge"
	"mkctf/internal/logging"
	"mkctf/internal/repo"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	root      string
	logLevel  string
	logFormat string

	tmpl repo.Template
}

// noRepo marks commands that run before a repository template exists.
const noRepo = "no-repo"

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "mkctf",
		Short: "Scaffold and manage CTF challenges",
		Long: "mkctf scaffolds CTF challenges from a repository template, keeps their\n" +
			"per-challenge configuration, and runs their build, deploy and status scripts.",
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&a.root, "root", ".", "Repository root directory")
	f.StringVar(&a.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	f.StringVar(&a.logFormat, "log-format", "text", "Log format: text or json")

	cmd.AddCommand(
		newInitCmd(a),
		newNewCmd(a),
		newListCmd(a),
		newEnableCmd(a, true),
		newEnableCmd(a, false),
		newRenewFlagCmd(a),
		newScriptCmd(a, "build", "Run the challenge build script"),
		newScriptCmd(a, "deploy", "Run the challenge deploy script"),
		newStatusCmd(a),
		newExportCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	level, err := logging.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(a.logFormat)
	if err != nil {
		return err
	}
	logging.Init(level, format, cmd.ErrOrStderr())

	if _, skip := cmd.Annotations[noRepo]; skip || cmd.Name() == "help" {
		return nil
	}
	tmpl, err := repo.Find(a.root)
	if err != nil {
		return err
	}
	a.tmpl = tmpl
	return nil
}

// challenge resolves a CATEGORY/SLUG argument to an existing challenge.
func (a *app) challenge(id string) (*challenge.Challenge, error) {
	ch, err := challenge.Find(a.root, id, a.tmpl, challenge.WithLogger(logging.New("challenge")))
	if err != nil {
		return nil, fmt.Errorf("resolve challenge: %w", err)
	}
	return ch, nil
}
