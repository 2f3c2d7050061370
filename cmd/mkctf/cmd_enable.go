package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mkctf/internal/display"
)

// newEnableCmd builds "enable" or "disable".
func newEnableCmd(a *app, enabled bool) *cobra.Command {
	use, short := "enable", "Mark a challenge as enabled"
	if !enabled {
		use, short = "disable", "Mark a challenge as disabled"
	}
	return &cobra.Command{
		Use:   use + " CATEGORY/SLUG",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := a.challenge(args[0])
			if err != nil {
				return err
			}
			if err := ch.Enable(enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", ch.ID(), display.State(enabled))
			return nil
		},
	}
}
