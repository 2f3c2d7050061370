package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mkctf/internal/challenge"
)

func newRenewFlagCmd(a *app) *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "renew-flag CATEGORY/SLUG",
		Short: "Generate and store a new random flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := a.challenge(args[0])
			if err != nil {
				return err
			}
			flag, err := ch.RenewFlag(size)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), flag)
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", challenge.DefaultFlagSize, "Random bytes in the flag")
	return cmd
}
