package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mkctf/internal/repo"
)

func newInitCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the default repository template",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{noRepo: ""},
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := repo.Default()
			t.Name = name
			path, err := repo.Save(a.root, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Repository name stored in the template")
	return cmd
}
