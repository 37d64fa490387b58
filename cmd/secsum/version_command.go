package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"secsum/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the secsum version",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "secsum %s (%s)\n", version.Version, version.Commit)
			return nil
		},
	}
}
