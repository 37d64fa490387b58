package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"secsum/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories, API keys, and service connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)

			rows := make([][]string, 0, len(results))
			failed := 0
			for _, result := range results {
				status := "PASS"
				if !result.Passed {
					status = "FAIL"
					failed++
				}
				rows = append(rows, []string{result.Name, status, result.Detail})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"Check", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft}))

			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(results))
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}
