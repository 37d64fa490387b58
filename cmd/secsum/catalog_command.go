package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"secsum/internal/catalog"
	"secsum/internal/filings"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the downloaded filing archive",
	}

	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogStatsCommand(ctx))

	return catalogCmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var symbolFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List downloaded filings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cmd.Context(), cfg.CatalogPath())
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()

			symbol := filings.NormalizeSymbol(symbolFlag)
			entries, err := store.List(cmd.Context(), symbol)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				if symbol != "" {
					fmt.Fprintf(out, "No filings for %s in the catalog.\n", symbol)
				} else {
					fmt.Fprintln(out, "Catalog is empty; run `secsum run` to download filings.")
				}
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.Symbol,
					entry.Form,
					entry.FilingDate,
					entry.Accession,
					entry.PrimaryDoc,
					formatSize(entry.SizeBytes),
					entry.DownloadedAt.Local().Format(time.DateOnly),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Symbol", "Form", "Filed", "Accession", "Document", "Size", "Downloaded"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().StringVar(&symbolFlag, "symbol", "", "Limit to one ticker symbol")
	return cmd
}

func newCatalogStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Aggregate the archive per symbol and form",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cmd.Context(), cfg.CatalogPath())
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(stats) == 0 {
				fmt.Fprintln(out, "Catalog is empty; run `secsum run` to download filings.")
				return nil
			}
			rows := make([][]string, 0, len(stats))
			for _, row := range stats {
				rows = append(rows, []string{
					row.Symbol,
					row.Form,
					strconv.FormatInt(row.Count, 10),
					row.LatestFiling,
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Symbol", "Form", "Filings", "Latest"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}))
			return nil
		},
	}
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
