package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"secsum/internal/filings"
	"secsum/internal/services/embedding"
	"secsum/internal/services/qdrant"
	"secsum/internal/vectorindex"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		symbolFlag  string
		keywordFlag string
		topFlag     int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed filing chunks by semantic similarity",
		Long: `Embeds the query text and runs a nearest-neighbor search against
the collection derived from the symbol and keyword, the same
collection "secsum run" populates.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(args[0])
			if query == "" {
				return errors.New("a non-empty query is required")
			}
			symbol := filings.NormalizeSymbol(symbolFlag)
			if symbol == "" {
				return errors.New("a symbol is required (--symbol AAPL)")
			}
			keyword := strings.TrimSpace(keywordFlag)
			if keyword == "" {
				return errors.New("a keyword is required (--keyword revenue)")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			embedder := embedding.NewClient(embedding.Config{
				APIKey:         cfg.Embedding.APIKey,
				BaseURL:        cfg.Embedding.BaseURL,
				Model:          cfg.Embedding.Model,
				BatchSize:      cfg.Embedding.BatchSize,
				TimeoutSeconds: cfg.Embedding.TimeoutSeconds,
			})
			vectors, err := embedder.Embed(cmd.Context(), []string{query})
			if err != nil {
				return fmt.Errorf("embed query: %w", err)
			}
			if len(vectors) == 0 {
				return errors.New("embedding API returned no vector for the query")
			}

			client := qdrant.NewClient(qdrant.Config{
				URL:            cfg.Qdrant.URL,
				APIKey:         cfg.Qdrant.APIKey,
				TimeoutSeconds: cfg.Qdrant.TimeoutSeconds,
			})
			collection := vectorindex.CollectionName(cfg.Qdrant.CollectionPrefix, symbol, keyword)
			hits, err := client.Search(cmd.Context(), collection, vectors[0], topFlag)
			if err != nil {
				return fmt.Errorf("search %s: %w", collection, err)
			}

			out := cmd.OutOrStdout()
			if len(hits) == 0 {
				fmt.Fprintf(out, "No results in %s\n", collection)
				return nil
			}
			rows := make([][]string, 0, len(hits))
			for _, hit := range hits {
				rows = append(rows, []string{
					fmt.Sprintf("%.4f", hit.Score),
					payloadString(hit.Payload, "document"),
					snippet(payloadString(hit.Payload, "text"), 80),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Score", "Document", "Text"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft}))
			return nil
		},
	}

	cmd.Flags().StringVar(&symbolFlag, "symbol", "", "Ticker symbol whose collection to search (required)")
	cmd.Flags().StringVar(&keywordFlag, "keyword", "", "Keyword the collection was built for (required)")
	cmd.Flags().IntVar(&topFlag, "top", 5, "Maximum results to return")

	return cmd
}

func payloadString(payload map[string]any, key string) string {
	if value, ok := payload[key].(string); ok {
		return value
	}
	return ""
}

func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}
