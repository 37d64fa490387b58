package preflight

import (
	"context"

	"secsum/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The log directory check is skipped when no log directory is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Downloads directory", cfg.Paths.DownloadsDir))
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	results = append(results, CheckEdgarIdentity(cfg.Edgar))
	results = append(results, CheckLLM(ctx, cfg.LLM))
	results = append(results, CheckEmbedding(ctx, cfg.Embedding))
	results = append(results, CheckQdrant(ctx, cfg.Qdrant))

	return results
}
