package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	stageKey  contextKey = "stage"
	symbolKey contextKey = "symbol"
)

// WithRunID annotates context with the pipeline run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSymbol annotates context with the stock symbol being processed.
func WithSymbol(ctx context.Context, symbol string) context.Context {
	if symbol == "" {
		return ctx
	}
	return context.WithValue(ctx, symbolKey, symbol)
}

// SymbolFromContext returns the stock symbol if present.
func SymbolFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(symbolKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
