package logging

import (
	"context"
	"log/slog"

	"secsum/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldSymbol is the standardized structured logging key for stock symbols.
	FieldSymbol = "symbol"
	// FieldKeyword is the standardized structured logging key for the search keyword.
	FieldKeyword = "keyword"
	// FieldDocument is the standardized structured logging key for filing document names.
	FieldDocument = "document"
	// FieldCollection is the standardized structured logging key for vector collection names.
	FieldCollection = "collection"
	// FieldRunID is the standardized structured logging key for run correlation identifiers.
	FieldRunID = "run_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if symbol, ok := services.SymbolFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSymbol, symbol))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
