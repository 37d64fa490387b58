// Package logging configures slog for the pipeline and provides the shared
// attribute helpers and field names used across components.
//
// Two output formats are supported: a console handler that renders
// "TIME LEVEL component: message key=value" lines for interactive use, and a
// JSON handler with stable ts/level/msg keys for log shipping. Loggers are
// enriched from context (run id, stage, symbol) via WithContext so
// per-run correlation works without manual plumbing at every call site.
package logging
