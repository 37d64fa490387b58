// Package main hosts the secsum CLI entrypoint and command graph.
//
// The Cobra-based command tree drives filing downloads, the
// chunk-filter-summarize pipeline, vector search, catalog inspection,
// configuration scaffolding, and preflight checks. It centralizes
// configuration resolution and structured logging setup so subcommands
// can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the
// internal packages first, then surface it through dedicated commands
// or flags here.
package main
