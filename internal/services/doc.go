// Package services defines shared utilities consumed by the pipeline and the
// external service clients (EDGAR, inference, embeddings, vector store).
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and symbols
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (fatal vs transient vs skip) uniform across clients.
//
// Use these helpers when wiring new collaborators so operational behaviour
// (error handling, observability, retries) stays consistent.
package services
