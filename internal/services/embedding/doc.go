// Package embedding turns filing chunks into vectors via an
// OpenAI-compatible embeddings endpoint.
package embedding
