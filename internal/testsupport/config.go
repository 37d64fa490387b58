// Package testsupport provides shared fixtures for package tests: sandboxed
// configurations, archive-layout filing files, and catalog stores.
package testsupport

import (
	"path/filepath"
	"testing"

	"secsum/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test,
// created up front. Remote endpoints keep repository defaults; tests that
// talk to fakes override them with options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadsDir = filepath.Join(base, "filings")
	cfg.Paths.OutputDir = filepath.Join(base, "summaries")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithEdgarEmail sets the SEC contact identity on the test config.
func WithEdgarEmail(email string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Edgar.UserAgentEmail = email
	}
}

// WithLLMEndpoint points the summarization model at url with a test key.
func WithLLMEndpoint(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.LLM.BaseURL = url
		cfg.LLM.APIKey = "test-llm-key"
	}
}

// WithEmbeddingEndpoint points the embedding model at url with a test key.
func WithEmbeddingEndpoint(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Embedding.BaseURL = url
		cfg.Embedding.APIKey = "test-embedding-key"
	}
}

// WithQdrantURL points the vector store at url.
func WithQdrantURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Qdrant.URL = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DownloadsDir)
}
