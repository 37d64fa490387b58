package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"secsum/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SECSUM_CONFIG", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantDownloads := filepath.Join(tempHome, ".local", "share", "secsum", "filings")
	if cfg.Paths.DownloadsDir != wantDownloads {
		t.Fatalf("unexpected downloads dir: got %q want %q", cfg.Paths.DownloadsDir, wantDownloads)
	}
	if cfg.Qdrant.Distance != "cosine" {
		t.Fatalf("unexpected distance default: %q", cfg.Qdrant.Distance)
	}
	if !cfg.Summary.RequireJSON {
		t.Fatal("expected require_json to default to true")
	}
	if cfg.Summary.BatchSize != 5 {
		t.Fatalf("unexpected batch size default: %d", cfg.Summary.BatchSize)
	}
	if cfg.Edgar.RequestsPerSecond != 8 {
		t.Fatalf("unexpected edgar rate default: %d", cfg.Edgar.RequestsPerSecond)
	}
}

func TestLoadReadsFileAndEnvFallbacks(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("OPENROUTER_API_KEY", "router-key")
	t.Setenv("OPENAI_API_KEY", "embed-key")
	t.Setenv("QDRANT_API_KEY", "qdrant-key")

	path := filepath.Join(tempHome, "secsum.toml")
	body := `
[edgar]
user_agent_email = "ops@example.com"
requests_per_second = 4

[qdrant]
url = "http://qdrant.local:6333/"
distance = "Dot"

[summary]
batch_size = 3
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.LLM.APIKey != "router-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Embedding.APIKey != "embed-key" {
		t.Fatalf("expected embedding key from env, got %q", cfg.Embedding.APIKey)
	}
	if cfg.Qdrant.APIKey != "qdrant-key" {
		t.Fatalf("expected qdrant key from env, got %q", cfg.Qdrant.APIKey)
	}
	if cfg.Qdrant.URL != "http://qdrant.local:6333" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Qdrant.URL)
	}
	if cfg.Qdrant.Distance != "dot" {
		t.Fatalf("expected lowercased distance, got %q", cfg.Qdrant.Distance)
	}
	if cfg.Edgar.RequestsPerSecond != 4 {
		t.Fatalf("expected rate from file, got %d", cfg.Edgar.RequestsPerSecond)
	}
	if cfg.Summary.BatchSize != 3 {
		t.Fatalf("expected batch size from file, got %d", cfg.Summary.BatchSize)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "edgar rate too high",
			mutate: func(c *config.Config) { c.Edgar.RequestsPerSecond = 50 },
			want:   "requests_per_second",
		},
		{
			name:   "bad email",
			mutate: func(c *config.Config) { c.Edgar.UserAgentEmail = "not-an-email" },
			want:   "user_agent_email",
		},
		{
			name:   "bad distance",
			mutate: func(c *config.Config) { c.Qdrant.Distance = "manhattan" },
			want:   "distance",
		},
		{
			name: "overlap too large",
			mutate: func(c *config.Config) {
				c.Summary.ChunkSize = 100
				c.Summary.ChunkOverlap = 100
			},
			want: "chunk_overlap",
		},
		{
			name: "ntfy topic required",
			mutate: func(c *config.Config) {
				c.Notifications.Enabled = true
				c.Notifications.NtfyTopic = ""
			},
			want: "ntfy_topic",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	target := filepath.Join(tempHome, ".config", "secsum", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	cfg, resolved, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists || resolved != target {
		t.Fatalf("expected sample to load from %s", target)
	}
	if cfg.Qdrant.CollectionPrefix != "sec_nlp" {
		t.Fatalf("unexpected prefix: %q", cfg.Qdrant.CollectionPrefix)
	}
}

func TestEnsureDirectories(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DownloadsDir, cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s to exist: %v", dir, err)
		}
	}
}

func TestExpandPathTilde(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	got, err := config.ExpandPath("~/data")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(tempHome, "data") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}
