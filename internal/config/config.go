package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DownloadsDir string `toml:"downloads_dir"`
	OutputDir    string `toml:"output_dir"`
	LogDir       string `toml:"log_dir"`
}

// Edgar contains settings for the SEC EDGAR client.
type Edgar struct {
	// UserAgentEmail identifies the operator to SEC servers, which reject
	// anonymous clients. May also come from SECSUM_EDGAR_EMAIL / EDGAR_EMAIL.
	UserAgentEmail    string `toml:"user_agent_email"`
	RequestsPerSecond int    `toml:"requests_per_second"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

// LLM contains connection settings for the summarization model.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Embedding contains connection settings for the embedding model.
type Embedding struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	BatchSize      int    `toml:"batch_size"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Qdrant contains connection settings for the vector store.
type Qdrant struct {
	URL              string `toml:"url"`
	APIKey           string `toml:"api_key"`
	CollectionPrefix string `toml:"collection_prefix"`
	Distance         string `toml:"distance"`
	// VectorSize pins the collection dimension. Zero means probe the
	// embedding model for its width at provisioning time.
	VectorSize     int `toml:"vector_size"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Summary contains settings for chunking and summarization.
type Summary struct {
	RequireJSON  bool   `toml:"require_json"`
	PromptPath   string `toml:"prompt_path"`
	BatchSize    int    `toml:"batch_size"`
	ChunkSize    int    `toml:"chunk_size"`
	ChunkOverlap int    `toml:"chunk_overlap"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	Enabled        bool   `toml:"enabled"`
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Config encapsulates all configuration values for secsum.
//
// Configuration sections by subsystem:
//   - Paths: download archive, summary output, and log directories
//   - Edgar: SEC EDGAR contact identity and rate limiting
//   - LLM: chat-completion endpoint for summarization
//   - Embedding: embeddings endpoint and batching
//   - Qdrant: vector store connection and collection naming
//   - Summary: prompt, chunking, and batch window settings
//   - Logging: log format and level
//   - Notifications: ntfy push notification settings
type Config struct {
	Paths         Paths         `toml:"paths"`
	Edgar         Edgar         `toml:"edgar"`
	LLM           LLM           `toml:"llm"`
	Embedding     Embedding     `toml:"embedding"`
	Qdrant        Qdrant        `toml:"qdrant"`
	Summary       Summary       `toml:"summary"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/secsum/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if env := strings.TrimSpace(os.Getenv("SECSUM_CONFIG")); path == "" && env != "" {
		path = env
	}

	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("secsum.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DownloadsDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogFilePath returns the path of the rolling log file, or empty when no
// log directory is configured.
func (c *Config) LogFilePath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "secsum.log")
}

// CatalogPath returns the sqlite index location for the filing archive.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.DownloadsDir, "catalog.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
