package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEdgar()
	c.normalizeLLM()
	c.normalizeEmbedding()
	c.normalizeQdrant()
	if err := c.normalizeSummary(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DownloadsDir) == "" {
		c.Paths.DownloadsDir = defaultDownloadsDir
	}
	if c.Paths.DownloadsDir, err = expandPath(c.Paths.DownloadsDir); err != nil {
		return fmt.Errorf("paths.downloads_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEdgar() {
	c.Edgar.UserAgentEmail = strings.TrimSpace(c.Edgar.UserAgentEmail)
	if c.Edgar.UserAgentEmail == "" {
		if value, ok := os.LookupEnv("SECSUM_EDGAR_EMAIL"); ok {
			c.Edgar.UserAgentEmail = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("EDGAR_EMAIL"); ok {
			c.Edgar.UserAgentEmail = strings.TrimSpace(value)
		}
	}
	if c.Edgar.RequestsPerSecond <= 0 {
		c.Edgar.RequestsPerSecond = defaultEdgarRequestsPerSecond
	}
	if c.Edgar.TimeoutSeconds <= 0 {
		c.Edgar.TimeoutSeconds = defaultEdgarTimeoutSeconds
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("SECSUM_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("DEEPSEEK_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeEmbedding() {
	c.Embedding.BaseURL = strings.TrimSpace(c.Embedding.BaseURL)
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = defaultEmbeddingBaseURL
	}
	c.Embedding.Model = strings.TrimSpace(c.Embedding.Model)
	if c.Embedding.Model == "" {
		c.Embedding.Model = defaultEmbeddingModel
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = defaultEmbeddingBatchSize
	}
	if c.Embedding.TimeoutSeconds <= 0 {
		c.Embedding.TimeoutSeconds = defaultEmbeddingTimeoutSeconds
	}
	c.Embedding.APIKey = strings.TrimSpace(c.Embedding.APIKey)
	if c.Embedding.APIKey == "" {
		if value, ok := os.LookupEnv("SECSUM_EMBEDDING_API_KEY"); ok {
			c.Embedding.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Embedding.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeQdrant() {
	c.Qdrant.URL = strings.TrimSpace(c.Qdrant.URL)
	if c.Qdrant.URL == "" {
		if value, ok := os.LookupEnv("QDRANT_URL"); ok {
			c.Qdrant.URL = strings.TrimSpace(value)
		}
	}
	if c.Qdrant.URL == "" {
		c.Qdrant.URL = defaultQdrantURL
	}
	c.Qdrant.URL = strings.TrimRight(c.Qdrant.URL, "/")
	c.Qdrant.APIKey = strings.TrimSpace(c.Qdrant.APIKey)
	if c.Qdrant.APIKey == "" {
		if value, ok := os.LookupEnv("QDRANT_API_KEY"); ok {
			c.Qdrant.APIKey = strings.TrimSpace(value)
		}
	}
	c.Qdrant.CollectionPrefix = strings.TrimSpace(c.Qdrant.CollectionPrefix)
	c.Qdrant.Distance = strings.ToLower(strings.TrimSpace(c.Qdrant.Distance))
	if c.Qdrant.Distance == "" {
		c.Qdrant.Distance = defaultQdrantDistance
	}
	if c.Qdrant.VectorSize < 0 {
		c.Qdrant.VectorSize = 0
	}
	if c.Qdrant.TimeoutSeconds <= 0 {
		c.Qdrant.TimeoutSeconds = defaultQdrantTimeoutSeconds
	}
}

func (c *Config) normalizeSummary() error {
	var err error
	c.Summary.PromptPath = strings.TrimSpace(c.Summary.PromptPath)
	if c.Summary.PromptPath != "" {
		if c.Summary.PromptPath, err = expandPath(c.Summary.PromptPath); err != nil {
			return fmt.Errorf("summary.prompt_path: %w", err)
		}
	}
	if c.Summary.BatchSize <= 0 {
		c.Summary.BatchSize = defaultSummaryBatchSize
	}
	if c.Summary.ChunkSize <= 0 {
		c.Summary.ChunkSize = defaultSummaryChunkSize
	}
	if c.Summary.ChunkOverlap < 0 {
		c.Summary.ChunkOverlap = defaultSummaryChunkOverlap
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
