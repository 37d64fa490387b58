package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEdgar(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateQdrant(); err != nil {
		return err
	}
	if err := c.validateSummary(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEdgar() error {
	if c.Edgar.RequestsPerSecond < 1 || c.Edgar.RequestsPerSecond > 10 {
		return errors.New("edgar.requests_per_second must be between 1 and 10 (SEC caps clients at 10)")
	}
	if email := c.Edgar.UserAgentEmail; email != "" && !strings.Contains(email, "@") {
		return fmt.Errorf("edgar.user_agent_email %q does not look like an email address", email)
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"edgar.timeout_seconds":         c.Edgar.TimeoutSeconds,
		"llm.timeout_seconds":           c.LLM.TimeoutSeconds,
		"embedding.timeout_seconds":     c.Embedding.TimeoutSeconds,
		"embedding.batch_size":          c.Embedding.BatchSize,
		"qdrant.timeout_seconds":        c.Qdrant.TimeoutSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateQdrant() error {
	if strings.TrimSpace(c.Qdrant.URL) == "" {
		return errors.New("qdrant.url must be set")
	}
	switch c.Qdrant.Distance {
	case "cosine", "euclid", "dot":
	default:
		return fmt.Errorf("qdrant.distance must be one of cosine, euclid, dot (got %q)", c.Qdrant.Distance)
	}
	if c.Qdrant.VectorSize < 0 {
		return errors.New("qdrant.vector_size must be >= 0 (0 probes the embedding model)")
	}
	return nil
}

func (c *Config) validateSummary() error {
	if c.Summary.BatchSize <= 0 {
		return errors.New("summary.batch_size must be positive")
	}
	if c.Summary.ChunkSize <= 0 {
		return errors.New("summary.chunk_size must be positive")
	}
	if c.Summary.ChunkOverlap < 0 {
		return errors.New("summary.chunk_overlap must be >= 0")
	}
	if c.Summary.ChunkOverlap >= c.Summary.ChunkSize {
		return errors.New("summary.chunk_overlap must be smaller than summary.chunk_size")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.Enabled && c.Notifications.NtfyTopic == "" {
		return errors.New("notifications.ntfy_topic must be set when notifications.enabled is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
