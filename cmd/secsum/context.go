package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"secsum/internal/config"
	"secsum/internal/logging"
)

type commandContext struct {
	configFlag *string

	loadOnce sync.Once
	cfg      *config.Config
	loadErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig resolves and caches the configuration on first use so every
// subcommand shares one load and one directory-creation pass.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.loadOnce.Do(func() { c.cfg, c.loadErr = c.load() })
	return c.cfg, c.loadErr
}

func (c *commandContext) load() (*config.Config, error) {
	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the run logger from config. The returned closer owns
// the log file handle and may be nil.
func (c *commandContext) newLogger() (*slog.Logger, io.Closer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	return logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		LogFile: cfg.LogFilePath(),
	})
}

// shouldSkipConfig walks the command chain for the skipConfigLoad
// annotation, which commands like version set to run without a config file.
func shouldSkipConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
