package app

import (
	"fmt"
	"strings"
)

// Config holds all the settings an App instance needs to run.
type Config struct {
	// FlowPath is a single .hcl file or a directory of .hcl files.
	FlowPath string
	// CachePath enables the persistent sqlite cache when non-empty; empty
	// selects the in-memory cache.
	CachePath string
	// HealthcheckPort starts the HTTP health/metrics server when positive.
	HealthcheckPort int
	LogFormat       string
	LogLevel        string
	// Workers is the executor scheduling width; 1 runs sequentially.
	Workers int
	// FailFast cancels the whole run on the first node failure.
	FailFast bool
}

// NewConfig validates a config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.FlowPath == "" {
		return nil, fmt.Errorf("flow path is required")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	return &cfg, nil
}
