package config

import (
	"os"
	"strconv"
)

// FromEnv overlays CHRONICLE_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("CHRONICLE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("CHRONICLE_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("CHRONICLE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CHRONICLE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("CHRONICLE_PRUNE_ENABLE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Pruner.Enable = b
		}
	}
	if v := os.Getenv("CHRONICLE_PRUNE_WINDOW"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Pruner.PruneWindow = n
		}
	}
	if v := os.Getenv("CHRONICLE_PRUNE_BATCH_SIZE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Pruner.BatchSize = n
		}
	}
	if v := os.Getenv("CHRONICLE_PRUNE_POLL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pruner.PollIntervalMs = n
		}
	}
}
