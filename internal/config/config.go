package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	DataDir  string       `json:"dataDir" yaml:"dataDir"`
	HTTPAddr string       `json:"httpAddr" yaml:"httpAddr"`
	Log      LogConfig    `json:"log" yaml:"log"`
	Pruner   PrunerConfig `json:"pruner" yaml:"pruner"`
}

// LogConfig selects log level and output format.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// PrunerConfig tunes background pruning of historical ledger data.
type PrunerConfig struct {
	// Enable turns background pruning on.
	Enable bool `json:"enable" yaml:"enable"`
	// PruneWindow is how many recent versions stay readable behind the latest
	// committed version.
	PruneWindow uint64 `json:"pruneWindow" yaml:"pruneWindow"`
	// BatchSize bounds how many versions one pruning step may cover.
	BatchSize uint64 `json:"batchSize" yaml:"batchSize"`
	// PollIntervalMs is how often the pruning worker re-checks for work.
	PollIntervalMs int `json:"pollIntervalMs" yaml:"pollIntervalMs"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Pruner: PrunerConfig{
			Enable:         true,
			PruneWindow:    100_000,
			BatchSize:      500,
			PollIntervalMs: 1000,
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return cfg, nil
}
