package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if !cfg.Pruner.Enable {
		t.Fatalf("pruning should default on")
	}
	if cfg.Pruner.BatchSize == 0 || cfg.Pruner.PruneWindow == 0 {
		t.Fatalf("pruner defaults missing: %+v", cfg.Pruner)
	}
	if cfg.HTTPAddr == "" {
		t.Fatalf("http addr default missing")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronicle.yaml")
	body := []byte("dataDir: /tmp/led\npruner:\n  enable: false\n  batchSize: 64\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/tmp/led" {
		t.Fatalf("dataDir: %q", cfg.DataDir)
	}
	if cfg.Pruner.Enable {
		t.Fatalf("enable should be overridden")
	}
	if cfg.Pruner.BatchSize != 64 {
		t.Fatalf("batchSize: %d", cfg.Pruner.BatchSize)
	}
	// untouched fields keep defaults
	if cfg.Pruner.PruneWindow != Default().Pruner.PruneWindow {
		t.Fatalf("pruneWindow lost default: %d", cfg.Pruner.PruneWindow)
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronicle.json")
	body := []byte(`{"httpAddr": ":9999", "pruner": {"pruneWindow": 10}}`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("httpAddr: %q", cfg.HTTPAddr)
	}
	if cfg.Pruner.PruneWindow != 10 {
		t.Fatalf("pruneWindow: %d", cfg.Pruner.PruneWindow)
	}
}

func TestFromEnvOverlay(t *testing.T) {
	t.Setenv("CHRONICLE_PRUNE_ENABLE", "false")
	t.Setenv("CHRONICLE_PRUNE_BATCH_SIZE", "77")
	t.Setenv("CHRONICLE_LOG_LEVEL", "debug")

	cfg := Default()
	FromEnv(&cfg)

	if cfg.Pruner.Enable {
		t.Fatalf("env enable not applied")
	}
	if cfg.Pruner.BatchSize != 77 {
		t.Fatalf("env batch size not applied: %d", cfg.Pruner.BatchSize)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("env log level not applied: %q", cfg.Log.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
