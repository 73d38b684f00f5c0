package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	serverrun "github.com/rzbill/chronicle/internal/cmd/server"
	cfgpkg "github.com/rzbill/chronicle/internal/config"
	pebblestore "github.com/rzbill/chronicle/internal/storage/pebble"
	logpkg "github.com/rzbill/chronicle/pkg/log"
)

var version = "dev"

func main() {
	// Respect CHRONICLE_LOG_LEVEL for CLI output.
	level := os.Getenv("CHRONICLE_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "chronicle",
		Short: "Chronicle ledger store CLI",
		Long:  "Chronicle is a versioned append-only ledger store with incremental pruning. This CLI manages the server.",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("chronicle", version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start chronicle server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			httpAddr, _ := cmd.Flags().GetString("http")
			fsyncMode, _ := cmd.Flags().GetString("fsync")
			fsyncIntervalMs, _ := cmd.Flags().GetInt("fsync-interval-ms")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")
			configPath, _ := cmd.Flags().GetString("config")
			pruneWindow, _ := cmd.Flags().GetUint64("prune-window")
			pruneBatch, _ := cmd.Flags().GetUint64("prune-batch")
			pruneEnable, _ := cmd.Flags().GetBool("prune")

			mode := pebblestore.FsyncModeAlways
			switch fsyncMode {
			case "never":
				mode = pebblestore.FsyncModeNever
			case "interval":
				mode = pebblestore.FsyncModeInterval
			case "always":
				mode = pebblestore.FsyncModeAlways
			default:
				return fmt.Errorf("invalid --fsync; use always|interval|never")
			}

			cfg := cfgpkg.Default()
			if configPath != "" {
				loaded, err := cfgpkg.Load(configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = loaded
			}
			cfgpkg.FromEnv(&cfg)

			// Flags win over config file and environment.
			if cmd.Flags().Changed("prune") {
				cfg.Pruner.Enable = pruneEnable
			}
			if cmd.Flags().Changed("prune-window") {
				cfg.Pruner.PruneWindow = pruneWindow
			}
			if cmd.Flags().Changed("prune-batch") {
				cfg.Pruner.BatchSize = pruneBatch
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
				_ = os.Setenv("CHRONICLE_LOG_LEVEL", logLevel)
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
				_ = os.Setenv("CHRONICLE_LOG_FORMAT", logFormat)
			}
			if dataDir == "" {
				dataDir = cfg.DataDir
			}
			if httpAddr == "" {
				httpAddr = cfg.HTTPAddr
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:       dataDir,
				HTTPAddr:      httpAddr,
				Fsync:         mode,
				FsyncInterval: time.Duration(fsyncIntervalMs) * time.Millisecond,
				Config:        cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("data-dir", "", "Data directory (default: OS-specific application data directory)")
	serverStartCmd.Flags().String("http", "", "HTTP listen address (default from config, :8080)")
	serverStartCmd.Flags().String("fsync", "always", "Fsync mode: always|interval|never")
	serverStartCmd.Flags().Int("fsync-interval-ms", 5, "When --fsync=interval, group-commit window in ms")
	serverStartCmd.Flags().String("log-level", os.Getenv("CHRONICLE_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", os.Getenv("CHRONICLE_LOG_FORMAT"), "Log format: text|json (default text)")
	serverStartCmd.Flags().String("config", "", "Config file path (JSON or YAML)")
	serverStartCmd.Flags().Bool("prune", true, "Enable background pruning")
	serverStartCmd.Flags().Uint64("prune-window", 0, "Versions kept readable behind the latest (default from config)")
	serverStartCmd.Flags().Uint64("prune-batch", 0, "Max versions pruned per batch (default from config)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
