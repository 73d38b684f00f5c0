package serverrun

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfgpkg "github.com/rzbill/chronicle/internal/config"
	"github.com/rzbill/chronicle/internal/runtime"
	httpserver "github.com/rzbill/chronicle/internal/server/http"
	pebblestore "github.com/rzbill/chronicle/internal/storage/pebble"
	logpkg "github.com/rzbill/chronicle/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing; replaced by os.Getenv at build time
var getenv = func(key string) string { return os.Getenv(key) }

type Options struct {
	DataDir       string
	HTTPAddr      string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
}

// Run opens the runtime, starts the admin HTTP server, and blocks until ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	// Layer a local signal context over the provided one so callers that
	// don't pass a signal-aware context still get clean shutdown.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	if opts.HTTPAddr == "" {
		opts.HTTPAddr = opts.Config.HTTPAddr
	}

	lcfg := &logpkg.Config{
		Level:  getenvDefault("CHRONICLE_LOG_LEVEL", opts.Config.Log.Level),
		Format: getenvDefault("CHRONICLE_LOG_FORMAT", opts.Config.Log.Format),
	}
	procLogger, err := logpkg.ApplyConfig(lcfg)
	if err != nil {
		procLogger = logpkg.NewLogger(
			logpkg.WithLevel(logpkg.InfoLevel),
			logpkg.WithFormatter(&logpkg.TextFormatter{}),
		)
	}

	// Pebble logs through the stdlib logger.
	logpkg.RedirectStdLog(procLogger)

	storeDir := filepath.Join(opts.DataDir, "store")
	rt, err := runtime.Open(runtime.Options{
		DataDir:       storeDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Config:        opts.Config,
		Logger:        procLogger,
		Metrics:       prometheus.DefaultRegisterer,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	procLogger.Info("starting chronicle server",
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("data_dir", storeDir),
		logpkg.Bool("pruning", opts.Config.Pruner.Enable),
		logpkg.Uint64("prune_window", opts.Config.Pruner.PruneWindow),
	)

	hsrv := httpserver.New(rt, procLogger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, opts.HTTPAddr); err != nil && sctx.Err() == nil {
			procLogger.Error("http server error", logpkg.Err(err))
		}
	}()

	<-sctx.Done()
	wg.Wait()
	return nil
}
