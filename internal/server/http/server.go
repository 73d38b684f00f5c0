package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rzbill/chronicle/internal/runtime"
	"github.com/rzbill/chronicle/pkg/log"
)

// Server exposes the admin surface: health, pruner progress, manual
// compaction, and Prometheus metrics.
type Server struct {
	rt     *runtime.Runtime
	logger log.Logger
	mux    *http.ServeMux
}

// New builds the admin server over a running runtime. A nil logger discards
// output.
func New(rt *runtime.Runtime, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &Server{
		rt:     rt,
		logger: logger.WithComponent("http"),
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("/v1/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/pruners", s.handlePruners)
	s.mux.HandleFunc("/v1/compact", s.handleCompact)
	s.mux.Handle("/metrics", promhttp.Handler())
	return s
}

// Handler returns the routing handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("admin server listening", log.Str("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.rt.CheckHealth(r.Context()); err != nil {
		s.logger.Warn("health check failed", log.Err(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePruners(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"latestVersion": s.rt.LatestVersion(),
		"pruners":       s.rt.PrunerStatus(),
	})
}

func (s *Server) handleCompact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.rt.CompactPruned(); err != nil {
		s.logger.Error("compaction failed", log.Err(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "compacted"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
