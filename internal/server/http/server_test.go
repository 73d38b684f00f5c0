package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	cfgpkg "github.com/rzbill/chronicle/internal/config"
	"github.com/rzbill/chronicle/internal/ledger"
	"github.com/rzbill/chronicle/internal/runtime"
)

func newTestServer(t *testing.T) (*Server, *runtime.Runtime) {
	t.Helper()

	cfg := cfgpkg.Default()
	cfg.Pruner.Enable = false
	cfg.Pruner.PruneWindow = 2

	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Config: cfg})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })

	return New(rt, nil), rt
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("status field = %q", body["status"])
	}
}

func TestPrunersStatus(t *testing.T) {
	srv, rt := newTestServer(t)

	var key ledger.EventKey
	key[0] = 0x01
	for v := uint64(0); v < 10; v++ {
		ev := []ledger.Event{{Key: key, SequenceNumber: v, Data: []byte{byte(v)}}}
		if err := rt.Commit(context.Background(), v, ev, nil); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	rt.Pruners().PruneOnce()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/pruners", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		LatestVersion uint64 `json:"latestVersion"`
		Pruners       []struct {
			Name                 string `json:"name"`
			LeastReadableVersion uint64 `json:"leastReadableVersion"`
			TargetVersion        uint64 `json:"targetVersion"`
		} `json:"pruners"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.LatestVersion != 9 {
		t.Fatalf("latest = %d, want 9", body.LatestVersion)
	}
	if len(body.Pruners) != 2 {
		t.Fatalf("pruner count = %d, want 2", len(body.Pruners))
	}
	for _, p := range body.Pruners {
		// latest=9, window=2: everything below 7 is released.
		if p.LeastReadableVersion != 7 || p.TargetVersion != 7 {
			t.Fatalf("%s progress = (%d, %d), want (7, 7)",
				p.Name, p.LeastReadableVersion, p.TargetVersion)
		}
	}
}

func TestCompactEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/compact", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/compact", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET compact status = %d, want 405", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGracefulShutdown(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
