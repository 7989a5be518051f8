package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tarkovmcp/tarkovmcp/internal/core/engine"
	apperrors "github.com/tarkovmcp/tarkovmcp/internal/errors"
	"github.com/tarkovmcp/tarkovmcp/internal/server/handlers"
)

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := New(Options{Host: "127.0.0.1"})

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var body apperrors.HTTPErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if body.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected error code NOT_FOUND, got %s", body.Error.Code)
	}
}

func TestRateLimitEndpointReportsWindow(t *testing.T) {
	limiter, err := engine.NewRateLimiter(engine.RateLimit{RequestsPerWindow: 3, WindowDuration: time.Minute})
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := limiter.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire: %v", err)
		}
	}

	srv := New(Options{Host: "127.0.0.1", Limiter: limiter})
	req := httptest.NewRequest(http.MethodGet, "/ratelimit", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body handlers.RateLimitResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.MaxRequests != 3 || body.InWindow != 2 || body.Remaining != 1 || body.Admitted != 2 {
		t.Fatalf("unexpected window report: %+v", body)
	}
	if body.WaitMillis != 0 {
		t.Fatalf("expected no wait with free slots, got %dms", body.WaitMillis)
	}
}

func TestRateLimitEndpointWithoutLimiter(t *testing.T) {
	srv := New(Options{Host: "127.0.0.1"})
	req := httptest.NewRequest(http.MethodGet, "/ratelimit", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestReadinessRunsUpstreamChecker(t *testing.T) {
	handlers.InitHealthManager("test")
	t.Cleanup(func() { handlers.InitHealthManager("test") })

	hm := handlers.GetHealthManager()
	hm.RegisterChecker("process", handlers.HealthCheckerFunc(func(context.Context) error { return nil }))
	hm.RegisterReadinessChecker("upstream", handlers.HealthCheckerFunc(func(context.Context) error {
		return errors.New("connection refused")
	}))

	srv := New(Options{Host: "127.0.0.1"})

	live := httptest.NewRecorder()
	srv.Handler().ServeHTTP(live, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if live.Code != http.StatusOK {
		t.Fatalf("liveness should ignore upstream, got %d", live.Code)
	}

	ready := httptest.NewRecorder()
	srv.Handler().ServeHTTP(ready, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if ready.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected readiness to fail, got %d", ready.Code)
	}
}

func TestAdminSignalEndpointRequiresToken(t *testing.T) {
	rec := httptest.NewRecorder()
	New(Options{Host: "127.0.0.1"}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/signal", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without admin token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	New(Options{Host: "127.0.0.1", AdminToken: "secret"}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/signal", nil))
	if rec.Code == http.StatusNotFound {
		t.Fatal("expected admin endpoint to be registered when a token is configured")
	}
}
