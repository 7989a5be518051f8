package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/tarkovmcp/tarkovmcp/internal/core/engine"
	"github.com/tarkovmcp/tarkovmcp/internal/metrics"
)

// RateLimitResponse reports the state of the outbound request window.
type RateLimitResponse struct {
	MaxRequests int       `json:"max_requests"`
	Window      string    `json:"window"`
	InWindow    int       `json:"in_window"`
	Remaining   int       `json:"remaining"`
	Admitted    int       `json:"admitted_total"`
	WaitMillis  int64     `json:"wait_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// RateLimitHandler returns a handler reporting the limiter's current window.
func RateLimitHandler(limiter *engine.RateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if limiter == nil {
			envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "rate limiter not configured")
			respondWithError(w, r, envelope)
			return
		}

		inWindow, wait := limiter.Snapshot()
		metrics.SetRateLimitWindowInUse(inWindow)

		remaining := limiter.Limit.RequestsPerWindow - inWindow
		if remaining < 0 {
			remaining = 0
		}

		response := RateLimitResponse{
			MaxRequests: limiter.Limit.RequestsPerWindow,
			Window:      limiter.Limit.WindowDuration.String(),
			InWindow:    inWindow,
			Remaining:   remaining,
			Admitted:    limiter.Admitted(),
			WaitMillis:  wait.Milliseconds(),
			Timestamp:   time.Now().UTC(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
