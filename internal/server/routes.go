package server

import (
	"net/http"

	"github.com/fulmenhq/gofulmen/signals"
	"go.uber.org/zap"

	apperrors "github.com/tarkovmcp/tarkovmcp/internal/errors"
	"github.com/tarkovmcp/tarkovmcp/internal/observability"
	"github.com/tarkovmcp/tarkovmcp/internal/server/handlers"
)

// Admin signal endpoint limits, per client.
const (
	adminRatePerMinute = 10
	adminRateBurst     = 5
)

// HandleError writes err as a JSON error envelope.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}

func (s *Server) registerRoutes() {
	s.router.Get("/health", handlers.HealthHandler)
	s.router.Get("/health/live", handlers.LivenessHandler)
	s.router.Get("/health/ready", handlers.ReadinessHandler)
	s.router.Get("/version", handlers.VersionHandler)
	s.router.Get("/ratelimit", handlers.RateLimitHandler(s.limiter))
	s.router.Get("/metrics", s.metricsHandler)

	if s.adminToken != "" {
		s.registerAdminEndpoint()
	}
}

// registerAdminEndpoint exposes POST /admin/signal, which lets an operator
// trigger the same reload or shutdown handlers as SIGHUP and SIGTERM.
func (s *Server) registerAdminEndpoint() {
	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.adminToken,
		RateLimit: adminRatePerMinute,
		RateBurst: adminRateBurst,
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger := observability.ServerLogger; logger != nil {
		logger.Warn("Admin signal endpoint enabled; keep the sidecar off public interfaces",
			zap.String("path", "/admin/signal"),
			zap.Int("rate_per_minute", adminRatePerMinute),
			zap.Int("burst", adminRateBurst))
	}
}
