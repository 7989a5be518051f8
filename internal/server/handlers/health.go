package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/tarkovmcp/tarkovmcp/internal/metrics"
)

// Check and overall statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusTimeout   = "timeout"
)

// HealthResponse is the aggregate /health payload.
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProbeResponse is the /health/live and /health/ready payload.
type ProbeResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthChecker is anything that can report its own health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// HealthCheckerFunc adapts a function to HealthChecker.
type HealthCheckerFunc func(ctx context.Context) error

func (f HealthCheckerFunc) CheckHealth(ctx context.Context) error { return f(ctx) }

// probe describes one health endpoint.
type probe struct {
	name             string
	failMessage      string
	includeReadiness bool
	timeout          time.Duration
}

var (
	aggregateProbe = probe{name: "", failMessage: "aggregate health check failed", includeReadiness: true, timeout: 5 * time.Second}
	livenessProbe  = probe{name: "live", failMessage: "liveness probe failed", timeout: 2 * time.Second}
	readinessProbe = probe{name: "ready", failMessage: "readiness probe failed", includeReadiness: true, timeout: 5 * time.Second}
)

// HealthManager holds the registered checkers. Liveness runs process-local
// checkers only; readiness and the aggregate endpoint add readiness
// checkers such as upstream API reachability.
type HealthManager struct {
	mu        sync.RWMutex
	checkers  map[string]HealthChecker
	readiness map[string]HealthChecker
	version   string
}

// NewHealthManager creates a manager reporting version on /health.
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		checkers:  make(map[string]HealthChecker),
		readiness: make(map[string]HealthChecker),
		version:   version,
	}
}

// RegisterChecker registers a process-local checker used by every probe.
func (hm *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checkers[name] = checker
}

// RegisterReadinessChecker registers a checker that only gates readiness.
func (hm *HealthManager) RegisterReadinessChecker(name string, checker HealthChecker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.readiness[name] = checker
}

func (hm *HealthManager) selectCheckers(includeReadiness bool) map[string]HealthChecker {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	selected := make(map[string]HealthChecker, len(hm.checkers)+len(hm.readiness))
	for name, checker := range hm.checkers {
		selected[name] = checker
	}
	if includeReadiness {
		for name, checker := range hm.readiness {
			selected[name] = checker
		}
	}
	return selected
}

// runHealthChecks runs the selected checkers concurrently under ctx.
func (hm *HealthManager) runHealthChecks(ctx context.Context, includeReadiness bool) map[string]string {
	selected := hm.selectCheckers(includeReadiness)

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]string, len(selected))
	)
	for name, checker := range selected {
		wg.Add(1)
		go func(name string, checker HealthChecker) {
			defer wg.Done()
			status := runCheck(ctx, name, checker)
			mu.Lock()
			checks[name] = status
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()
	return checks
}

func runCheck(ctx context.Context, name string, checker HealthChecker) string {
	if ctx.Err() != nil {
		return StatusTimeout
	}

	start := time.Now()
	err := checker.CheckHealth(ctx)
	metrics.RecordHealthCheck(name, err == nil, time.Since(start))

	switch {
	case err == nil:
		return StatusHealthy
	case ctx.Err() != nil:
		return StatusTimeout
	default:
		return StatusUnhealthy
	}
}

// determineOverallStatus is unhealthy if any check failed and degraded if
// any timed out.
func (hm *HealthManager) determineOverallStatus(checks map[string]string) string {
	overall := StatusHealthy
	for _, status := range checks {
		switch status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded, StatusTimeout:
			overall = StatusDegraded
		}
	}
	return overall
}

func (hm *HealthManager) serve(w http.ResponseWriter, r *http.Request, p probe) {
	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	checks := hm.runHealthChecks(ctx, p.includeReadiness)
	status := hm.determineOverallStatus(checks)
	if status == StatusUnhealthy {
		envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", p.failMessage)
		respondWithError(w, r, enrichHealthEnvelope(envelope, p.name, status, checks))
		return
	}

	var body any = ProbeResponse{Status: status, Timestamp: time.Now().UTC()}
	if p.name == "" {
		body = HealthResponse{
			Status:    status,
			Version:   hm.version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    checks,
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}

// HealthHandler runs every checker and reports each result.
func (hm *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	hm.serve(w, r, aggregateProbe)
}

// LivenessHandler reports whether the process itself is working.
func (hm *HealthManager) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	hm.serve(w, r, livenessProbe)
}

// ReadinessHandler reports whether tool calls can currently succeed.
func (hm *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	hm.serve(w, r, readinessProbe)
}

func enrichHealthEnvelope(envelope *errors.ErrorEnvelope, probeName, status string, checks map[string]string) *errors.ErrorEnvelope {
	if envelope == nil {
		return nil
	}

	details := map[string]interface{}{"status": status}
	contextData := map[string]interface{}{"status": status}
	if len(checks) > 0 {
		details["checks"] = checks
	}
	if probeName != "" {
		details["probe"] = probeName
		contextData["probe"] = probeName
	}
	envelope = envelope.WithDetails(details)

	var failing []string
	for name, result := range checks {
		if result != StatusHealthy {
			failing = append(failing, name)
		}
	}
	if len(failing) > 0 {
		sort.Strings(failing)
		contextData["unhealthy_checks"] = failing
	}

	envelope, _ = envelope.WithContext(contextData)
	return envelope
}

var globalHealthManager *HealthManager

// InitHealthManager replaces the process-wide manager used by the route handlers.
func InitHealthManager(version string) {
	globalHealthManager = NewHealthManager(version)
}

// GetHealthManager returns the process-wide manager, or nil before InitHealthManager.
func GetHealthManager() *HealthManager {
	return globalHealthManager
}

func serveGlobal(w http.ResponseWriter, r *http.Request, p probe) {
	if globalHealthManager != nil {
		globalHealthManager.serve(w, r, p)
		return
	}
	probeName := p.name
	if probeName == "" {
		probeName = "aggregate"
	}
	envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "health manager not initialized")
	respondWithError(w, r, enrichHealthEnvelope(envelope, probeName, "unknown", nil))
}

// HealthHandler serves /health from the process-wide manager.
func HealthHandler(w http.ResponseWriter, r *http.Request) { serveGlobal(w, r, aggregateProbe) }

// LivenessHandler serves /health/live from the process-wide manager.
func LivenessHandler(w http.ResponseWriter, r *http.Request) { serveGlobal(w, r, livenessProbe) }

// ReadinessHandler serves /health/ready from the process-wide manager.
func ReadinessHandler(w http.ResponseWriter, r *http.Request) { serveGlobal(w, r, readinessProbe) }
