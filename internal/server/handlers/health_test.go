package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type envelopeBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestHealthHandlerReportsHealthyChecks(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("app_identity", HealthCheckerFunc(func(context.Context) error { return nil }))
	manager.RegisterReadinessChecker("upstream", HealthCheckerFunc(func(context.Context) error { return nil }))

	rec := httptest.NewRecorder()
	manager.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "healthy", resp.Status)
	require.Equal(t, "1.2.3", resp.Version)
	require.Equal(t, map[string]string{"app_identity": "healthy", "upstream": "healthy"}, resp.Checks)
}

func TestReadinessFailsWhenUpstreamUnreachable(t *testing.T) {
	manager := NewHealthManager("dev")
	manager.RegisterReadinessChecker("upstream", HealthCheckerFunc(func(context.Context) error {
		return errors.New("dial tcp: connection refused")
	}))

	rec := httptest.NewRecorder()
	manager.ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body envelopeBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	require.Equal(t, "ready", body.Error.Details["probe"])

	checks, ok := body.Error.Details["checks"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "unhealthy", checks["upstream"])
}

func TestLivenessSkipsReadinessCheckers(t *testing.T) {
	var upstreamCalls atomic.Int32
	manager := NewHealthManager("dev")
	manager.RegisterChecker("app_identity", HealthCheckerFunc(func(context.Context) error { return nil }))
	manager.RegisterReadinessChecker("upstream", HealthCheckerFunc(func(context.Context) error {
		upstreamCalls.Add(1)
		return errors.New("down")
	}))

	rec := httptest.NewRecorder()
	manager.LivenessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, upstreamCalls.Load())

	var resp ProbeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "healthy", resp.Status)
}

func TestGlobalHandlersWithoutManager(t *testing.T) {
	previous := globalHealthManager
	globalHealthManager = nil
	t.Cleanup(func() { globalHealthManager = previous })

	rec := httptest.NewRecorder()
	LivenessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDetermineOverallStatusTreatsTimeoutAsDegraded(t *testing.T) {
	manager := NewHealthManager("dev")
	require.Equal(t, "degraded", manager.determineOverallStatus(map[string]string{"upstream": "timeout"}))
	require.Equal(t, "unhealthy", manager.determineOverallStatus(map[string]string{"upstream": "timeout", "store": "unhealthy"}))
	require.Equal(t, "healthy", manager.determineOverallStatus(nil))
}
