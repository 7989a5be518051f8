package metrics

import (
	"time"

	"github.com/tarkovmcp/tarkovmcp/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Upstream GraphQL metrics
	UpstreamQueriesTotal   = "tarkov_upstream_queries_total"
	UpstreamQueryDuration  = "tarkov_upstream_query_duration_ms"
	RateLimitWaitsTotal    = "tarkov_rate_limit_waits_total"
	RateLimitWaitDuration  = "tarkov_rate_limit_wait_ms"
	ResponseCacheLookups   = "tarkov_response_cache_lookups_total"
	ToolCallsTotal         = "mcp_tool_calls_total"
	ToolCallDuration       = "mcp_tool_call_duration_ms"
	RateLimitWindowInUse   = "tarkov_rate_limit_window_in_use"
	HealthCheckTotal       = "app_health_check_total"
	HealthCheckDuration    = "app_health_check_duration_ms"
	ServerStartTime        = "app_server_start_time_seconds"
	ServerUptime           = "app_server_uptime_seconds"
)

// RecordUpstreamQuery records one gateway episode. An empty kind is a success.
func RecordUpstreamQuery(operation string, kind string, duration time.Duration) {
	status := "success"
	if kind != "" {
		status = kind
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			UpstreamQueriesTotal,
			1,
			map[string]string{
				"operation": operation,
				"status":    status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			UpstreamQueryDuration,
			duration,
			map[string]string{
				"operation": operation,
			},
		)
	}
}

// RecordRateLimitWait records a caller being held back by the limiter.
func RecordRateLimitWait(wait time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(RateLimitWaitsTotal, 1, nil)
		_ = observability.TelemetrySystem.Histogram(RateLimitWaitDuration, wait, nil)
	}
}

// SetRateLimitWindowInUse reports how many slots of the window are taken.
func SetRateLimitWindowInUse(count int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(RateLimitWindowInUse, float64(count), nil)
	}
}

// RecordCacheLookup records a response cache hit or miss.
func RecordCacheLookup(operation string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ResponseCacheLookups,
			1,
			map[string]string{
				"operation": operation,
				"result":    result,
			},
		)
	}
}

// RecordToolCall records one MCP tool invocation.
func RecordToolCall(tool string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ToolCallsTotal,
			1,
			map[string]string{
				"tool":   tool,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			ToolCallDuration,
			duration,
			map[string]string{
				"tool": tool,
			},
		)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}

// SetServerUptime records the server uptime in seconds
func SetServerUptime(seconds int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerUptime,
			float64(seconds),
			nil,
		)
	}
}
