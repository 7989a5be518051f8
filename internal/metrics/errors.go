package metrics

import (
	"strconv"

	"github.com/tarkovmcp/tarkovmcp/internal/observability"
)

// Error metric names.
const (
	ErrorsTotal      = "errors_total"
	PanicsTotal      = "panics_total"
	ErrorsByRoute    = "errors_by_route"
	ToolErrorsByCode = "tool_errors_total"
)

// Panic sources.
const (
	PanicSourceHTTP = "http"
	PanicSourceTool = "tool"
)

// RecordError counts an error envelope written to an HTTP caller.
func RecordError(errorCode string, httpStatus int) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(ErrorsTotal, 1, map[string]string{
		"error_code":  errorCode,
		"http_status": strconv.Itoa(httpStatus),
	})
}

// RecordRouteError counts errors per route pattern. Unmatched paths share
// one label so arbitrary URLs cannot grow the label set.
func RecordRouteError(route, errorCode string) {
	if observability.TelemetrySystem == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	_ = observability.TelemetrySystem.Counter(ErrorsByRoute, 1, map[string]string{
		"route":      route,
		"error_code": errorCode,
	})
}

// RecordToolError counts failed tool calls by envelope code.
func RecordToolError(tool, errorCode string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(ToolErrorsByCode, 1, map[string]string{
		"tool":       tool,
		"error_code": errorCode,
	})
}

// RecordPanic counts a recovered panic.
func RecordPanic(source string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(PanicsTotal, 1, map[string]string{"source": source})
}
