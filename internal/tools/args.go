package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	errwrap "github.com/tarkovmcp/tarkovmcp/internal/errors"
)

// ArgumentError reports a tool argument that failed validation.
type ArgumentError struct {
	Message string
}

func (e *ArgumentError) Error() string { return e.Message }

func invalidArgument(format string, args ...any) error {
	return &ArgumentError{Message: fmt.Sprintf(format, args...)}
}

// actionError prefixes failures with what the tool was doing.
type actionError struct {
	action string
	err    error
}

func (e *actionError) Error() string { return e.action + ": " + e.err.Error() }
func (e *actionError) Unwrap() error { return e.err }

func failed(action string, err error) error {
	return &actionError{action: action, err: err}
}

func errorText(err error) string {
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return "Error: " + argErr.Message
	}
	return "Error " + err.Error()
}

// errorCode classifies a failed call with the envelope code used elsewhere.
func errorCode(err error) string {
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return errwrap.CodeInvalidInput
	}
	return errwrap.EnsureEnvelope(err).Code
}

func requiredString(req mcp.CallToolRequest, key string) (string, error) {
	value := strings.TrimSpace(req.GetString(key, ""))
	if value == "" {
		return "", invalidArgument("'%s' is required", key)
	}
	return value, nil
}

func optionalString(req mcp.CallToolRequest, key string) string {
	return strings.TrimSpace(req.GetString(key, ""))
}

// intArg reads an integer argument given as a JSON number or a string.
func intArg(req mcp.CallToolRequest, key string, def int) (int, error) {
	switch v := req.GetArguments()[key].(type) {
	case nil:
		return def, nil
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, invalidArgument("'%s' must be an integer", key)
		}
		return int(n), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return def, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, invalidArgument("'%s' must be an integer", key)
		}
		return n, nil
	default:
		return 0, invalidArgument("'%s' must be an integer", key)
	}
}

// boundedInt reads an integer argument, applying def when absent and
// rejecting values outside [lo, hi].
func boundedInt(req mcp.CallToolRequest, key string, def, lo, hi int) (int, error) {
	value, err := intArg(req, key, def)
	if err != nil {
		return 0, err
	}
	if value < lo || value > hi {
		return 0, invalidArgument("'%s' must be between %d and %d", key, lo, hi)
	}
	return value, nil
}

// stringList accepts a JSON array of strings or a comma separated string.
func stringList(req mcp.CallToolRequest, key string) []string {
	var raw []string
	switch v := req.GetArguments()[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		raw = v
	case string:
		raw = strings.Split(v, ",")
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
