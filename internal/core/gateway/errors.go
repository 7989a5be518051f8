package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies gateway failures.
type Kind string

const (
	KindNotInitialized Kind = "not_initialized"
	KindTransport      Kind = "transport_failure"
	KindUpstream       Kind = "upstream_failure"
	KindConfiguration  Kind = "configuration_error"
	// KindCancelled means the caller's context ended before the query was sent.
	KindCancelled      Kind = "cancelled"
)

// Sentinels matched by errors.Is against *Error values of the same kind.
var (
	ErrNotInitialized = errors.New("gateway is not open")
	ErrTransport      = errors.New("transport failure")
	ErrUpstream       = errors.New("upstream failure")
	ErrConfiguration  = errors.New("invalid gateway configuration")
	ErrAlreadyOpen    = errors.New("gateway is already open")
	ErrCancelled      = errors.New("cancelled while waiting for rate limit")
)

// Error carries the query and variables that were attempted when a call failed.
type Error struct {
	Kind      Kind
	Operation string
	Query     string
	Variables map[string]any
	// StatusCode is the upstream HTTP status when one was received.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Operation != "" {
		b.WriteString(" (")
		b.WriteString(e.Operation)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers match on the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotInitialized:
		return e.Kind == KindNotInitialized
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrUpstream:
		return e.Kind == KindUpstream
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	case ErrCancelled:
		return e.Kind == KindCancelled
	}
	return false
}

// KindOf returns the gateway kind of err, or "" when err did not come from a gateway.
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return ""
}

// GraphQLError is one entry of a GraphQL response "errors" array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// QueryErrors is the error reported when the upstream returned GraphQL errors.
type QueryErrors []GraphQLError

func (q QueryErrors) Error() string {
	if len(q) == 0 {
		return "upstream reported errors"
	}
	msgs := make([]string, 0, len(q))
	for _, item := range q {
		msg := strings.TrimSpace(item.Message)
		if msg == "" {
			msg = "unknown error"
		}
		msgs = append(msgs, msg)
	}
	return strings.Join(msgs, "; ")
}

// StatusError reports a non-2xx HTTP response from the upstream.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// MalformedResponseError reports a response body that is not a GraphQL payload.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return "malformed response: " + e.Err.Error()
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func classify(err error) Kind {
	var (
		status    *StatusError
		malformed *MalformedResponseError
		query     QueryErrors
	)
	switch {
	case errors.As(err, &status), errors.As(err, &malformed), errors.As(err, &query):
		return KindUpstream
	default:
		return KindTransport
	}
}
