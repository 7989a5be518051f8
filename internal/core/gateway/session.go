package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"unicode/utf8"
)

const (
	maxResponseBytes = 32 << 20
	maxStatusMessage = 512
)

// ErrSessionClosed is returned by a session used after Close.
var ErrSessionClosed = errors.New("session is closed")

// Request is one GraphQL document plus its variables.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Response is the decoded GraphQL envelope.
type Response struct {
	Data   map[string]any `json:"data"`
	Errors QueryErrors    `json:"errors,omitempty"`
}

// Session is the transport handle owned by an open gateway.
type Session interface {
	Do(ctx context.Context, req Request) (*Response, error)
	Close() error
}

// SessionConfig binds a session to its endpoint.
type SessionConfig struct {
	Endpoint string
	Headers  http.Header
	// Client is shared when set; otherwise the session builds and owns one.
	Client *http.Client
}

// SessionFactory builds a session when a gateway opens.
type SessionFactory func(ctx context.Context, cfg SessionConfig) (Session, error)

// HTTPSession posts GraphQL documents as JSON over HTTP.
type HTTPSession struct {
	endpoint string
	headers  http.Header
	client   *http.Client
	owned    bool

	mu     sync.Mutex
	closed bool
}

// NewHTTPSession is the default SessionFactory.
func NewHTTPSession(_ context.Context, cfg SessionConfig) (Session, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("session endpoint is required")
	}

	client := cfg.Client
	owned := false
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		client = &http.Client{Transport: transport}
		owned = true
	}

	return &HTTPSession{
		endpoint: endpoint,
		headers:  cfg.Headers.Clone(),
		client:   client,
		owned:    owned,
	}, nil
}

// Do sends the request and decodes the GraphQL envelope.
func (s *HTTPSession) Do(ctx context.Context, req Request) (*Response, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrSessionClosed
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var decoded Response
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := strings.TrimSpace(string(body))
		if decodeErr == nil && len(decoded.Errors) > 0 {
			message = decoded.Errors.Error()
		}
		message = truncateUTF8(message, maxStatusMessage)
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: message}
	}

	if decodeErr != nil {
		return nil, &MalformedResponseError{Err: decodeErr}
	}

	return &decoded, nil
}

// Close releases idle connections held by an owned client.
func (s *HTTPSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.owned {
		s.client.CloseIdleConnections()
	}
	return nil
}


// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
