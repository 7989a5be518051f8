// Package gateway is the single chokepoint for calls to the upstream GraphQL
// endpoint. Every call waits on a sliding-window rate limiter, runs with a
// per-call timeout, and fails with a *Error that records what was attempted.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tarkovmcp/tarkovmcp/internal/core/engine"
)

// DefaultEndpoint is the public tarkov.dev GraphQL API.
const DefaultEndpoint = "https://api.tarkov.dev/graphql"

// DefaultTimeout bounds one network call.
const DefaultTimeout = 30 * time.Second

// Logger is satisfied by *zap.Logger and by the gofulmen logging.Logger.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
}

// Options configures a Gateway.
type Options struct {
	Endpoint  string
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	Limit     engine.RateLimit

	// Limiter overrides the limiter built from Limit. Sharing one limiter
	// across gateways keeps the bound process-wide.
	Limiter *engine.RateLimiter

	// HTTPClient is handed to every session; nil gives each session its own.
	HTTPClient *http.Client
	NewSession SessionFactory
	Logger     Logger
}

// Gateway owns one session and one limiter. States: closed -> open -> closed.
type Gateway struct {
	endpoint   string
	timeout    time.Duration
	headers    http.Header
	limiter    *engine.RateLimiter
	httpClient *http.Client
	newSession SessionFactory
	logger     Logger

	mu      sync.Mutex
	session Session
}

// New validates options and returns a closed gateway.
func New(opts Options) (*Gateway, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, configError(fmt.Errorf("invalid endpoint %q", endpoint))
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if timeout < 0 {
		return nil, configError(fmt.Errorf("timeout must be positive, got %s", timeout))
	}

	limiter := opts.Limiter
	if limiter == nil {
		limit := opts.Limit
		if limit == (engine.RateLimit{}) {
			limit = engine.DefaultLimit
		}
		limiter, err = engine.NewRateLimiter(limit)
		if err != nil {
			return nil, configError(err)
		}
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	if ua := strings.TrimSpace(opts.UserAgent); ua != "" {
		headers.Set("User-Agent", ua)
	}
	for key, value := range opts.Headers {
		headers.Set(key, value)
	}

	newSession := opts.NewSession
	if newSession == nil {
		newSession = NewHTTPSession
	}

	var logger Logger = zap.NewNop()
	if opts.Logger != nil {
		logger = opts.Logger
	}

	return &Gateway{
		endpoint:   endpoint,
		timeout:    timeout,
		headers:    headers,
		limiter:    limiter,
		httpClient: opts.HTTPClient,
		newSession: newSession,
		logger:     logger,
	}, nil
}

// Open creates the session. Opening an open gateway is an error.
func (g *Gateway) Open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session != nil {
		return ErrAlreadyOpen
	}

	session, err := g.newSession(ctx, SessionConfig{
		Endpoint: g.endpoint,
		Headers:  g.headers.Clone(),
		Client:   g.httpClient,
	})
	if err != nil {
		return &Error{Kind: KindTransport, Err: fmt.Errorf("open session: %w", err)}
	}
	g.session = session
	return nil
}

// Close releases the session. It is safe to call on a closed gateway.
func (g *Gateway) Close() error {
	g.mu.Lock()
	session := g.session
	g.session = nil
	g.mu.Unlock()

	if session == nil {
		return nil
	}
	return session.Close()
}

// IsOpen reports whether the gateway currently holds a session.
func (g *Gateway) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session != nil
}

// Endpoint returns the upstream URL.
func (g *Gateway) Endpoint() string { return g.endpoint }

// Limiter returns the limiter guarding this gateway.
func (g *Gateway) Limiter() *engine.RateLimiter { return g.limiter }

// Execute waits for a rate-limit slot, then runs query with vars and returns
// the response data as received. Slots are not refunded on failure.
func (g *Gateway) Execute(ctx context.Context, query string, vars map[string]any) (map[string]any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	operation := OperationName(query)

	g.mu.Lock()
	session := g.session
	g.mu.Unlock()
	if session == nil {
		return nil, &Error{Kind: KindNotInitialized, Operation: operation, Query: query, Variables: vars, Err: ErrNotInitialized}
	}

	if err := g.limiter.Acquire(ctx); err != nil {
		g.logger.Error("GraphQL query abandoned waiting for rate limit",
			zap.String("operation", operation),
			zap.String("kind", string(KindCancelled)),
			zap.Any("variables", vars),
			zap.String("query", query),
			zap.Error(err))
		return nil, &Error{Kind: KindCancelled, Operation: operation, Query: query, Variables: vars, Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := session.Do(callCtx, Request{Query: query, Variables: vars, OperationName: operation})
	if err == nil && resp != nil && len(resp.Errors) > 0 {
		err = resp.Errors
	}
	if err == nil && resp == nil {
		err = &MalformedResponseError{Err: errors.New("empty response")}
	}

	if err != nil {
		gwErr := &Error{
			Kind:      classify(err),
			Operation: operation,
			Query:     query,
			Variables: vars,
			Err:       err,
		}
		var status *StatusError
		if errors.As(err, &status) {
			gwErr.StatusCode = status.StatusCode
		}
		g.logger.Error("GraphQL query failed",
			zap.String("operation", operation),
			zap.String("kind", string(gwErr.Kind)),
			zap.Any("variables", vars),
			zap.String("query", query),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, gwErr
	}

	g.logger.Debug("GraphQL query executed",
		zap.String("operation", operation),
		zap.Any("variables", vars),
		zap.Duration("elapsed", time.Since(start)))
	return resp.Data, nil
}

// With opens g, runs fn, and closes g on every exit path.
func With(ctx context.Context, g *Gateway, fn func(*Gateway) error) (err error) {
	if err := g.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if closeErr := g.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close gateway: %w", closeErr)
		}
	}()
	return fn(g)
}

var operationPattern = regexp.MustCompile(`^\s*(?:query|mutation|subscription)\s+([_A-Za-z][_0-9A-Za-z]*)`)

// OperationName returns the name of the first named operation in query.
func OperationName(query string) string {
	match := operationPattern.FindStringSubmatch(query)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

func configError(err error) error {
	return &Error{Kind: KindConfiguration, Err: err}
}
