// Package tarkov is the typed client for the tarkov.dev GraphQL API. Each call
// runs one gateway episode, so sessions never outlive a tool invocation, while
// every episode waits on the same process-wide rate limiter.
package tarkov

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tarkovmcp/tarkovmcp/internal/config"
	"github.com/tarkovmcp/tarkovmcp/internal/core/engine"
	"github.com/tarkovmcp/tarkovmcp/internal/core/gateway"
	"github.com/tarkovmcp/tarkovmcp/internal/core/store"
	"github.com/tarkovmcp/tarkovmcp/internal/metrics"
)

// ResponseStore caches upstream responses. *store.Store satisfies it.
type ResponseStore interface {
	GetCachedResponse(ctx context.Context, key string) (*store.CachedResponse, error)
	SetCachedResponse(ctx context.Context, key, operation string, vars map[string]any, data map[string]any, ttl time.Duration) error
}

// CachePolicy maps cache classes to TTLs.
type CachePolicy struct {
	ItemsTTL  time.Duration
	PricesTTL time.Duration
	StaticTTL time.Duration
}

// TTL returns the lifetime for a class; zero disables caching.
func (p CachePolicy) TTL(class CacheClass) time.Duration {
	switch class {
	case CacheItems:
		return p.ItemsTTL
	case CachePrices:
		return p.PricesTTL
	case CacheStatic:
		return p.StaticTTL
	default:
		return 0
	}
}

// Client runs named queries against the upstream.
type Client struct {
	// Gateway is the template every per-call gateway is built from.
	Gateway     gateway.Options
	Limiter     *engine.RateLimiter
	Retry       config.RetryConfig
	Store       ResponseStore
	CachePolicy CachePolicy
	UseCache    bool
	Logger      gateway.Logger
}

// NewClient builds a client from configuration. The store may be nil.
func NewClient(cfg *config.Config, logger gateway.Logger, responses ResponseStore) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("tarkov client requires configuration")
	}

	limiter, err := engine.NewRateLimiter(cfg.RateLimit.Limit())
	if err != nil {
		return nil, &gateway.Error{Kind: gateway.KindConfiguration, Operation: "client", Err: err}
	}
	limiter.OnWait = func(wait time.Duration) {
		metrics.RecordRateLimitWait(wait)
		if logger != nil {
			logger.Debug("rate limit reached, waiting", zap.Duration("wait", wait))
		}
	}

	opts := gateway.Options{
		Endpoint:  cfg.API.URL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
		Limiter:   limiter,
		Logger:    logger,
	}
	if cfg.API.SharedSession {
		opts.HTTPClient = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}

	// validate once up front so tool calls never see a configuration error
	if _, err := gateway.New(opts); err != nil {
		return nil, err
	}

	return &Client{
		Gateway: opts,
		Limiter: limiter,
		Retry:   cfg.Retry,
		Store:   responses,
		CachePolicy: CachePolicy{
			ItemsTTL:  cfg.Cache.ItemsTTL,
			PricesTTL: cfg.Cache.PricesTTL,
			StaticTTL: cfg.Cache.StaticTTL,
		},
		UseCache: cfg.Cache.Enabled && responses != nil,
		Logger:   logger,
	}, nil
}

// Run executes a query inside a fresh gateway episode and returns the
// decoded data object.
func (c *Client) Run(ctx context.Context, q Query, vars map[string]any) (map[string]any, error) {
	if c == nil {
		return nil, errors.New("tarkov client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ttl := c.CachePolicy.TTL(q.Class)
	cacheKey := ""
	if c.UseCache && c.Store != nil && ttl > 0 {
		if key, err := store.CacheKey(q.Document, vars); err == nil {
			cacheKey = key
			cached, err := c.Store.GetCachedResponse(ctx, key)
			if err != nil {
				c.logger().Debug("cache lookup failed", zap.String("operation", q.Name), zap.Error(err))
			} else if cached != nil {
				metrics.RecordCacheLookup(q.Name, true)
				return cached.Data, nil
			}
			metrics.RecordCacheLookup(q.Name, false)
		}
	}

	opts := c.Gateway
	if opts.Limiter == nil {
		opts.Limiter = c.Limiter
	}
	gw, err := gateway.New(opts)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	start := time.Now()
	err = gateway.With(ctx, gw, func(g *gateway.Gateway) error {
		var exec gateway.Executor = g
		if c.Retry.MaxAttempts > 1 {
			exec = &gateway.Retrying{
				Next:        g,
				MaxAttempts: c.Retry.MaxAttempts,
				BaseDelay:   c.Retry.BaseDelay,
				MaxDelay:    c.Retry.MaxDelay,
			}
		}
		var runErr error
		data, runErr = exec.Execute(ctx, q.Document, vars)
		return runErr
	})
	metrics.RecordUpstreamQuery(q.Name, queryOutcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	if cacheKey != "" {
		if err := c.Store.SetCachedResponse(ctx, cacheKey, q.Name, vars, data, ttl); err != nil {
			c.logger().Debug("cache write failed", zap.String("operation", q.Name), zap.Error(err))
		}
	}
	return data, nil
}

// queryOutcome labels a finished query for metrics. Only a nil error is
// reported as success.
func queryOutcome(err error) string {
	if err == nil {
		return ""
	}
	if kind := gateway.KindOf(err); kind != "" {
		return string(kind)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return string(gateway.KindCancelled)
	}
	return "error"
}

// list runs q and returns its top-level field as a slice of objects.
func (c *Client) list(ctx context.Context, q Query, vars map[string]any) ([]map[string]any, error) {
	data, err := c.Run(ctx, q, vars)
	if err != nil {
		return nil, err
	}
	return Objects(data[q.Field]), nil
}

// object runs q and returns its top-level field as one object, nil when null.
func (c *Client) object(ctx context.Context, q Query, vars map[string]any) (map[string]any, error) {
	data, err := c.Run(ctx, q, vars)
	if err != nil {
		return nil, err
	}
	obj, _ := data[q.Field].(map[string]any)
	return obj, nil
}

func (c *Client) logger() gateway.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Objects converts a decoded JSON array into its object elements.
func Objects(value any) []map[string]any {
	items, _ := value.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// ErrNotFound is returned when a lookup by name or id matches nothing.
var ErrNotFound = errors.New("not found")

func notFound(kind, key string) error {
	return fmt.Errorf("%s %q: %w", kind, key, ErrNotFound)
}
