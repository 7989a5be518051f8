package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tarkovmcp/tarkovmcp/internal/core/engine"
)

// ErrInvalid marks configuration that cannot be used to build a gateway.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the complete application configuration.
// Layer 1: built-in defaults
// Layer 2: config file (--config or the XDG app config dir)
// Layer 3: environment variables and runtime overrides
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`
}

// APIConfig describes the upstream GraphQL endpoint.
type APIConfig struct {
	URL       string        `mapstructure:"url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// SharedSession reuses one HTTP connection pool across tool calls
	// instead of building a fresh session per call.
	SharedSession bool `mapstructure:"shared_session"`
}

// RateLimitConfig bounds outbound calls to the upstream.
type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// Limit converts the config into a limiter window.
func (r RateLimitConfig) Limit() engine.RateLimit {
	return engine.RateLimit{RequestsPerWindow: r.MaxRequests, WindowDuration: r.Window}
}

// MaxRetryAttempts bounds retry.max_attempts.
const MaxRetryAttempts = 10

// RetryConfig controls the optional backoff layer above the gateway.
// MaxAttempts of 1 disables retries and may not exceed MaxRetryAttempts.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// CacheConfig contains response cache TTL configuration.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	ItemsTTL  time.Duration `mapstructure:"items_ttl"`
	PricesTTL time.Duration `mapstructure:"prices_ttl"`
	StaticTTL time.Duration `mapstructure:"static_ttl"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`
	// Valid values: simple, structured
	Profile string `mapstructure:"profile"`
}

// ServerConfig configures the optional HTTP health sidecar.
type ServerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// AdminToken enables the bearer-authenticated /admin/signal endpoint.
	AdminToken string `mapstructure:"admin_token"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Validate rejects settings the gateway cannot run with.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalid)
	}

	var problems []string

	endpoint := strings.TrimSpace(c.API.URL)
	if parsed, err := url.Parse(endpoint); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		problems = append(problems, fmt.Sprintf("api.url %q is not an absolute URL", endpoint))
	}
	if c.API.Timeout <= 0 {
		problems = append(problems, "api.timeout must be positive")
	}
	if err := c.RateLimit.Limit().Validate(); err != nil {
		problems = append(problems, "rate_limit.max_requests and rate_limit.window must be positive")
	}
	if c.Retry.MaxAttempts < 1 || c.Retry.MaxAttempts > MaxRetryAttempts {
		problems = append(problems, fmt.Sprintf("retry.max_attempts must be between 1 and %d", MaxRetryAttempts))
	}
	if c.Cache.Enabled && (c.Cache.ItemsTTL < 0 || c.Cache.PricesTTL < 0 || c.Cache.StaticTTL < 0) {
		problems = append(problems, "cache TTLs must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
