// Package config provides centralized configuration management for tarkov-mcp.
// Defaults are layered under an optional YAML file and environment variables,
// then decoded into a typed Config that callers pass into constructors.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// DefaultAppName names the XDG config and data directories.
	DefaultAppName = "tarkov-mcp"
	// DefaultEnvPrefix prefixes every environment override.
	DefaultEnvPrefix = "TARKOV_MCP"
	// DefaultUserAgent identifies the server to the upstream.
	DefaultUserAgent = "TarkovMCPServer/0.1.0"
)

// LoadOptions selects where configuration is read from.
type LoadOptions struct {
	// ConfigFile is an explicit YAML file. Missing explicit files are an error.
	ConfigFile string
	// AppName selects the XDG config directory searched for config.yaml.
	AppName   string
	EnvPrefix string
	// Overrides are applied last, keyed by dotted config path.
	Overrides map[string]any
}

// legacyEnv maps the unprefixed variable names of earlier releases.
var legacyEnv = []struct {
	name string
	key  string
	kind string
}{
	{name: "TARKOV_API_URL", key: "api.url", kind: "string"},
	{name: "MAX_REQUESTS_PER_MINUTE", key: "rate_limit.max_requests", kind: "int"},
	{name: "REQUEST_TIMEOUT", key: "api.timeout", kind: "seconds"},
	{name: "LOG_LEVEL", key: "logging.level", kind: "lower"},
}

// Load reads configuration following the three-layer pattern and validates it.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	appName := strings.TrimSpace(opts.AppName)
	if appName == "" {
		appName = DefaultAppName
	}
	prefix := strings.TrimSuffix(strings.TrimSpace(opts.EnvPrefix), "_")
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	v := viper.New()
	SetDefaults(v, appName)

	if err := readConfigFile(v, opts.ConfigFile, appName); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := applyLegacyEnv(v, prefix); err != nil {
		return nil, err
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	cfg, err := Decode(v.AllSettings())
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath(appName)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDefaults registers every known key so env overrides resolve.
func SetDefaults(v *viper.Viper, appName string) {
	v.SetDefault("api.url", "https://api.tarkov.dev/graphql")
	v.SetDefault("api.user_agent", DefaultUserAgent)
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.shared_session", false)

	v.SetDefault("rate_limit.max_requests", 60)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("retry.max_attempts", 1)
	v.SetDefault("retry.base_delay", "250ms")
	v.SetDefault("retry.max_delay", "5s")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.items_ttl", "1h")
	v.SetDefault("cache.prices_ttl", "5m")
	v.SetDefault("cache.static_ttl", "6h")

	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", DefaultStorePath(appName))
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	v.SetDefault("server.enabled", false)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.admin_token", "")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)
}

// Decode converts a settings map into a Config.
func Decode(settings map[string]any) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, explicit string, appName string) error {
	if path := strings.TrimSpace(explicit); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir := gfconfig.GetAppConfigDir(appName); dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

func applyLegacyEnv(v *viper.Viper, prefix string) error {
	for _, item := range legacyEnv {
		raw := strings.TrimSpace(os.Getenv(item.name))
		if raw == "" {
			continue
		}
		prefixed := prefix + "_" + strings.ToUpper(strings.ReplaceAll(item.key, ".", "_"))
		if strings.TrimSpace(os.Getenv(prefixed)) != "" {
			continue
		}

		switch item.kind {
		case "int":
			value, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", item.name, err)
			}
			v.Set(item.key, value)
		case "seconds":
			seconds, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", item.name, err)
			}
			v.Set(item.key, time.Duration(seconds)*time.Second)
		case "lower":
			v.Set(item.key, strings.ToLower(raw))
		default:
			v.Set(item.key, raw)
		}
	}
	return nil
}

// DefaultStorePath places the response cache under the XDG data dir.
func DefaultStorePath(appName string) string {
	if strings.TrimSpace(appName) == "" {
		appName = DefaultAppName
	}
	dataDir := gfconfig.GetAppDataDir(appName)
	if strings.TrimSpace(dataDir) == "" {
		return "./" + appName + ".db"
	}
	return filepath.Join(dataDir, appName+".db")
}

// DefaultConfigPath is the config.yaml searched in the XDG config dir.
func DefaultConfigPath(appName string) string {
	if strings.TrimSpace(appName) == "" {
		appName = DefaultAppName
	}
	dir := gfconfig.GetAppConfigDir(appName)
	if strings.TrimSpace(dir) == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}
