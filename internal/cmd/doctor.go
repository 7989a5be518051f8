package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tarkovmcp/tarkovmcp/internal/config"
	"github.com/tarkovmcp/tarkovmcp/internal/core/store"
	"github.com/tarkovmcp/tarkovmcp/internal/observability"
)

var doctorOffline bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Run diagnostic checks on the installation, configuration, cache and upstream API.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := observability.CLILogger
		bannerName := identityName() + " doctor"
		log.Info("=== " + bannerName + " ===")
		log.Info("")
		log.Info("Running diagnostic checks...")
		log.Info("")

		allChecks := true
		totalChecks := 8

		// Check 1: Go version
		goVersion := runtime.Version()
		if goVersion >= "go1.23" {
			log.Info(fmt.Sprintf("[1/%d] Checking Go version... ✅ %s", totalChecks, goVersion), zap.String("go_version", goVersion))
		} else {
			log.Warn(fmt.Sprintf("[1/%d] Checking Go version... ⚠️  %s (recommended: go1.23+)", totalChecks, goVersion), zap.String("go_version", goVersion))
			allChecks = false
		}

		// Check 2: Crucible and Gofulmen
		version := crucible.GetVersion()
		if version.Crucible != "" && version.Gofulmen != "" {
			log.Info(fmt.Sprintf("[2/%d] Checking Crucible/Gofulmen... ✅ v%s / v%s", totalChecks, version.Crucible, version.Gofulmen),
				zap.String("crucible_version", version.Crucible),
				zap.String("gofulmen_version", version.Gofulmen))
		} else {
			log.Error(fmt.Sprintf("[2/%d] Checking Crucible/Gofulmen... ❌ version metadata unavailable", totalChecks))
			allChecks = false
		}

		// Check 3: Config file
		configPath := resolvedConfigPath()
		switch {
		case configPath == "":
			log.Warn(fmt.Sprintf("[3/%d] Checking config file... ⚠️  cannot resolve config directory", totalChecks))
		case fileExists(configPath):
			log.Info(fmt.Sprintf("[3/%d] Checking config file... ✅ %s", totalChecks, configPath), zap.String("config_file", configPath))
		default:
			log.Info(fmt.Sprintf("[3/%d] Checking config file... ✅ none (defaults; run 'doctor init' to create %s)", totalChecks, configPath))
		}

		// Check 4: Configuration validity
		cfg, cfgErr := loadConfig(ctx, nil)
		if cfgErr != nil {
			log.Error(fmt.Sprintf("[4/%d] Validating configuration... ❌ %v", totalChecks, cfgErr), zap.Error(cfgErr))
			allChecks = false
		} else {
			log.Info(fmt.Sprintf("[4/%d] Validating configuration... ✅ %s", totalChecks, cfg.API.URL), zap.String("api_url", cfg.API.URL))
		}

		// Check 5: Environment
		log.Info(fmt.Sprintf("[5/%d] Checking environment... ✅ %s/%s", totalChecks, runtime.GOOS, runtime.GOARCH),
			zap.String("os", runtime.GOOS),
			zap.String("arch", runtime.GOARCH))

		// Check 6: Response cache
		if cfgErr != nil {
			log.Warn(fmt.Sprintf("[6/%d] Checking response cache... ⚠️  skipped (config not loaded)", totalChecks))
		} else if !cfg.Cache.Enabled {
			log.Info(fmt.Sprintf("[6/%d] Checking response cache... ✅ disabled", totalChecks))
		} else if ok := checkCache(ctx, cfg, totalChecks); !ok {
			allChecks = false
		}

		// Check 7: Rate limit
		if cfgErr != nil {
			log.Warn(fmt.Sprintf("[7/%d] Checking rate limit... ⚠️  skipped (config not loaded)", totalChecks))
		} else {
			log.Info(fmt.Sprintf("[7/%d] Checking rate limit... ✅ %d requests per %s", totalChecks, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window),
				zap.Int("max_requests", cfg.RateLimit.MaxRequests),
				zap.Duration("window", cfg.RateLimit.Window))
		}

		// Check 8: Upstream API
		switch {
		case cfgErr != nil:
			log.Warn(fmt.Sprintf("[8/%d] Checking upstream API... ⚠️  skipped (config not loaded)", totalChecks))
		case doctorOffline:
			log.Info(fmt.Sprintf("[8/%d] Checking upstream API... ✅ skipped (--offline)", totalChecks))
		default:
			if ok := checkUpstream(ctx, cfg, totalChecks); !ok {
				allChecks = false
			}
		}

		log.Info("")
		if allChecks {
			log.Info(fmt.Sprintf("✅ All checks passed! Your %s installation is healthy.", identityName()))
		} else {
			log.Warn("⚠️  Some checks failed. Review the output above for details.")
		}
		log.Info("")
		log.Info("=== End Diagnostics ===")
	},
}

func checkCache(ctx context.Context, cfg *config.Config, total int) bool {
	log := observability.CLILogger
	if cfg.Store.URL != "" {
		log.Info(fmt.Sprintf("[6/%d] Checking response cache... ✅ %s (remote)", total, cfg.Store.URL), zap.String("db_url", cfg.Store.URL))
		return true
	}

	absPath, _ := filepath.Abs(cfg.Store.Path)
	db, err := openStore(ctx, cfg)
	if err != nil {
		log.Warn(fmt.Sprintf("[6/%d] Checking response cache... ⚠️  cannot open %s", total, absPath), zap.Error(err))
		return false
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup
	if p := db.Path(); p != "" {
		absPath, _ = filepath.Abs(p)
	}

	schema, err := db.CurrentSchemaVersion(ctx)
	if err != nil {
		log.Warn(fmt.Sprintf("[6/%d] Checking response cache... ⚠️  cannot read schema version", total), zap.Error(err))
		return false
	}

	entries, err := db.ListCachedResponses(ctx, store.CacheQuery{})
	if err != nil {
		log.Warn(fmt.Sprintf("[6/%d] Checking response cache... ⚠️  cannot read entries", total), zap.Error(err))
		return false
	}

	size := "empty"
	if info, statErr := os.Stat(absPath); statErr == nil {
		size = formatFileSize(info.Size())
	}
	newest := "never"
	if len(entries) > 0 {
		newest = formatTimeAgo(entries[0].CachedAt)
	}
	log.Info(fmt.Sprintf("[6/%d] Checking response cache... ✅ %s (%s, schema v%d, %d live entries, newest %s)",
		total, absPath, size, schema, len(entries), newest),
		zap.String("db_path", absPath),
		zap.Int("schema_version", schema),
		zap.Int("entries", len(entries)))
	return true
}

func checkUpstream(ctx context.Context, cfg *config.Config, total int) bool {
	log := observability.CLILogger
	client, closeStore, err := newClient(ctx, cfg, log)
	if err != nil {
		log.Error(fmt.Sprintf("[8/%d] Checking upstream API... ❌ %v", total, err), zap.Error(err))
		return false
	}
	defer closeStore()

	start := time.Now()
	if err := client.Ping(ctx); err != nil {
		log.Error(fmt.Sprintf("[8/%d] Checking upstream API... ❌ %v", total, err), zap.Error(err))
		return false
	}
	latency := time.Since(start)
	log.Info(fmt.Sprintf("[8/%d] Checking upstream API... ✅ reachable (%s)", total, latency.Round(time.Millisecond)),
		zap.Duration("latency", latency))
	return true
}

var (
	doctorInitForce   bool
	doctorResetConfig bool
	doctorResetData   bool
	doctorResetAll    bool
)

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := resolvedConfigPath()
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}

		if _, err := os.Stat(configPath); err == nil && !doctorInitForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		if err := os.WriteFile(configPath, []byte(buildInitConfig(identityName())), 0644); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		observability.CLILogger.Info("Config initialized", zap.String("path", configPath))
		return nil
	},
}

var doctorConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration status and paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := observability.CLILogger
		configPath := resolvedConfigPath()

		log.Info("Configuration:")
		log.Info(fmt.Sprintf("  Config file:   %s (%s)", configPath, existenceStatus(fileExists(configPath))))

		cfg, err := loadConfig(cmd.Context(), nil)
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return nil
		}

		if cfg.Store.URL != "" {
			log.Info(fmt.Sprintf("  Database:      %s (remote)", cfg.Store.URL))
		} else {
			absPath, _ := filepath.Abs(cfg.Store.Path)
			if info, statErr := os.Stat(absPath); statErr == nil {
				log.Info(fmt.Sprintf("  Database:      %s (%s)", absPath, formatFileSize(info.Size())))
			} else if os.IsNotExist(statErr) {
				log.Info(fmt.Sprintf("  Database:      %s (not created yet)", absPath))
			} else {
				log.Warn("Database status error", zap.String("db_path", absPath), zap.Error(statErr))
			}
		}

		prefix := config.DefaultEnvPrefix + "_"
		if appIdentity != nil && appIdentity.EnvPrefix != "" {
			prefix = appIdentity.EnvPrefix
		}
		log.Info("")
		log.Info("Environment:")
		for _, name := range []string{"API_URL", "RATE_LIMIT_MAX_REQUESTS", "CACHE_ENABLED", "STORE_AUTH_TOKEN"} {
			log.Info(fmt.Sprintf("  %s%s: %s", prefix, name, envStatus(prefix+name)))
		}
		for _, name := range []string{"TARKOV_API_URL", "MAX_REQUESTS_PER_MINUTE", "REQUEST_TIMEOUT", "LOG_LEVEL"} {
			log.Info(fmt.Sprintf("  %s: %s", name, envStatus(name)))
		}

		log.Info("")
		log.Info("Effective Settings:")
		log.Info(fmt.Sprintf("  rate_limit: %d per %s", cfg.RateLimit.MaxRequests, cfg.RateLimit.Window))
		log.Info(fmt.Sprintf("  retry.max_attempts: %d", cfg.Retry.MaxAttempts))
		log.Info(fmt.Sprintf("  cache.enabled: %t", cfg.Cache.Enabled))
		log.Info(fmt.Sprintf("  api.shared_session: %t", cfg.API.SharedSession))
		return nil
	},
}

var doctorResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset user configuration and/or data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if doctorResetAll {
			doctorResetConfig = true
			doctorResetData = true
		}

		if !doctorResetConfig && !doctorResetData {
			return fmt.Errorf("specify --config, --data, or --all")
		}

		if doctorResetConfig {
			configPath := resolvedConfigPath()
			if configPath == "" {
				observability.CLILogger.Warn("Config path not resolved; skipping config reset")
			} else if err := os.Remove(configPath); err == nil {
				observability.CLILogger.Info("Config removed", zap.String("path", configPath))
			} else if os.IsNotExist(err) {
				observability.CLILogger.Info("Config already removed", zap.String("path", configPath))
			} else {
				return fmt.Errorf("remove config file: %w", err)
			}
		}

		if doctorResetData {
			cfg, err := loadConfig(cmd.Context(), nil)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Store.URL != "" {
				return fmt.Errorf("remote store configured; database reset is not supported")
			}

			absPath, _ := filepath.Abs(cfg.Store.Path)
			if err := os.Remove(absPath); err == nil {
				observability.CLILogger.Info("Database removed", zap.String("path", absPath))
			} else if os.IsNotExist(err) {
				observability.CLILogger.Info("Database already removed", zap.String("path", absPath))
			} else {
				return fmt.Errorf("remove database: %w", err)
			}
		}

		return nil
	},
}

var doctorValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the current config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := resolvedConfigPath()
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", configPath)
		}

		if _, err := loadConfig(cmd.Context(), nil); err != nil {
			return err
		}

		observability.CLILogger.Info("Config is valid", zap.String("path", configPath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorInitCmd)
	doctorCmd.AddCommand(doctorConfigCmd)
	doctorCmd.AddCommand(doctorResetCmd)
	doctorCmd.AddCommand(doctorValidateCmd)

	doctorCmd.Flags().BoolVar(&doctorOffline, "offline", false, "skip the upstream API probe")

	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "overwrite existing config file")

	doctorResetCmd.Flags().BoolVar(&doctorResetConfig, "config", false, "remove user config file")
	doctorResetCmd.Flags().BoolVar(&doctorResetData, "data", false, "remove local response cache database")
	doctorResetCmd.Flags().BoolVar(&doctorResetAll, "all", false, "remove config and data")
}

// resolvedConfigPath is --config when given, otherwise the XDG default.
func resolvedConfigPath() string {
	if strings.TrimSpace(cfgFile) != "" {
		return cfgFile
	}
	return config.DefaultConfigPath(identityConfigName())
}

// formatFileSize returns a human-readable file size
func formatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

// formatTimeAgo returns a human-readable relative time
func formatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d mins ago", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func buildInitConfig(binaryName string) string {
	lines := []string{
		fmt.Sprintf("# %s config - created by '%s doctor init'", binaryName, binaryName),
		"api:",
		"  url: https://api.tarkov.dev/graphql",
		"  timeout: 30s",
		"rate_limit:",
		"  max_requests: 60",
		"  window: 1m",
		"retry:",
		"  max_attempts: 1",
		"cache:",
		"  enabled: false",
		"  items_ttl: 1h",
		"  prices_ttl: 5m",
		"  static_ttl: 6h",
		"logging:",
		"  level: info",
		"  profile: structured",
		"server:",
		"  enabled: false",
		"  port: 8080",
	}
	return strings.Join(lines, "\n") + "\n"
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func existenceStatus(exists bool) string {
	if exists {
		return "exists"
	}
	return "missing"
}

func envStatus(name string) string {
	if strings.TrimSpace(os.Getenv(name)) != "" {
		return "(set)"
	}
	return "(not set)"
}
