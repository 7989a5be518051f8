package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tarkovmcp/tarkovmcp/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display comprehensive environment, configuration, and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		log := observability.CLILogger
		version := crucible.GetVersion()

		log.Info("=== " + identityName() + " Environment Information ===")
		log.Info("")

		// Application Info
		log.Info("Application:")
		log.Info("  Name:       " + identityName())
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("")

		// SSOT Info
		log.Info("SSOT:")
		log.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		log.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		log.Info("")

		// Runtime Info
		log.Info("Runtime:")
		log.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		log.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		log.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		log.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		log.Info("")

		cfg, err := loadConfig(cmd.Context(), nil)
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return
		}

		// Upstream
		log.Info("Upstream:")
		log.Info("  API URL:        "+cfg.API.URL, zap.String("api_url", cfg.API.URL))
		log.Info("  User Agent:     "+cfg.API.UserAgent, zap.String("user_agent", cfg.API.UserAgent))
		log.Info("  Timeout:        "+cfg.API.Timeout.String(), zap.Duration("timeout", cfg.API.Timeout))
		log.Info(fmt.Sprintf("  Shared Session: %t", cfg.API.SharedSession), zap.Bool("shared_session", cfg.API.SharedSession))
		log.Info(fmt.Sprintf("  Rate Limit:     %d per %s", cfg.RateLimit.MaxRequests, cfg.RateLimit.Window),
			zap.Int("max_requests", cfg.RateLimit.MaxRequests),
			zap.Duration("window", cfg.RateLimit.Window))
		log.Info(fmt.Sprintf("  Retry Attempts: %d", cfg.Retry.MaxAttempts), zap.Int("max_attempts", cfg.Retry.MaxAttempts))
		log.Info("")

		// Configuration
		log.Info("Configuration:")
		log.Info(fmt.Sprintf("  Sidecar:        %t (%s:%d)", cfg.Server.Enabled, cfg.Server.Host, cfg.Server.Port),
			zap.Bool("server_enabled", cfg.Server.Enabled))
		log.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		log.Info("  Log Profile:    "+cfg.Logging.Profile, zap.String("log_profile", cfg.Logging.Profile))
		log.Info(fmt.Sprintf("  Cache Enabled:  %t", cfg.Cache.Enabled), zap.Bool("cache_enabled", cfg.Cache.Enabled))
		log.Info("  DB Driver:      "+cfg.Store.Driver, zap.String("db_driver", cfg.Store.Driver))
		if strings.TrimSpace(cfg.Store.URL) != "" {
			log.Info("  DB URL:         "+cfg.Store.URL, zap.String("db_url", cfg.Store.URL))
		} else {
			log.Info("  DB Path:        "+cfg.Store.Path, zap.String("db_path", cfg.Store.Path))
		}
		log.Info(fmt.Sprintf("  Metrics:        %t (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		log.Info("  Config File:    "+resolvedConfigPath(), zap.String("config_file", resolvedConfigPath()))
		log.Info("")

		log.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
