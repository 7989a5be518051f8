package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	errwrap "github.com/tarkovmcp/tarkovmcp/internal/errors"
	"github.com/tarkovmcp/tarkovmcp/internal/observability"
	httpserver "github.com/tarkovmcp/tarkovmcp/internal/server"
	"github.com/tarkovmcp/tarkovmcp/internal/server/handlers"
	"github.com/tarkovmcp/tarkovmcp/internal/tools"
)

var (
	serveHTTP    bool
	serveMetrics bool
	serverPort   int
	serverHost   string
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// identityHealthChecker validates app identity metadata
type identityHealthChecker struct {
	binaryName string
	envPrefix  string
	configName string
}

func (i identityHealthChecker) CheckHealth(ctx context.Context) error {
	switch {
	case i.binaryName == "":
		return errwrap.NewConfigInvalidError("app identity missing binary name")
	case i.envPrefix == "":
		return errwrap.NewConfigInvalidError("app identity missing env prefix")
	case i.configName == "":
		return errwrap.NewConfigInvalidError("app identity missing config name")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long: `Run the MCP server on stdin/stdout. Logs go to stderr.

With --http (or server.enabled) a sidecar serves /health, /health/live,
/health/ready, /version, /ratelimit and /metrics on --host:--port.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Re-validate configuration (restart to apply changes)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := map[string]any{}
		if cmd.Flags().Changed("http") {
			overrides["server.enabled"] = serveHTTP
		}
		if cmd.Flags().Changed("host") {
			overrides["server.host"] = serverHost
		}
		if cmd.Flags().Changed("port") {
			overrides["server.port"] = serverPort
		}
		if cmd.Flags().Changed("metrics") {
			overrides["metrics.enabled"] = serveMetrics
		}

		cfg, err := loadConfig(cmd.Context(), overrides)
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration load failed")
		}

		identity := GetAppIdentity()
		namespace := identity.TelemetryNamespace()

		observability.InitServeLogger(identity.BinaryName, cfg.Logging, namespace)
		logger := observability.ServerLogger

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(namespace, cfg.Metrics.Port); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
			}
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		client, closeStore, err := newClient(ctx, cfg, logger)
		if err != nil {
			return errwrap.EnsureEnvelope(err)
		}

		registry := tools.NewRegistry(client, logger)
		mcp := mcpserver.NewMCPServer(identity.BinaryName, versionInfo.Version,
			mcpserver.WithToolCapabilities(true),
			mcpserver.WithRecovery(),
		)
		registry.Register(mcp)

		logger.Info("Initializing MCP server",
			zap.String("service", identity.BinaryName),
			zap.String("namespace", namespace),
			zap.String("version", versionInfo.Version),
			zap.String("api_url", cfg.API.URL),
			zap.Int("tools", len(registry.Tools())),
			zap.Int("max_requests", cfg.RateLimit.MaxRequests),
			zap.Duration("window", cfg.RateLimit.Window),
			zap.Bool("cache_enabled", client.UseCache))

		var sidecar *httpserver.Server
		errChan := make(chan error, 3)
		if cfg.Server.Enabled {
			handlers.InitHealthManager(versionInfo.Version)
			hm := handlers.GetHealthManager()
			if cfg.Metrics.Enabled {
				hm.RegisterChecker("telemetry", telemetryHealthChecker{})
			}
			hm.RegisterChecker("app_identity", identityHealthChecker{
				binaryName: identity.BinaryName,
				envPrefix:  identity.EnvPrefix,
				configName: identity.ConfigName,
			})
			if cfg.Health.Enabled {
				hm.RegisterReadinessChecker("upstream", client)
			}
			handlers.SetAppIdentity(identity)
			handlers.SetUpstreamInfo(handlers.NewUpstreamInfo(cfg.API.URL,
				cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, cfg.API.Timeout, len(registry.Tools())))

			sidecar = httpserver.New(httpserver.Options{
				Host:       cfg.Server.Host,
				Port:       cfg.Server.Port,
				Limiter:    client.Limiter,
				AdminToken: cfg.Server.AdminToken,
			})
			go func() {
				if err := sidecar.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errChan <- err
				}
			}()
		}

		var once sync.Once
		shutdown := func(ctx context.Context) error {
			var shutdownErr error
			once.Do(func() {
				cancel()
				if sidecar != nil {
					shutdownCtx, done := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
					defer done()
					if err := sidecar.Shutdown(shutdownCtx); err != nil {
						shutdownErr = errwrap.WrapInternal(ctx, err, "sidecar shutdown failed")
					}
				}
				closeStore()
				if err := observability.StopMetrics(); err != nil {
					logger.Warn("Metrics exporter stop failed", zap.Error(err))
				}
				if err := logger.Sync(); err != nil {
					// Sync errors are often benign (stderr already closed)
					logger.Debug("Logger sync returned error", zap.Error(err))
				}
			})
			return shutdownErr
		}

		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Shutdown requested")
			return shutdown(ctx)
		})

		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: re-validating configuration")
			if _, err := loadConfig(ctx, overrides); err != nil {
				logger.Error("Configuration reload failed", zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}
			logger.Info("Configuration is valid; restart to apply changes")
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		go func() {
			if err := signals.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		go func() {
			stdio := mcpserver.NewStdioServer(mcp)
			errChan <- stdio.Listen(ctx, os.Stdin, os.Stdout)
		}()

		var runErr error
		select {
		case runErr = <-errChan:
		case <-ctx.Done():
		}

		if err := shutdown(context.Background()); err != nil {
			logger.Warn("Shutdown completed with errors", zap.Error(err))
		}

		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			return errwrap.WrapInternal(cmd.Context(), runErr, "server error")
		}
		logger.Info("MCP server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveHTTP, "http", false, "run the HTTP health sidecar")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", false, "start the Prometheus exporter")
	serveCmd.Flags().StringVar(&serverHost, "host", "127.0.0.1", "sidecar host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "sidecar port")
}
