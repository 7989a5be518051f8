package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tarkovmcp/tarkovmcp/internal/core/tarkov"
	errwrap "github.com/tarkovmcp/tarkovmcp/internal/errors"
	"github.com/tarkovmcp/tarkovmcp/internal/observability"
	"github.com/tarkovmcp/tarkovmcp/internal/tools"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Run a self-health check to verify the server can start. No upstream calls are made.",
	Run: func(cmd *cobra.Command, args []string) {
		// Check 1: Logger initialized
		if observability.CLILogger == nil {
			// Can't log if logger is nil, so use stderr
			ExitWithCodeStderr(foundry.ExitConfigInvalid, "Logger not initialized", errwrap.NewConfigInvalidError("Logger not initialized"))
			return
		}
		log := observability.CLILogger
		log.Info("Running health check...")
		log.Info("✅ Logger initialized")

		// Check 2: Version info available
		if versionInfo.Version == "" {
			log.Error("❌ FAIL: Version information missing")
			ExitWithCode(log, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return
		}
		log.Debug("Version check passed", zap.String("version", versionInfo.Version))
		log.Info("✅ Version information available")

		// Check 3: Configuration loads and validates
		cfg, err := loadConfig(cmd.Context(), nil)
		if err != nil {
			log.Error("❌ FAIL: Configuration invalid")
			ExitWithCode(log, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration invalid"))
			return
		}
		log.Info("✅ Configuration valid")

		// Check 4: Client and tool catalog build
		client, err := tarkov.NewClient(cfg, log, nil)
		if err != nil {
			log.Error("❌ FAIL: Client construction failed")
			ExitWithCode(log, ExitCodeFor(err), "Client construction failed", errwrap.EnsureEnvelope(err))
			return
		}
		registry := tools.NewRegistry(client, log)
		log.Info("✅ Tool catalog ready", zap.Int("tools", len(registry.Tools())))

		// Overall status
		log.Info("")
		log.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
