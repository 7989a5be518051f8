package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tarkovmcp/tarkovmcp/internal/appid"
	"github.com/tarkovmcp/tarkovmcp/internal/config"
	"github.com/tarkovmcp/tarkovmcp/internal/observability"
)

var (
	cfgFile string
	verbose bool

	// App identity loaded from .fulmen/app.yaml or the embedded copy
	appIdentity *appidentity.Identity

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// GetAppIdentity returns the loaded app identity (only valid after initConfig)
func GetAppIdentity() *appidentity.Identity {
	return appIdentity
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	// NOTE: initConfig() overwrites these from app identity.
	Use:   filepath.Base(os.Args[0]),
	Short: "MCP server for Escape from Tarkov game data",
	Long: `An MCP server exposing tarkov.dev game data as tools.

Run 'serve' to speak MCP over stdio, or use the other subcommands to call
tools, run raw queries and inspect the response cache from a terminal.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Disable global telemetry early so config loading never emits metrics to
	// stdout. serve initializes the Prometheus-backed system later.
	disabledConfig := &telemetry.Config{Enabled: false}
	if sys, err := telemetry.NewSystem(disabledConfig); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	// Load app identity early for help text (before cobra processes --help)
	if identity, err := appid.Get(context.Background()); err == nil && identity != nil {
		applyIdentity(identity)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; defaults to app identity config path)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}

// initConfig loads app identity and the CLI logger. Configuration itself is
// loaded per command through loadConfig.
func initConfig() {
	identity, err := appid.Get(context.Background())
	if err != nil {
		ExitWithCodeStderr(foundry.ExitFileNotFound, "Failed to load app identity from .fulmen/app.yaml", err)
	}
	applyIdentity(identity)

	observability.InitCLILogger(identityName(), verbose)
}

func applyIdentity(identity *appidentity.Identity) {
	appIdentity = identity
	if identity == nil {
		return
	}
	if identity.BinaryName != "" {
		rootCmd.Use = identity.BinaryName
	}
	if identity.Description != "" {
		rootCmd.Short = identity.Description
	}
	if f := rootCmd.PersistentFlags().Lookup("config"); f != nil && identity.ConfigName != "" {
		f.Usage = fmt.Sprintf("config file (default is $XDG_CONFIG_HOME/%s/config.yaml)", identity.ConfigName)
	}
}

func identityName() string {
	return appid.BinaryName(appIdentity)
}

func identityConfigName() string {
	return appid.ConfigName(appIdentity)
}

// loadConfig reads layered configuration. Overrides win over every layer.
func loadConfig(ctx context.Context, overrides map[string]any) (*config.Config, error) {
	opts := config.LoadOptions{
		ConfigFile: cfgFile,
		AppName:    identityConfigName(),
		Overrides:  map[string]any{},
	}
	if appIdentity != nil {
		opts.EnvPrefix = appIdentity.EnvPrefix
	}
	if verbose {
		opts.Overrides["logging.level"] = "debug"
	}
	for key, value := range overrides {
		opts.Overrides[key] = value
	}

	cfg, err := config.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	if observability.CLILogger != nil {
		observability.CLILogger.Debug("Configuration loaded",
			zap.String("api_url", cfg.API.URL),
			zap.Int("max_requests", cfg.RateLimit.MaxRequests),
			zap.Duration("window", cfg.RateLimit.Window),
			zap.Bool("cache_enabled", cfg.Cache.Enabled))
	}
	return cfg, nil
}
