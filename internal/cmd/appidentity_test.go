package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tarkovmcp/tarkovmcp/internal/appid"
)

func withIdentity(t *testing.T) {
	t.Helper()
	identity, err := appid.Get(context.Background())
	require.NoError(t, err)

	previous := appIdentity
	appIdentity = identity
	t.Cleanup(func() { appIdentity = previous })
}

func TestIdentityDrivesCommandNaming(t *testing.T) {
	withIdentity(t)

	require.Equal(t, "tarkov-mcp", identityName())
	require.NotEmpty(t, identityConfigName())
	require.Equal(t, "TARKOV_MCP_", appIdentity.EnvPrefix)
	require.Equal(t, "tarkov_mcp", appIdentity.TelemetryNamespace())
}

func TestIdentityNamesFallBackWithoutIdentity(t *testing.T) {
	previous := appIdentity
	appIdentity = nil
	t.Cleanup(func() { appIdentity = previous })

	require.Equal(t, appid.DefaultName, identityName())
	require.Equal(t, appid.DefaultName, identityConfigName())
}

func TestLoadConfigHonorsIdentityPrefix(t *testing.T) {
	withIdentity(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TARKOV_MCP_RATE_LIMIT_MAX_REQUESTS", "7")

	cfg, err := loadConfig(context.Background(), map[string]any{"rate_limit.window": "30s"})
	require.NoError(t, err)
	require.Equal(t, 7, cfg.RateLimit.MaxRequests)
	require.Equal(t, "30s", cfg.RateLimit.Window.String())
}
