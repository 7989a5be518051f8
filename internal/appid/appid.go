// Package appid resolves the tarkov-mcp application identity, falling back
// to the copy embedded in the binary when no .fulmen/app.yaml is found.
package appid

import (
	"context"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/tarkovmcp/tarkovmcp/internal/assets/appidentity"
)

// DefaultName is used for the binary and config names when no identity loads.
const DefaultName = "tarkov-mcp"

func init() {
	// FULMEN_APP_IDENTITY_PATH and explicit paths still take precedence.
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

// Get returns the process identity.
func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}

// BinaryName returns identity.BinaryName or DefaultName.
func BinaryName(identity *appidentity.Identity) string {
	if identity != nil && identity.BinaryName != "" {
		return identity.BinaryName
	}
	return DefaultName
}

// ConfigName returns identity.ConfigName or DefaultName.
func ConfigName(identity *appidentity.Identity) string {
	if identity != nil && identity.ConfigName != "" {
		return identity.ConfigName
	}
	return DefaultName
}
