package appidentityassets

import _ "embed"

// YAML mirrors .fulmen/app.yaml so a standalone tarkov-mcp binary still
// knows its name, env prefix and telemetry namespace. Keep both copies equal.
//
//go:embed app.yaml
var YAML []byte
