package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tarkovmcp/tarkovmcp/internal/config"
	"github.com/tarkovmcp/tarkovmcp/internal/core/gateway"
	"github.com/tarkovmcp/tarkovmcp/internal/core/store"
	"github.com/tarkovmcp/tarkovmcp/internal/core/tarkov"
	"github.com/tarkovmcp/tarkovmcp/internal/observability"
)

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// newClient builds the tarkov client. The response store is opened only when
// caching is enabled; a store that fails to open downgrades to uncached calls.
func newClient(ctx context.Context, cfg *config.Config, logger gateway.Logger) (*tarkov.Client, func(), error) {
	cleanup := func() {}

	var responses tarkov.ResponseStore
	if cfg.Cache.Enabled {
		db, err := openStore(ctx, cfg)
		if err != nil {
			if log := observability.Logger(); log != nil {
				log.Warn("Response cache unavailable, continuing without it", zap.Error(err))
			}
		} else {
			responses = db
			cleanup = func() { _ = db.Close() }
		}
	}

	client, err := tarkov.NewClient(cfg, logger, responses)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("build tarkov client: %w", err)
	}
	return client, cleanup, nil
}
