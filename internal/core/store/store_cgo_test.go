//go:build cgo

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tarkovmcp/tarkovmcp/internal/config"
)

func TestOpenMemoryStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.StoreConfig{
		Driver: "libsql",
		Path:   ":memory:",
	}

	store, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, store)
	require.Equal(t, "libsql", store.Driver())
	require.NoError(t, store.Close())
}

func openTestStore(t *testing.T, clock func() time.Time) *Store {
	t.Helper()
	ctx := context.Background()

	store, err := Open(ctx, config.StoreConfig{Path: filepath.Join(t.TempDir(), "cache.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	store.Clock = clock
	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestMigrateRecordsSchemaVersion(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, config.StoreConfig{Path: filepath.Join(t.TempDir(), "cache.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	version, err := store.CurrentSchemaVersion(ctx)
	require.NoError(t, err)
	require.Zero(t, version)

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx))

	version, err = store.CurrentSchemaVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, SchemaVersion(), version)
}

func TestResponseCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := openTestStore(t, func() time.Time { return now })

	vars := map[string]any{"name": "ledx", "limit": 5}
	key, err := CacheKey("query SearchItems { items { id } }", vars)
	require.NoError(t, err)

	data := map[string]any{"items": []any{map[string]any{"id": "5c0530ee86f774697952d952"}}}
	require.NoError(t, store.SetCachedResponse(ctx, key, "SearchItems", vars, data, time.Hour))

	cached, err := store.GetCachedResponse(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.Equal(t, "SearchItems", cached.Operation)
	require.Equal(t, data, cached.Data)
	require.Equal(t, now.Add(time.Hour), cached.ExpiresAt)

	entries, err := store.ListCachedResponses(ctx, CacheQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 1, entries[0].Hits)
	require.False(t, entries[0].Expired)

	now = now.Add(2 * time.Hour)
	cached, err = store.GetCachedResponse(ctx, key)
	require.NoError(t, err)
	require.Nil(t, cached)

	entries, err = store.ListCachedResponses(ctx, CacheQuery{})
	require.NoError(t, err)
	require.Empty(t, entries)

	entries, err = store.ListCachedResponses(ctx, CacheQuery{IncludeExpired: true})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Expired)
}

func TestResponseCachePurge(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := openTestStore(t, func() time.Time { return now })

	require.NoError(t, store.SetCachedResponse(ctx, "short", "GetFleaMarket", nil, map[string]any{"items": []any{}}, time.Minute))
	require.NoError(t, store.SetCachedResponse(ctx, "long", "GetMaps", nil, map[string]any{"maps": []any{}}, time.Hour))
	require.NoError(t, store.SetCachedResponse(ctx, "skipped", "GetGoonReports", nil, map[string]any{}, 0))

	now = now.Add(10 * time.Minute)

	removed, err := store.PurgeCachedResponses(ctx, true)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	entries, err := store.ListCachedResponses(ctx, CacheQuery{IncludeExpired: true, Operation: "GetMaps"})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	removed, err = store.PurgeCachedResponses(ctx, false)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
}
