package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tarkovmcp/tarkovmcp/internal/config"
)

func TestBuildLibsqlDSN(t *testing.T) {
	t.Run("URLUsesRawValue", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123", dsn)
	})

	t.Run("URLWithExistingQuery", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io?foo=bar",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123&foo=bar", dsn)
	})

	t.Run("PathWithFilePrefix", func(t *testing.T) {
		cfg := config.StoreConfig{Path: "file:./tarkov-mcp.db"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "file:./tarkov-mcp.db", dsn)
	})

	t.Run("PathMissing", func(t *testing.T) {
		cfg := config.StoreConfig{}

		_, err := buildLibsqlDSN(cfg)
		require.Error(t, err)
	})

	t.Run("MemoryPath", func(t *testing.T) {
		cfg := config.StoreConfig{Path: ":memory:"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, ":memory:", dsn)
	})
}

func TestCacheKeyIsStable(t *testing.T) {
	query := "query GetItem($id: ID!) { item(id: $id) { id } }"

	a, err := CacheKey(query, map[string]any{"id": "abc", "lang": "en"})
	require.NoError(t, err)
	b, err := CacheKey("  "+query+"\n", map[string]any{"lang": "en", "id": "abc"})
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := CacheKey(query, map[string]any{"id": "abd", "lang": "en"})
	require.NoError(t, err)
	require.NotEqual(t, a, c)

	d, err := CacheKey(query, nil)
	require.NoError(t, err)
	require.Len(t, d, 64)
}

func TestNilStoreErrors(t *testing.T) {
	var s *Store
	_, err := s.GetCachedResponse(context.Background(), "key")
	require.Error(t, err)
	require.NoError(t, s.Close())
	require.Equal(t, "", s.Driver())
}

func TestResolveTargetTracksLocalPath(t *testing.T) {
	dir := t.TempDir()

	tgt, err := resolveTarget(config.StoreConfig{Path: dir + "/cache/../cache.db"})
	require.NoError(t, err)
	require.Equal(t, "file:"+dir+"/cache.db", tgt.dsn)
	require.Equal(t, dir+"/cache.db", tgt.path)

	tgt, err = resolveTarget(config.StoreConfig{Path: "file:" + dir + "/c.db"})
	require.NoError(t, err)
	require.Equal(t, dir+"/c.db", tgt.path)

	tgt, err = resolveTarget(config.StoreConfig{URL: "libsql://db.turso.io?authToken=keep", AuthToken: "other"})
	require.NoError(t, err)
	require.Equal(t, "libsql://db.turso.io?authToken=keep", tgt.dsn)
	require.Empty(t, tgt.path)
}

func TestSchemaVersionIsLatestMigration(t *testing.T) {
	for i := 1; i < len(migrations); i++ {
		require.Greater(t, migrations[i].version, migrations[i-1].version)
	}
	require.Equal(t, migrations[len(migrations)-1].version, SchemaVersion())
}
