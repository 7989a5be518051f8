package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

const schemaVersionKey = "schema_version"

type migration struct {
	version int
	name    string
	stmts   []string
}

// migrations are applied in order; each version runs at most once per database.
var migrations = []migration{
	{
		version: 1,
		name:    "response cache",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS store_meta (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS response_cache (
				cache_key TEXT PRIMARY KEY,
				operation TEXT NOT NULL,
				variables TEXT,
				response_json TEXT NOT NULL,
				cached_at INTEGER NOT NULL,
				expires_at INTEGER NOT NULL
			);`,
			`CREATE INDEX IF NOT EXISTS idx_response_cache_expires ON response_cache(expires_at);`,
		},
	},
	{
		version: 2,
		name:    "cache hit counter",
		stmts: []string{
			`ALTER TABLE response_cache ADD COLUMN hits INTEGER NOT NULL DEFAULT 0;`,
		},
	},
	{
		version: 3,
		name:    "cache operation index",
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_response_cache_operation ON response_cache(operation);`,
		},
	},
}

// SchemaVersion is the version Migrate brings a database to.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Migrate applies pending migrations. Calling it on an up-to-date store is a no-op.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	current, err := s.CurrentSchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// CurrentSchemaVersion reports the applied schema version, 0 for a fresh database.
func (s *Store) CurrentSchemaVersion(ctx context.Context) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	var exists int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'store_meta'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("inspect schema: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}

	var raw string
	err = s.DB.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE key = ?`, schemaVersionKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	version, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid schema version %q: %w", raw, err)
	}
	return version, nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op after commit

	for _, stmt := range m.stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO store_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, schemaVersionKey, strconv.Itoa(m.version)); err != nil {
		return fmt.Errorf("record schema version %d: %w", m.version, err)
	}
	return tx.Commit()
}
