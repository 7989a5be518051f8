package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CachedResponse is the data object of one upstream GraphQL response.
type CachedResponse struct {
	Key       string         `json:"key"`
	Operation string         `json:"operation"`
	Data      map[string]any `json:"data"`
	CachedAt  time.Time      `json:"cached_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// CacheEntry describes a cached response without its payload.
type CacheEntry struct {
	Key       string    `json:"key"`
	Operation string    `json:"operation"`
	Variables string    `json:"variables,omitempty"`
	Bytes     int       `json:"bytes"`
	Hits      int       `json:"hits"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Expired   bool      `json:"expired"`
}

// CacheQuery filters ListCachedResponses.
type CacheQuery struct {
	Operation      string
	IncludeExpired bool
	Limit          int
}

// CacheKey derives a stable key from a query document and its variables.
// encoding/json sorts map keys, so equal variable maps hash equally.
func CacheKey(query string, vars map[string]any) (string, error) {
	encoded, err := json.Marshal(vars)
	if err != nil {
		return "", fmt.Errorf("encode cache variables: %w", err)
	}
	sum := sha256.New()
	sum.Write([]byte(strings.TrimSpace(query)))
	sum.Write([]byte{0})
	sum.Write(encoded)
	return hex.EncodeToString(sum.Sum(nil)), nil
}

// GetCachedResponse returns a cached response if it is still valid.
func (s *Store) GetCachedResponse(ctx context.Context, key string) (*CachedResponse, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("cache key is required")
	}

	var (
		operation    string
		responseJSON string
		cachedAt     int64
		expiresAt    int64
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT operation, response_json, cached_at, expires_at
		FROM response_cache
		WHERE cache_key = ? AND expires_at > ?
	`, key, s.now().Unix())

	if err := row.Scan(&operation, &responseJSON, &cachedAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cached response: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(responseJSON), &data); err != nil {
		return nil, fmt.Errorf("decode cached response: %w", err)
	}

	_, _ = s.DB.ExecContext(ctx, `UPDATE response_cache SET hits = hits + 1 WHERE cache_key = ?`, key)

	return &CachedResponse{
		Key:       key,
		Operation: operation,
		Data:      data,
		CachedAt:  time.Unix(cachedAt, 0).UTC(),
		ExpiresAt: time.Unix(expiresAt, 0).UTC(),
	}, nil
}

// SetCachedResponse stores a response with a TTL. A non-positive TTL is a no-op.
func (s *Store) SetCachedResponse(ctx context.Context, key, operation string, vars map[string]any, data map[string]any, ttl time.Duration) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if ttl <= 0 || data == nil {
		return nil
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key is required")
	}

	responseJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode cached response: %w", err)
	}

	var varsJSON []byte
	if len(vars) > 0 {
		varsJSON, err = json.Marshal(vars)
		if err != nil {
			return fmt.Errorf("encode cached variables: %w", err)
		}
	}

	now := s.now()
	expires := now.Add(ttl)

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO response_cache (cache_key, operation, variables, response_json, cached_at, expires_at, hits)
		VALUES (?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(cache_key) DO UPDATE SET
			operation = excluded.operation,
			variables = excluded.variables,
			response_json = excluded.response_json,
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at,
			hits = 0
	`, key, operation, string(varsJSON), string(responseJSON), now.Unix(), expires.Unix())
	if err != nil {
		return fmt.Errorf("store cached response: %w", err)
	}

	return nil
}

// ListCachedResponses returns cache entries, newest first.
func (s *Store) ListCachedResponses(ctx context.Context, query CacheQuery) ([]CacheEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	now := s.now().Unix()

	var (
		clauses []string
		args    []any
	)
	if !query.IncludeExpired {
		clauses = append(clauses, "expires_at > ?")
		args = append(args, now)
	}
	if op := strings.TrimSpace(query.Operation); op != "" {
		clauses = append(clauses, "operation = ?")
		args = append(args, op)
	}

	stmt := `SELECT cache_key, operation, variables, LENGTH(response_json), hits, cached_at, expires_at FROM response_cache`
	if len(clauses) > 0 {
		stmt += " WHERE " + strings.Join(clauses, " AND ")
	}
	stmt += " ORDER BY cached_at DESC, cache_key"
	if query.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, query.Limit)
	}

	rows, err := s.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list cached responses: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var entries []CacheEntry
	for rows.Next() {
		var (
			entry     CacheEntry
			variables sql.NullString
			cachedAt  int64
			expiresAt int64
		)
		if err := rows.Scan(&entry.Key, &entry.Operation, &variables, &entry.Bytes, &entry.Hits, &cachedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan cached response: %w", err)
		}
		entry.Variables = variables.String
		entry.CachedAt = time.Unix(cachedAt, 0).UTC()
		entry.ExpiresAt = time.Unix(expiresAt, 0).UTC()
		entry.Expired = expiresAt <= now
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cached responses: %w", err)
	}

	return entries, nil
}

// PurgeCachedResponses deletes cache rows and returns how many were removed.
func (s *Store) PurgeCachedResponses(ctx context.Context, expiredOnly bool) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var (
		result sql.Result
		err    error
	)
	if expiredOnly {
		result, err = s.DB.ExecContext(ctx, `DELETE FROM response_cache WHERE expires_at <= ?`, s.now().Unix())
	} else {
		result, err = s.DB.ExecContext(ctx, `DELETE FROM response_cache`)
	}
	if err != nil {
		return 0, fmt.Errorf("purge cached responses: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return removed, nil
}
