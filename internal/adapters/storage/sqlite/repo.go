// Package sqlite caches the most recent board and tag snapshots per server,
// so the client can show something while the first fetch is in flight and
// keep a record after the backend goes away. The cache is advisory only;
// the backend remains the source of truth.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/tavle/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

const (
	snapshotKindBoard = "board"
	snapshotKindTags  = "tags"
)

// ErrNoSnapshot reports that no cached snapshot exists for a server.
var ErrNoSnapshot = errors.New("no cached snapshot")

// Cache persists per-server snapshots in a local sqlite file.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache file at path.
func Open(path string) (*Cache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	cache := &Cache{db: db}
	if err := cache.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// OpenInMemory opens in memory.
func OpenInMemory() (*Cache, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	cache := &Cache{db: db}
	if err := cache.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// Close closes the requested operation.
func (c *Cache) Close() error {
	return c.db.Close()
}

// migrate handles migrate.
func (c *Cache) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			server_url TEXT NOT NULL,
			kind TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			fetched_at TEXT NOT NULL,
			PRIMARY KEY(server_url, kind)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_fetched_at ON snapshots(fetched_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// StoreBoard replaces the cached board snapshot for a server.
func (c *Cache) StoreBoard(ctx context.Context, serverURL string, board domain.Board, fetchedAt time.Time) error {
	return c.store(ctx, serverURL, snapshotKindBoard, board, fetchedAt)
}

// LoadBoard returns the cached board snapshot for a server, with the time it
// was fetched. ErrNoSnapshot when nothing is cached.
func (c *Cache) LoadBoard(ctx context.Context, serverURL string) (domain.Board, time.Time, error) {
	var board domain.Board
	fetchedAt, err := c.load(ctx, serverURL, snapshotKindBoard, &board)
	if err != nil {
		return domain.Board{}, time.Time{}, err
	}
	return board, fetchedAt, nil
}

// StoreTags replaces the cached tag catalog for a server.
func (c *Cache) StoreTags(ctx context.Context, serverURL string, tags domain.Tags, fetchedAt time.Time) error {
	return c.store(ctx, serverURL, snapshotKindTags, tags, fetchedAt)
}

// LoadTags returns the cached tag catalog for a server.
func (c *Cache) LoadTags(ctx context.Context, serverURL string) (domain.Tags, time.Time, error) {
	var tags domain.Tags
	fetchedAt, err := c.load(ctx, serverURL, snapshotKindTags, &tags)
	if err != nil {
		return nil, time.Time{}, err
	}
	return tags, fetchedAt, nil
}

// Purge drops every snapshot cached for a server.
func (c *Cache) Purge(ctx context.Context, serverURL string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM snapshots WHERE server_url = ?`, normalizeServerURL(serverURL))
	if err != nil {
		return fmt.Errorf("purge snapshots: %w", err)
	}
	return nil
}

// store handles store.
func (c *Cache) store(ctx context.Context, serverURL, kind string, payload any, fetchedAt time.Time) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", kind, err)
	}
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO snapshots(server_url, kind, payload_json, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(server_url, kind) DO UPDATE SET
			payload_json = excluded.payload_json,
			fetched_at = excluded.fetched_at
	`, normalizeServerURL(serverURL), kind, string(encoded), ts(fetchedAt))
	if err != nil {
		return fmt.Errorf("store %s snapshot: %w", kind, err)
	}
	return nil
}

// load handles load.
func (c *Cache) load(ctx context.Context, serverURL, kind string, out any) (time.Time, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT payload_json, fetched_at
		FROM snapshots
		WHERE server_url = ? AND kind = ?
	`, normalizeServerURL(serverURL), kind)

	var payloadRaw, fetchedRaw string
	if err := row.Scan(&payloadRaw, &fetchedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrNoSnapshot
		}
		return time.Time{}, err
	}
	if err := json.Unmarshal([]byte(payloadRaw), out); err != nil {
		return time.Time{}, fmt.Errorf("decode %s payload_json: %w", kind, err)
	}
	return parseTS(fetchedRaw), nil
}

// normalizeServerURL keys snapshots by origin regardless of trailing slash.
func normalizeServerURL(serverURL string) string {
	return strings.TrimRight(strings.TrimSpace(serverURL), "/")
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
