// Package statecache is an ephemeral, process-local sqlite store for UI
// state that should survive a restart but is never the source of truth
// for bead data: last-used project, board cursor position, collapsed
// filter/sort preferences. It is never the bead database — that remains
// `bd`'s, reached only through internal/beadstore.
package statecache

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Cache wraps a sqlite database at a fixed path (typically
// ~/.local/state/azedarach/state.db or the platform equivalent).
type Cache struct {
	db *sql.DB
}

// Open creates the schema if absent and returns a ready Cache.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("statecache: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("statecache: schema: %w", err)
	}
	return &Cache{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS board_cursor (
	project TEXT PRIMARY KEY,
	bead_id TEXT NOT NULL
);
`

func (c *Cache) Close() error { return c.db.Close() }

// Get returns a scalar value, "" if unset.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	var val string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return val, err
}

// Set upserts a scalar value.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// LastCursor returns the remembered board cursor bead id for a project.
func (c *Cache) LastCursor(ctx context.Context, project string) (string, error) {
	var id string
	err := c.db.QueryRowContext(ctx, `SELECT bead_id FROM board_cursor WHERE project = ?`, project).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return id, err
}

// SetCursor remembers the board cursor bead id for a project.
func (c *Cache) SetCursor(ctx context.Context, project, beadID string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO board_cursor (project, bead_id) VALUES (?, ?)
		ON CONFLICT(project) DO UPDATE SET bead_id = excluded.bead_id
	`, project, beadID)
	return err
}
