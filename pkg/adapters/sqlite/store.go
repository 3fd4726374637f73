package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/parley/pkg/kv"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	path       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store implements ports.KeyValueStore on a local SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases coherent and serialises writers.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA journal_mode = WAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv table: %w", err)
	}

	return &Store{db: db}, nil
}

// Get returns the value stored at path.
func (s *Store) Get(ctx context.Context, path string) (any, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE path = ?`, path).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("querying %s: %w", path, err)
	}
	v, err := kv.Decode([]byte(raw))
	if err != nil {
		return nil, false, fmt.Errorf("path %s: %w", path, err)
	}
	return v, true, nil
}

// Set upserts value at path. nil deletes.
func (s *Store) Set(ctx context.Context, path string, value any) error {
	if value == nil {
		return s.Delete(ctx, path)
	}
	data, err := kv.Encode(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (path, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		path, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Has reports whether path exists.
func (s *Store) Has(ctx context.Context, path string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM kv WHERE path = ?`, path).Scan(&n); err != nil {
		return false, fmt.Errorf("querying %s: %w", path, err)
	}
	return n > 0, nil
}

// Delete removes path.
func (s *Store) Delete(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE path = ?`, path); err != nil {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	return nil
}

// GetAll returns every stored path.
func (s *Store) GetAll(ctx context.Context) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, value FROM kv`)
	if err != nil {
		return nil, fmt.Errorf("listing kv: %w", err)
	}
	defer rows.Close()

	out := make(map[string]any)
	for rows.Next() {
		var path, raw string
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, fmt.Errorf("scanning kv row: %w", err)
		}
		v, err := kv.Decode([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("path %s: %w", path, err)
		}
		out[path] = v
	}
	return out, rows.Err()
}

// Clear removes every row.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv`); err != nil {
		return fmt.Errorf("clearing kv: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
