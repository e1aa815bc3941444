// Package cache persists Google Books lookup results across runs so a
// cluster is never fetched twice. A row with a NULL payload records a
// known miss: the catalog had no match, and future runs skip the call.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/clubshelf/clubshelf/internal/books"
	_ "modernc.org/sqlite"
)

// Store is a durable key -> (metadata | miss) mapping backed by SQLite.
// Writes go straight to disk, so an interrupted batch keeps every lookup
// completed before the interruption. database/sql serializes access, so
// concurrent fetch tasks can read and write distinct keys safely.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the cache at path. An unreadable or
// unmigratable cache file is discarded and recreated empty; a stale
// cache is never worth failing a run over.
func Open(path string) (*Store, error) {
	db, err := open(path)
	if err != nil {
		slog.Warn("Discarding unreadable lookup cache", "path", path, "err", err)
		_ = os.Remove(path)
		db, err = open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to recreate lookup cache: %w", err)
		}
	}
	return &Store{db: db}, nil
}

func open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS lookups (
		  key        TEXT PRIMARY KEY,
		  payload    TEXT,
		  created_at INTEGER NOT NULL
		);`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		if _, err := db.Exec("PRAGMA user_version = 1"); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}
	return nil
}

// Get returns the cached result for key. known reports whether the key
// has ever been looked up; a known key with nil metadata is a recorded
// miss and must short-circuit the external call.
func (s *Store) Get(key string) (meta *books.EnrichedMetadata, known bool, err error) {
	var payload sql.NullString
	err = s.db.QueryRow("SELECT payload FROM lookups WHERE key = ?", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if !payload.Valid {
		return nil, true, nil
	}

	meta = &books.EnrichedMetadata{}
	if err := json.Unmarshal([]byte(payload.String), meta); err != nil {
		// Unparseable entry: pretend it was never cached so the next
		// lookup overwrites it.
		slog.Warn("Dropping corrupt cache entry", "key", key, "err", err)
		return nil, false, nil
	}
	return meta, true, nil
}

// PutHit records a successful lookup.
func (s *Store) PutHit(key string, meta *books.EnrichedMetadata) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO lookups (key, payload, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`,
		key, string(payload), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// PutMiss records that the catalog had no match for key. Misses are
// permanent: future runs will not re-fetch the key.
func (s *Store) PutMiss(key string) error {
	_, err := s.db.Exec(`
		INSERT INTO lookups (key, payload, created_at) VALUES (?, NULL, ?)
		ON CONFLICT(key) DO UPDATE SET payload = NULL`,
		key, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write cache miss: %w", err)
	}
	return nil
}

// Len returns the number of cached lookups, hits and misses included.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM lookups").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
