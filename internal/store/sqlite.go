package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLite stores entries in a single-file database.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path with WAL mode.
func OpenSQLite(path string, ttl time.Duration) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, &Error{Backend: BackendSQLite, Message: "create data dir", Cause: err}
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, &Error{Backend: BackendSQLite, Message: "open database", Cause: err}
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, &Error{Backend: BackendSQLite, Message: fmt.Sprintf("pragma %q", p), Cause: err}
		}
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv_entries (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		expires_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, &Error{Backend: BackendSQLite, Message: "migration", Cause: err}
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SQLite{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE key = ? AND expires_at > ?`,
		key, s.now().UnixNano(),
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("sqlite: get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, expires_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value,
		     expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
		key, value, now.Add(s.ttl).UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: set %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: remove %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
