package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Postgres stores entries in the kv_entries table
type Postgres struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// ConnectPostgres establishes a connection pool and ensures the table exists
func ConnectPostgres(ctx context.Context, databaseURL string, ttl time.Duration) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, &Error{Backend: BackendPostgres, Message: "failed to connect to database", Cause: err}
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &Error{Backend: BackendPostgres, Message: "failed to ping database", Cause: err}
	}

	p := &Postgres{pool: pool, ttl: ttl}
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// EnsureSchema creates the kv_entries table if needed
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return &Error{Backend: BackendPostgres, Message: "failed to create schema", Cause: err}
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := p.pool.QueryRow(ctx,
		`SELECT value FROM kv_entries WHERE key = $1 AND expires_at > NOW()`,
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO kv_entries (key, value, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = $2, expires_at = $3, updated_at = NOW()`,
		key, value, time.Now().Add(p.ttl),
	)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Remove(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// PurgeExpired deletes expired rows and returns how many were removed
func (p *Postgres) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := p.pool.Exec(ctx, `DELETE FROM kv_entries WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired entries: %w", err)
	}
	return result.RowsAffected(), nil
}

// Close closes the connection pool
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
