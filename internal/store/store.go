// Package store persists per-session quiz state behind a small key/value
// interface with memory, PostgreSQL, Redis and SQLite backends.
package store

import (
	"context"
	"fmt"
	"time"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
)

// DefaultTTL bounds how long session state is retained by backends that expire keys.
const DefaultTTL = 7 * 24 * time.Hour

// DefaultMemorySize is the session limit of the in-memory backend.
const DefaultMemorySize = 10000

// KV is the durable key/value surface the session store is built on.
// Get reports found=false for absent or expired keys.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend     string        `json:"backend"`
	DatabaseURL string        `json:"database_url,omitempty"`
	RedisURL    string        `json:"redis_url,omitempty"`
	SQLitePath  string        `json:"sqlite_path,omitempty"`
	MemorySize  int           `json:"memory_size,omitempty"`
	TTL         time.Duration `json:"ttl,omitempty"`
}

// Error represents a storage failure
type Error struct {
	Backend string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("store %s: %s: %v", e.Backend, e.Message, e.Cause)
	}
	return fmt.Sprintf("store %s: %s", e.Backend, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Open builds the backend named by cfg.Backend. An empty backend means memory.
func Open(ctx context.Context, cfg Config) (KV, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(cfg.MemorySize)
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, &Error{Backend: BackendPostgres, Message: "database url is required"}
		}
		return ConnectPostgres(ctx, cfg.DatabaseURL, ttl)
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, &Error{Backend: BackendRedis, Message: "redis url is required"}
		}
		return ConnectRedis(ctx, cfg.RedisURL, ttl)
	case BackendSQLite:
		if cfg.SQLitePath == "" {
			return nil, &Error{Backend: BackendSQLite, Message: "sqlite path is required"}
		}
		return OpenSQLite(cfg.SQLitePath, ttl)
	default:
		return nil, &Error{Backend: cfg.Backend, Message: "unknown backend"}
	}
}
