package store

import (
	"context"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Memory is a bounded in-process backend. Keys sharing a session prefix
// ("<session>:<name>") live in one cache entry, so a session is evicted
// whole once the size limit is reached and never loses single keys.
type Memory struct {
	mu    sync.Mutex
	cache *lru.Cache[string, map[string][]byte]
}

// NewMemory creates a memory backend holding at most size sessions.
func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	cache, err := lru.New[string, map[string][]byte](size)
	if err != nil {
		return nil, &Error{Backend: BackendMemory, Message: "failed to create cache", Cause: err}
	}
	return &Memory{cache: cache}, nil
}

// splitKey returns the session part of a key and the name within it.
func splitKey(key string) (string, string) {
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		return key[:i], key[i+1:]
	}
	return key, ""
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	group, name := splitKey(key)

	m.mu.Lock()
	defer m.mu.Unlock()
	entries, ok := m.cache.Get(group)
	if !ok {
		return nil, false, nil
	}
	v, ok := entries[name]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	group, name := splitKey(key)
	v := make([]byte, len(value))
	copy(v, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	entries, ok := m.cache.Get(group)
	if !ok {
		entries = make(map[string][]byte, len(SessionKeys))
	}
	entries[name] = v
	m.cache.Add(group, entries)
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	group, name := splitKey(key)

	m.mu.Lock()
	defer m.mu.Unlock()
	entries, ok := m.cache.Peek(group)
	if !ok {
		return nil
	}
	delete(entries, name)
	if len(entries) == 0 {
		m.cache.Remove(group)
	}
	return nil
}

// Len returns the number of stored sessions.
func (m *Memory) Len() int {
	return m.cache.Len()
}

func (m *Memory) Close() error {
	m.cache.Purge()
	return nil
}
