package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()

	mem, err := NewMemory(0)
	require.NoError(t, err)

	lite, err := OpenSQLite(filepath.Join(t.TempDir(), "quiz.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lite.Close() })

	return map[string]KV{
		BackendMemory: mem,
		BackendSQLite: lite,
	}
}

func TestKV_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set(ctx, "k", []byte("v1")))
			require.NoError(t, kv.Set(ctx, "k", []byte("v2")))

			got, ok, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v2", string(got))

			require.NoError(t, kv.Remove(ctx, "k"))
			_, ok, err = kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)

			// Removing an absent key is not an error
			assert.NoError(t, kv.Remove(ctx, "k"))
		})
	}
}

func TestMemory_Eviction(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory(2)
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "a", []byte("1")))
	require.NoError(t, m.Set(ctx, "b", []byte("2")))
	require.NoError(t, m.Set(ctx, "c", []byte("3")))

	assert.Equal(t, 2, m.Len())
	_, ok, _ := m.Get(ctx, "a")
	assert.False(t, ok)
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory(4)
	require.NoError(t, err)

	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf))
	buf[0] = 'x'

	got, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
}

func TestSQLite_Expiry(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "quiz.db"), time.Minute)
	require.NoError(t, err)
	defer s.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLite_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "quiz.db")

	s, err := OpenSQLite(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", []byte("persisted")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path, time.Hour)
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", string(got))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	kv, err := Open(ctx, Config{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, kv)

	kv, err = Open(ctx, Config{Backend: BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "q.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, kv)
	_ = kv.Close()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown backend", Config{Backend: "etcd"}},
		{"postgres without url", Config{Backend: BackendPostgres}},
		{"redis without url", Config{Backend: BackendRedis}},
		{"sqlite without path", Config{Backend: BackendSQLite}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(ctx, tt.cfg)
			require.Error(t, err)
			var se *Error
			assert.ErrorAs(t, err, &se)
		})
	}
}

func TestRedis_InvalidURL(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "://nope", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis url")
}
