package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const week = 7 * 24 * time.Hour

func TestLoadSessionTokenConfig_Defaults(t *testing.T) {
	t.Setenv("SESSION_TOKEN_SECRET", "test-secret-key-0123")
	t.Setenv("SESSION_TOKEN_HOURS", "")
	t.Setenv("SESSION_TOKEN_ISSUER", "")

	cfg, err := LoadSessionTokenConfig(week)
	require.NoError(t, err)
	assert.Equal(t, week, cfg.Lifetime, "tokens live as long as the session by default")
	assert.Equal(t, DefaultSessionTokenIssuer, cfg.Issuer)

	cfg, err = LoadSessionTokenConfig(0)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Lifetime)
}

func TestLoadSessionTokenConfig(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		hours    string
		ttl      time.Duration
		lifetime time.Duration
		wantErr  string
	}{
		{name: "custom lifetime", secret: "test-secret-key-0123", hours: "48", ttl: week, lifetime: 48 * time.Hour},
		{name: "unbounded sessions", secret: "test-secret-key-0123", hours: "1000", lifetime: 1000 * time.Hour},
		{name: "missing secret", wantErr: "SESSION_TOKEN_SECRET is required"},
		{name: "short secret", secret: "short", ttl: week, wantErr: "at least 16 characters"},
		{name: "non-numeric hours", secret: "test-secret-key-0123", hours: "abc", wantErr: "invalid SESSION_TOKEN_HOURS"},
		{name: "zero hours", secret: "test-secret-key-0123", hours: "0", ttl: week, wantErr: "at least 1 hour"},
		{name: "outlives session", secret: "test-secret-key-0123", hours: "200", ttl: week, wantErr: "outlives stored sessions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SESSION_TOKEN_SECRET", tt.secret)
			t.Setenv("SESSION_TOKEN_HOURS", tt.hours)
			t.Setenv("SESSION_TOKEN_ISSUER", "")

			cfg, err := LoadSessionTokenConfig(tt.ttl)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lifetime, cfg.Lifetime)
		})
	}
}

func TestLoadSessionTokenConfig_Issuer(t *testing.T) {
	t.Setenv("SESSION_TOKEN_SECRET", "test-secret-key-0123")
	t.Setenv("SESSION_TOKEN_HOURS", "")
	t.Setenv("SESSION_TOKEN_ISSUER", "quiz.example.com")

	cfg, err := LoadSessionTokenConfig(week)
	require.NoError(t, err)
	assert.Equal(t, "quiz.example.com", cfg.Issuer)
}
