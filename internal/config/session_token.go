package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultSessionTokenIssuer is the iss claim carried by session tokens.
const DefaultSessionTokenIssuer = "readiness-quiz"

// HS256 keys shorter than this are rejected.
const minSessionSecretLen = 16

// SessionTokenConfig configures the bearer tokens handed out with each quiz
// session. A token only unlocks state the store still holds, so its lifetime
// is bounded by the session TTL.
type SessionTokenConfig struct {
	Secret   string
	Issuer   string
	Lifetime time.Duration
}

// LoadSessionTokenConfig reads SESSION_TOKEN_SECRET (required),
// SESSION_TOKEN_HOURS and SESSION_TOKEN_ISSUER. The lifetime defaults to
// sessionTTL, or 24 hours when sessions never expire.
func LoadSessionTokenConfig(sessionTTL time.Duration) (*SessionTokenConfig, error) {
	c := &SessionTokenConfig{
		Secret:   os.Getenv("SESSION_TOKEN_SECRET"),
		Issuer:   os.Getenv("SESSION_TOKEN_ISSUER"),
		Lifetime: sessionTTL,
	}
	if c.Secret == "" {
		return nil, fmt.Errorf("SESSION_TOKEN_SECRET is required to sign session tokens")
	}
	if c.Issuer == "" {
		c.Issuer = DefaultSessionTokenIssuer
	}
	if c.Lifetime <= 0 {
		c.Lifetime = 24 * time.Hour
	}

	if v := os.Getenv("SESSION_TOKEN_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TOKEN_HOURS: %v", err)
		}
		c.Lifetime = time.Duration(hours) * time.Hour
	}

	if err := c.Validate(sessionTTL); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the signing key and that a token cannot outlive the
// session it points at. A non-positive sessionTTL means sessions never expire.
func (c *SessionTokenConfig) Validate(sessionTTL time.Duration) error {
	if len(c.Secret) < minSessionSecretLen {
		return fmt.Errorf("SESSION_TOKEN_SECRET must be at least %d characters", minSessionSecretLen)
	}
	if c.Lifetime < time.Hour {
		return fmt.Errorf("session token lifetime must be at least 1 hour, got %s", c.Lifetime)
	}
	if sessionTTL > 0 && c.Lifetime > sessionTTL {
		return fmt.Errorf("session token lifetime %s outlives stored sessions (%s)", c.Lifetime, sessionTTL)
	}
	return nil
}
