package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonathan/readiness-quiz/internal/config"
	"github.com/jonathan/readiness-quiz/internal/server/middleware"
)

// SessionClaims represents session token claims.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// GetSessionID returns the session ID from the claims.
// This implements the middleware.SessionIDGetter interface.
func (c *SessionClaims) GetSessionID() string {
	return c.SessionID
}

// AsTokenValidator returns a TokenValidator adapter for this SessionTokenService.
// This allows the service to be used with middleware without creating import cycles.
func (s *SessionTokenService) AsTokenValidator() middleware.TokenValidator {
	return &sessionTokenValidator{service: s}
}

// sessionTokenValidator adapts SessionTokenService to middleware.TokenValidator interface.
type sessionTokenValidator struct {
	service *SessionTokenService
}

func (v *sessionTokenValidator) ValidateToken(tokenString string) (middleware.SessionIDGetter, error) {
	claims, err := v.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// SessionTokenService issues and validates the tokens that let a browser
// read back and retry its own quiz session.
type SessionTokenService struct {
	config *config.SessionTokenConfig
}

// NewSessionTokenService creates a new token service with the given configuration.
func NewSessionTokenService(cfg *config.SessionTokenConfig) *SessionTokenService {
	return &SessionTokenService{
		config: cfg,
	}
}

// GenerateToken generates a token for the given session ID.
func (s *SessionTokenService) GenerateToken(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session ID is empty")
	}

	now := time.Now()
	expiresAt := now.Add(s.config.Lifetime)

	claims := &SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a session token and returns the claims.
func (s *SessionTokenService) ValidateToken(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	var opts []jwt.ParserOption
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("invalid token signature: %w", err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("token expired: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed token: %w", err)
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, fmt.Errorf("token from another issuer: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	return claims, nil
}
