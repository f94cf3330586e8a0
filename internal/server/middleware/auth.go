// Package middleware provides HTTP middleware for session token authentication.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// sessionIDKey is the context key for storing the authenticated session ID.
const sessionIDKey ContextKey = "sessionID"

// TokenValidator is an interface for validating session tokens.
// This allows the middleware to work with any token service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (SessionIDGetter, error)
}

// SessionIDGetter is an interface for extracting the session ID from token claims.
type SessionIDGetter interface {
	GetSessionID() string
}

// AuthMiddleware creates middleware that validates session tokens and adds
// the session ID to the request context.
func AuthMiddleware(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			sessionID := claims.GetSessionID()
			if sessionID == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from a case-insensitive "Bearer" Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	tokenString := strings.TrimSpace(parts[1])
	return tokenString, tokenString != ""
}

// GetSessionID extracts the authenticated session ID from the request context.
func GetSessionID(r *http.Request) (string, error) {
	sessionID, ok := r.Context().Value(sessionIDKey).(string)
	if !ok || sessionID == "" {
		return "", fmt.Errorf("session ID not found in request context")
	}
	return sessionID, nil
}

// SessionIDKey returns the context key for the session ID (for testing purposes).
func SessionIDKey() ContextKey {
	return sessionIDKey
}
