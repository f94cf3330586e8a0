package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyResponse is returned when a provider answers without usable text.
var ErrEmptyResponse = errors.New("provider returned no text")

// ErrMalformedResponse is returned when a success response body cannot be decoded.
var ErrMalformedResponse = errors.New("provider returned a malformed body")

// ProviderError is a non-success HTTP status from the provider.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("provider returned status %d", e.StatusCode)
}

// Permanent reports whether repeating the same request cannot succeed.
// Client errors are permanent except request timeout and rate limiting.
func (e *ProviderError) Permanent() bool {
	if e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests {
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500
}
