// Package leads forwards completed quiz submissions to the spreadsheet
// collector.
package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonathan/readiness-quiz/internal/types"
)

// DefaultTimeout bounds a single forward.
const DefaultTimeout = 15 * time.Second

const maxErrorBody = 4096

// ErrNotConfigured is returned when no collector URL is set.
var ErrNotConfigured = errors.New("lead sink not configured")

// Receipt is what the collector returned for an accepted lead.
type Receipt struct {
	Result json.RawMessage `json:"result,omitempty"`
}

// Sink accepts leads.
type Sink interface {
	Forward(ctx context.Context, lead types.Lead) (*Receipt, error)
}

// ForwardError is returned when the collector rejects a lead.
type ForwardError struct {
	StatusCode int
	Body       string
}

func (e *ForwardError) Error() string {
	return fmt.Sprintf("lead collector returned status %d: %s", e.StatusCode, e.Body)
}

// ValidationError is returned for leads missing required contact fields.
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// SheetsSink posts leads as JSON to a Google Apps Script web app.
type SheetsSink struct {
	url        string
	httpClient *http.Client
}

// NewSheetsSink creates a sink posting to scriptURL.
func NewSheetsSink(scriptURL string, timeout time.Duration) *SheetsSink {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SheetsSink{
		url:        scriptURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// New returns a SheetsSink, or a NopSink when scriptURL is empty.
func New(scriptURL string, timeout time.Duration) Sink {
	if scriptURL == "" {
		return NopSink{}
	}
	return NewSheetsSink(scriptURL, timeout)
}

// Forward validates and posts the lead.
func (s *SheetsSink) Forward(ctx context.Context, lead types.Lead) (*Receipt, error) {
	if err := lead.Validate(); err != nil {
		return nil, &ValidationError{Message: "missing required fields: email and name", Cause: err}
	}

	body, err := json.Marshal(lead)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to forward lead: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read collector response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := string(respBody)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return nil, &ForwardError{StatusCode: resp.StatusCode, Body: text}
	}

	receipt := &Receipt{}
	if json.Valid(respBody) {
		receipt.Result = json.RawMessage(respBody)
	}
	return receipt, nil
}

// NopSink drops leads. It is used when no collector is configured.
type NopSink struct{}

// Forward always returns ErrNotConfigured.
func (NopSink) Forward(context.Context, types.Lead) (*Receipt, error) {
	return nil, ErrNotConfigured
}
