package narrative

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/jonathan/readiness-quiz/internal/llm"
)

// Kind classifies a narrative failure.
type Kind string

// Failure kinds.
const (
	KindTimeout        Kind = "timeout"
	KindCanceled       Kind = "canceled"
	KindNetworkFailure Kind = "network_failure"
	KindUpstreamError  Kind = "upstream_error"
	KindEmptyResponse  Kind = "empty_response"
	KindInvalidInput   Kind = "invalid_input"
)

// Error is returned by every failing narrative request.
type Error struct {
	Kind   Kind
	Status int    // upstream HTTP status, KindUpstreamError only
	Detail string // upstream detail or input problem
	Field  string // offending field, KindInvalidInput only
	Cause  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUpstreamError:
		return fmt.Sprintf("narrative upstream error (status %d): %s", e.Status, e.Detail)
	case KindInvalidInput:
		return fmt.Sprintf("narrative invalid input: %s - %s", e.Field, e.Detail)
	}
	if e.Cause != nil {
		return fmt.Sprintf("narrative %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("narrative %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether repeating the request with the same payload may
// succeed. Malformed input and permanent upstream rejections are not retryable.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindNetworkFailure, KindEmptyResponse, KindCanceled:
		return true
	case KindUpstreamError:
		return !(&llm.ProviderError{StatusCode: e.Status}).Permanent()
	default:
		return false
	}
}

// IsKind reports whether err is a narrative *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ne *Error
	return errors.As(err, &ne) && ne.Kind == kind
}

func invalidInput(field, detail string) *Error {
	return &Error{Kind: KindInvalidInput, Field: field, Detail: detail}
}

// classify maps a generator error onto a narrative error. parent is the
// caller's context and budget the context carrying the time budget.
func classify(err error, parent, budget context.Context) *Error {
	var ne *Error
	if errors.As(err, &ne) {
		return ne
	}

	if parent.Err() != nil {
		if errors.Is(parent.Err(), context.DeadlineExceeded) {
			return &Error{Kind: KindTimeout, Cause: err}
		}
		return &Error{Kind: KindCanceled, Cause: err}
	}
	if errors.Is(budget.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Cause: err}
	}

	var perr *llm.ProviderError
	if errors.As(err, &perr) {
		return &Error{Kind: KindUpstreamError, Status: perr.StatusCode, Detail: perr.Body, Cause: err}
	}
	if errors.Is(err, llm.ErrEmptyResponse) || errors.Is(err, llm.ErrMalformedResponse) {
		return &Error{Kind: KindEmptyResponse, Cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Cause: err}
	}
	return &Error{Kind: KindNetworkFailure, Cause: err}
}

// statusClientClosedRequest is the non-standard status used when the caller
// went away before the narrative was ready.
const statusClientClosedRequest = 499

// HTTPStatus maps a narrative error to the status the narrative endpoint
// answers with.
func HTTPStatus(err error) int {
	var ne *Error
	if !errors.As(err, &ne) {
		return http.StatusInternalServerError
	}
	switch ne.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindUpstreamError:
		if ne.Status >= 400 && ne.Status <= 599 {
			return ne.Status
		}
		return http.StatusBadGateway
	case KindEmptyResponse, KindNetworkFailure:
		return http.StatusBadGateway
	case KindCanceled:
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}
