// Package server provides the HTTP API for the readiness quiz funnel.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/readiness-quiz/internal/funnel"
	"github.com/jonathan/readiness-quiz/internal/leads"
	"github.com/jonathan/readiness-quiz/internal/narrative"
	"github.com/jonathan/readiness-quiz/internal/reconcile"
	"github.com/jonathan/readiness-quiz/internal/types"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrSessionMismatch indicates a session token used for another session
type ErrSessionMismatch struct {
	SessionID string
}

func (e *ErrSessionMismatch) Error() string {
	return fmt.Sprintf("token does not grant access to session %s", e.SessionID)
}

// statusClientClosedRequest is answered when the caller went away first.
const statusClientClosedRequest = 499

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		mismatch   *ErrSessionMismatch
		input      *funnel.InputError
		invalid    *leads.ValidationError
		transition *reconcile.TransitionError
		narr       *narrative.Error
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation), errors.As(err, &input), errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &mismatch):
		return http.StatusForbidden
	case errors.Is(err, funnel.ErrSessionBusy), errors.Is(err, reconcile.ErrInFlight):
		return http.StatusConflict
	case errors.As(err, &transition), errors.Is(err, reconcile.ErrNoPending):
		return http.StatusConflict
	case errors.Is(err, reconcile.ErrAttemptsExhausted):
		return http.StatusTooManyRequests
	case errors.As(err, &narr):
		return narrative.HTTPStatus(err)
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorCode returns the stable machine-readable code sent with an error body.
func errorCode(err error) string {
	var (
		transition *reconcile.TransitionError
		narr       *narrative.Error
	)
	switch {
	case errors.Is(err, funnel.ErrSessionBusy), errors.Is(err, reconcile.ErrInFlight):
		return "session_busy"
	case errors.Is(err, reconcile.ErrAttemptsExhausted):
		return "attempts_exhausted"
	case errors.Is(err, reconcile.ErrNoPending):
		return "nothing_to_retry"
	case errors.As(err, &transition):
		if transition.From == types.StateNoResult {
			return "session_not_found"
		}
		return "invalid_state"
	case errors.As(err, &narr):
		return string(narr.Kind)
	}
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusForbidden:
		return "forbidden"
	case statusClientClosedRequest:
		return "canceled"
	}
	return "internal_error"
}
