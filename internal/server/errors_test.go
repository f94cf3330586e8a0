package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/readiness-quiz/internal/funnel"
	"github.com/jonathan/readiness-quiz/internal/leads"
	"github.com/jonathan/readiness-quiz/internal/narrative"
	"github.com/jonathan/readiness-quiz/internal/reconcile"
	"github.com/jonathan/readiness-quiz/internal/types"
)

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "body", Message: "unexpected EOF"}
	assert.Equal(t, "validation error: body - unexpected EOF", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestErrSessionMismatch(t *testing.T) {
	err := &ErrSessionMismatch{SessionID: "abc"}
	assert.Equal(t, "token does not grant access to session abc", err.Error())
	assert.Equal(t, http.StatusForbidden, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
		code     string
	}{
		{name: "nil", err: nil, expected: http.StatusOK},
		{name: "InputError", err: &funnel.InputError{Field: "answers", Message: "missing"}, expected: http.StatusBadRequest, code: "invalid_request"},
		{name: "lead ValidationError", err: &leads.ValidationError{Message: "bad email"}, expected: http.StatusBadRequest, code: "invalid_request"},
		{name: "session busy", err: funnel.ErrSessionBusy, expected: http.StatusConflict, code: "session_busy"},
		{name: "in flight", err: fmt.Errorf("begin: %w", reconcile.ErrInFlight), expected: http.StatusConflict, code: "session_busy"},
		{name: "no pending", err: reconcile.ErrNoPending, expected: http.StatusConflict, code: "nothing_to_retry"},
		{name: "transition", err: &reconcile.TransitionError{From: types.StateReconciled, Action: "retry"}, expected: http.StatusConflict, code: "invalid_state"},
		{name: "unknown session", err: &reconcile.TransitionError{From: types.StateNoResult, Action: "retry"}, expected: http.StatusConflict, code: "session_not_found"},
		{name: "attempts exhausted", err: reconcile.ErrAttemptsExhausted, expected: http.StatusTooManyRequests, code: "attempts_exhausted"},
		{name: "narrative timeout", err: &narrative.Error{Kind: narrative.KindTimeout}, expected: http.StatusGatewayTimeout, code: "timeout"},
		{name: "narrative upstream", err: &narrative.Error{Kind: narrative.KindUpstreamError, Status: 503}, expected: http.StatusServiceUnavailable, code: "upstream_error"},
		{name: "canceled", err: context.Canceled, expected: statusClientClosedRequest, code: "canceled"},
		{name: "StoreError", err: &funnel.StoreError{Message: "failed to save answers", Cause: errors.New("disk full")}, expected: http.StatusInternalServerError, code: "internal_error"},
		{name: "unknown error", err: errors.New("boom"), expected: http.StatusInternalServerError, code: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
			if tt.err != nil {
				assert.Equal(t, tt.code, errorCode(tt.err))
			}
		})
	}
}
