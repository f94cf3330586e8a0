package reconcile

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/readiness-quiz/internal/archetype"
	"github.com/jonathan/readiness-quiz/internal/types"
)

// DefaultMaxAttempts bounds narrative attempts per submission.
const DefaultMaxAttempts = 3

var (
	// ErrInFlight is returned when a narrative attempt is already outstanding.
	ErrInFlight = errors.New("narrative request already in flight")
	// ErrNoPending is returned when there is no pending record to replay.
	ErrNoPending = errors.New("no pending narrative request")
	// ErrAttemptsExhausted is returned when the retry budget is spent.
	ErrAttemptsExhausted = errors.New("narrative attempts exhausted")
	// ErrNotInFlight is returned when completing an attempt that never began.
	ErrNotInFlight = errors.New("no narrative request in flight")
)

// TransitionError reports an action that is not allowed from the current state.
type TransitionError struct {
	From   types.ResultState
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from state %s", e.Action, e.From)
}

// Session is the result state machine of one quiz session. It is safe for
// concurrent use; at most one narrative attempt is in flight at a time.
type Session struct {
	mu          sync.Mutex
	result      types.StoredResult
	pending     *types.PendingRequest
	inFlight    bool
	maxAttempts int
	resolver    *archetype.Resolver
	now         func() time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithMaxAttempts sets the attempt budget per submission.
func WithMaxAttempts(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithClock sets the time source used for UpdatedAt.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession creates a session in NoResult.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		result:      types.StoredResult{State: types.StateNoResult},
		maxAttempts: DefaultMaxAttempts,
		resolver:    defaultResolver,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore rebuilds a session from persisted state. A missing or unreadable
// result is NoResult; a pending record without a result is LocalOnly.
func Restore(result *types.StoredResult, pending *types.PendingRequest, opts ...SessionOption) *Session {
	s := NewSession(opts...)
	out := reconcileWith(s.resolver, result, nil, types.Profile{}, pending, s.maxAttempts)
	s.result = out.Result
	if !out.ClearPending {
		s.pending = pending
	}
	return s
}

// State returns the current state.
func (s *Session) State() types.ResultState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result.State
}

// InFlight reports whether a narrative attempt is outstanding.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Pending returns a copy of the pending record, or nil.
func (s *Session) Pending() *types.PendingRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	p := *s.pending
	return &p
}

// Snapshot returns the current stored result.
func (s *Session) Snapshot() types.StoredResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Outcome reconciles the current state for display.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := s.result
	return reconcileWith(s.resolver, &result, nil, result.Profile, s.pending, s.maxAttempts)
}

// Submit starts a new answer set: any previous result is discarded and the
// session moves to LocalOnly with a fresh attempt budget.
func (s *Session) Submit(profile types.Profile, pending types.PendingRequest) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return Outcome{}, ErrInFlight
	}

	s.pending = &pending
	out := reconcileWith(s.resolver, nil, nil, profile, s.pending, s.maxAttempts)
	out.Result.UpdatedAt = s.now()
	s.result = out.Result
	return out, nil
}

// Begin marks a narrative attempt as in flight and returns the payload to
// send. It requires LocalOnly, a pending record and no other attempt.
func (s *Session) Begin() (*types.PendingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return nil, ErrInFlight
	}
	if s.result.State != types.StateLocalOnly {
		return nil, &TransitionError{From: s.result.State, Action: "begin"}
	}
	if s.pending == nil {
		return nil, ErrNoPending
	}
	if s.result.Attempts >= s.maxAttempts {
		return nil, ErrAttemptsExhausted
	}

	s.inFlight = true
	s.result.Attempts++
	p := *s.pending
	return &p, nil
}

// Succeed completes the in-flight attempt with a narrative.
func (s *Session) Succeed(narr *types.NarrativeResult) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inFlight {
		return Outcome{}, ErrNotInFlight
	}
	s.inFlight = false

	prior := s.result
	out := reconcileWith(s.resolver, &prior, narr, prior.Profile, s.pending, s.maxAttempts)
	out.Result.UpdatedAt = s.now()
	s.result = out.Result
	if out.ClearPending {
		s.pending = nil
	}
	return out, nil
}

// Fail completes the in-flight attempt with an error. The pending record is
// left untouched.
func (s *Session) Fail(err error) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inFlight {
		return Outcome{}, ErrNotInFlight
	}
	s.inFlight = false

	now := s.now()
	failure := FailureFrom(err, now)
	s.result.State = types.StateFailed
	s.result.Failure = &failure
	s.result.UpdatedAt = now

	prior := s.result
	out := reconcileWith(s.resolver, &prior, nil, prior.Profile, s.pending, s.maxAttempts)
	s.result = out.Result
	return out, nil
}

// Cancel releases the in-flight attempt without changing state, so the
// attempt can be resumed later. The attempt does not count against the budget.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		s.inFlight = false
		s.result.Attempts--
	}
}

// Retry moves a Failed session back to LocalOnly so the preserved payload
// can be sent again. It is the only way out of Failed.
func (s *Session) Retry() (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result.State != types.StateFailed {
		return Outcome{}, &TransitionError{From: s.result.State, Action: "retry"}
	}
	if s.pending == nil {
		return Outcome{}, ErrNoPending
	}
	if s.result.Attempts >= s.maxAttempts {
		return Outcome{}, ErrAttemptsExhausted
	}

	s.result.State = types.StateLocalOnly
	s.result.UpdatedAt = s.now()
	prior := s.result
	out := reconcileWith(s.resolver, &prior, nil, prior.Profile, s.pending, s.maxAttempts)
	s.result = out.Result
	return out, nil
}
