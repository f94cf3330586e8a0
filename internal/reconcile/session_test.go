package reconcile

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/readiness-quiz/internal/narrative"
	"github.com/jonathan/readiness-quiz/internal/types"
)

func submitted(t *testing.T, opts ...SessionOption) *Session {
	t.Helper()
	s := NewSession(opts...)
	_, err := s.Submit(localProfile, *pendingRec)
	require.NoError(t, err)
	return s
}

func TestSession_HappyPath(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s := NewSession(WithClock(func() time.Time { return fixed }))
	assert.Equal(t, types.StateNoResult, s.State())

	out, err := s.Submit(localProfile, *pendingRec)
	require.NoError(t, err)
	assert.Equal(t, types.StateLocalOnly, out.State)
	assert.Equal(t, fixed, out.Result.UpdatedAt)

	payload, err := s.Begin()
	require.NoError(t, err)
	assert.Equal(t, pendingRec.Answers, payload.Answers)
	assert.True(t, s.InFlight())

	out, err = s.Succeed(&types.NarrativeResult{Archetype: "Скептик", Body: "Текст"})
	require.NoError(t, err)
	assert.Equal(t, types.StateReconciled, out.State)
	assert.Equal(t, "Скептик", s.Snapshot().Archetype)
	assert.Nil(t, s.Pending())
	assert.False(t, s.InFlight())
}

func TestSession_TimeoutThenRetry(t *testing.T) {
	s := submitted(t)

	first, err := s.Begin()
	require.NoError(t, err)

	out, err := s.Fail(&narrative.Error{Kind: narrative.KindTimeout})
	require.NoError(t, err)
	assert.Equal(t, types.StateFailed, out.State)
	require.NotNil(t, out.Result.Failure)
	assert.Equal(t, "timeout", out.Result.Failure.Kind)
	assert.Equal(t, MessageRetryPossible, out.Message)

	// Pending record untouched by the failure.
	assert.Equal(t, pendingRec.Answers, s.Pending().Answers)

	// No automatic way out of Failed.
	_, err = s.Begin()
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, types.StateFailed, te.From)

	out, err = s.Retry()
	require.NoError(t, err)
	assert.Equal(t, types.StateLocalOnly, out.State)

	second, err := s.Begin()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, s.Snapshot().Attempts)
}

func TestSession_RetryOnlyFromFailed(t *testing.T) {
	s := NewSession()
	_, err := s.Retry()
	assert.Error(t, err)

	s = submitted(t)
	_, err = s.Retry()
	var te *TransitionError
	assert.ErrorAs(t, err, &te)
}

func TestSession_AttemptsBounded(t *testing.T) {
	s := submitted(t, WithMaxAttempts(2))

	for i := 0; i < 2; i++ {
		_, err := s.Begin()
		require.NoError(t, err)
		out, err := s.Fail(&narrative.Error{Kind: narrative.KindNetworkFailure})
		require.NoError(t, err)
		if i == 0 {
			assert.Equal(t, MessageRetryPossible, out.Message)
			_, err = s.Retry()
			require.NoError(t, err)
		} else {
			assert.Equal(t, MessageRedoAction, out.Message)
		}
	}

	_, err := s.Retry()
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
}

func TestSession_PermanentFailureSaysRedo(t *testing.T) {
	s := submitted(t)
	_, err := s.Begin()
	require.NoError(t, err)

	out, err := s.Fail(&narrative.Error{Kind: narrative.KindUpstreamError, Status: 400})
	require.NoError(t, err)
	assert.Equal(t, MessageRedoAction, out.Message)
	assert.False(t, out.Result.Failure.Retryable)
}

func TestSession_SingleFlight(t *testing.T) {
	s := submitted(t)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Begin(); err == nil {
				wins.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrInFlight)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())

	_, err := s.Submit(localProfile, *pendingRec)
	assert.ErrorIs(t, err, ErrInFlight)
}

func TestSession_CancelKeepsState(t *testing.T) {
	s := submitted(t)
	_, err := s.Begin()
	require.NoError(t, err)

	s.Cancel()
	assert.Equal(t, types.StateLocalOnly, s.State())
	assert.False(t, s.InFlight())
	assert.Equal(t, 0, s.Snapshot().Attempts)
	assert.NotNil(t, s.Pending())

	_, err = s.Succeed(&types.NarrativeResult{Archetype: "Скептик", Body: "x"})
	assert.ErrorIs(t, err, ErrNotInFlight)
	_, err = s.Fail(errors.New("late"))
	assert.ErrorIs(t, err, ErrNotInFlight)
}

func TestRestore(t *testing.T) {
	s := Restore(nil, nil)
	assert.Equal(t, types.StateNoResult, s.State())

	s = Restore(nil, pendingRec)
	assert.Equal(t, types.StateLocalOnly, s.State())
	_, err := s.Begin()
	assert.NoError(t, err)

	failed := &types.StoredResult{
		State:   types.StateFailed,
		Profile: localProfile,
		Failure: &types.Failure{Kind: "timeout", Retryable: true},
	}
	s = Restore(failed, pendingRec)
	assert.Equal(t, types.StateFailed, s.State())
	assert.Equal(t, MessageRetryPossible, s.Outcome().Message)

	done := &types.StoredResult{State: types.StateReconciled, Profile: localProfile, Archetype: "Скептик", Narrative: "x"}
	s = Restore(done, pendingRec)
	assert.Equal(t, types.StateReconciled, s.State())
	assert.Nil(t, s.Pending())
}
