package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/readiness-quiz/internal/types"
)

func newSessionStore(t *testing.T) (*SessionStore, *Memory, *observer.ObservedLogs) {
	t.Helper()
	mem, err := NewMemory(16)
	require.NoError(t, err)
	core, logs := observer.New(zap.WarnLevel)
	return NewSessionStore(mem, zap.New(core)), mem, logs
}

func TestSessionStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newSessionStore(t)

	answers := types.AnswerSet{"q1": "A", "q2": "C"}
	verbose := []types.QA{{QuestionID: "q1", QuestionText: "Q1", AnswerText: "A1"}}
	profile := types.Profile{Code: "practitioner", DisplayName: "Практик", Tier: types.TierWarmHot, Readiness: 60}
	pending := types.PendingRequest{
		Answers:   answers,
		Verbose:   verbose,
		Profile:   profile,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	result := types.StoredResult{
		State:     types.StateLocalOnly,
		Profile:   profile,
		Readiness: 60,
		Archetype: "Оптимизатор",
		UpdatedAt: time.Date(2024, 1, 2, 3, 4, 6, 0, time.UTC),
	}

	require.NoError(t, s.SaveAnswers(ctx, "s1", answers))
	require.NoError(t, s.SaveVerbose(ctx, "s1", verbose))
	require.NoError(t, s.SavePending(ctx, "s1", pending))
	require.NoError(t, s.SaveResult(ctx, "s1", result))

	gotAnswers, err := s.Answers(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, answers, gotAnswers)

	gotVerbose, err := s.Verbose(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, verbose, gotVerbose)

	gotPending, err := s.Pending(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, gotPending)
	if diff := cmp.Diff(pending, *gotPending); diff != "" {
		t.Errorf("pending mismatch (-want +got):\n%s", diff)
	}

	gotResult, err := s.Result(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, gotResult)
	if diff := cmp.Diff(result, *gotResult); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	// Other sessions are isolated
	other, err := s.Result(ctx, "s2")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestSessionStore_CorruptValuesReadAsAbsent(t *testing.T) {
	ctx := context.Background()
	s, mem, logs := newSessionStore(t)

	require.NoError(t, mem.Set(ctx, sessionKey("s1", KeyResult), []byte("{not json")))
	require.NoError(t, mem.Set(ctx, sessionKey("s1", KeyPending), []byte(`{"testData":{}}`)))
	require.NoError(t, mem.Set(ctx, sessionKey("s2", KeyResult), []byte(`{"state":"exploded"}`)))

	r, err := s.Result(ctx, "s1")
	assert.NoError(t, err)
	assert.Nil(t, r)

	p, err := s.Pending(ctx, "s1")
	assert.NoError(t, err)
	assert.Nil(t, p)

	r, err = s.Result(ctx, "s2")
	assert.NoError(t, err)
	assert.Nil(t, r)

	assert.Equal(t, 3, logs.Len())
}

func TestSessionStore_ClearPendingAndDelete(t *testing.T) {
	ctx := context.Background()
	s, mem, _ := newSessionStore(t)

	require.NoError(t, s.SaveAnswers(ctx, "s1", types.AnswerSet{"q1": "A"}))
	require.NoError(t, s.SavePending(ctx, "s1", types.PendingRequest{Answers: types.AnswerSet{"q1": "A"}}))
	require.NoError(t, s.SaveResult(ctx, "s1", types.StoredResult{State: types.StateLocalOnly}))

	require.NoError(t, s.ClearPending(ctx, "s1"))
	p, err := s.Pending(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, p)

	r, err := s.Result(ctx, "s1")
	require.NoError(t, err)
	assert.NotNil(t, r)

	require.NoError(t, s.Delete(ctx, "s1"))
	assert.Equal(t, 0, mem.Len())
}

func TestSessionStore_MemoryEvictsWholeSessions(t *testing.T) {
	ctx := context.Background()
	mem, err := NewMemory(1)
	require.NoError(t, err)
	s := NewSessionStore(mem, nil)

	answers := types.AnswerSet{"q1": "A"}
	require.NoError(t, s.SaveAnswers(ctx, "s1", answers))
	require.NoError(t, s.SaveVerbose(ctx, "s1", []types.QA{{QuestionID: "q1", AnswerText: "A"}}))
	require.NoError(t, s.SavePending(ctx, "s1", types.PendingRequest{Answers: answers}))
	require.NoError(t, s.SaveResult(ctx, "s1", types.StoredResult{State: types.StateFailed, Attempts: 1}))

	// A failed session keeps the pending request it needs for a retry.
	p, err := s.Pending(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, answers, p.Answers)
	assert.Equal(t, 1, mem.Len())

	require.NoError(t, s.SaveAnswers(ctx, "s2", answers))

	r, err := s.Result(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, r)
	p, err = s.Pending(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, 1, mem.Len())
}
