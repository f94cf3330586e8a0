package reconcile

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/readiness-quiz/internal/archetype"
	"github.com/jonathan/readiness-quiz/internal/narrative"
	"github.com/jonathan/readiness-quiz/internal/types"
)

var (
	localProfile = types.Profile{Code: "practitioner", DisplayName: "Практик", Tier: types.TierWarmHot, Readiness: 62}
	pendingRec   = &types.PendingRequest{Answers: types.AnswerSet{"q1": "C"}, Profile: localProfile}
)

func TestReconcile_NoResult(t *testing.T) {
	out := Reconcile(nil, nil, types.Profile{}, nil)
	assert.Equal(t, types.StateNoResult, out.State)
	assert.False(t, out.ClearPending)
}

func TestReconcile_LocalOnly(t *testing.T) {
	out := Reconcile(nil, nil, localProfile, pendingRec)
	assert.Equal(t, types.StateLocalOnly, out.State)
	assert.Equal(t, "Прагматик", out.Result.Archetype)
	assert.Equal(t, 62, out.Result.Readiness)
	assert.False(t, out.ClearPending)
	assert.Equal(t, MessageNone, out.Message)

	out = Reconcile(nil, nil, localProfile, nil)
	assert.Equal(t, MessageRedoAction, out.Message)
}

func TestReconcile_NarrativeMerges(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Скептик", "Скептик"},
		{"Зигзаг", "Прагматик"},
		{"Стратег", "Визионер"},
	}
	for _, tt := range tests {
		narr := &types.NarrativeResult{Archetype: tt.label, Body: "Текст"}
		out := Reconcile(&types.StoredResult{State: types.StateLocalOnly, Attempts: 1}, narr, localProfile, pendingRec)

		assert.Equal(t, types.StateReconciled, out.State)
		assert.Equal(t, tt.want, out.Result.Archetype)
		assert.True(t, archetype.IsCanonical(out.Result.Archetype))
		assert.Equal(t, "Текст", out.Result.Narrative)
		assert.Equal(t, 1, out.Result.Attempts)
		assert.True(t, out.ClearPending)
	}
}

func TestReconcile_PriorReconciledIsKept(t *testing.T) {
	prior := &types.StoredResult{State: types.StateReconciled, Profile: localProfile, Archetype: "Скептик", Narrative: "Текст"}

	out := Reconcile(prior, nil, types.Profile{}, nil)
	assert.Equal(t, types.StateReconciled, out.State)
	assert.Equal(t, "Скептик", out.Result.Archetype)
	assert.False(t, out.ClearPending)

	out = Reconcile(prior, nil, types.Profile{}, pendingRec)
	assert.True(t, out.ClearPending)
}

func TestReconcile_FailedMessages(t *testing.T) {
	retryable := &types.Failure{Kind: string(narrative.KindTimeout), Retryable: true}
	permanent := &types.Failure{Kind: string(narrative.KindUpstreamError), Status: 400}

	out := Reconcile(&types.StoredResult{State: types.StateFailed, Profile: localProfile, Failure: retryable}, nil, localProfile, pendingRec)
	assert.Equal(t, types.StateFailed, out.State)
	assert.Equal(t, MessageRetryPossible, out.Message)
	assert.False(t, out.ClearPending)

	out = Reconcile(&types.StoredResult{State: types.StateFailed, Profile: localProfile, Failure: permanent}, nil, localProfile, pendingRec)
	assert.Equal(t, MessageRedoAction, out.Message)

	out = Reconcile(&types.StoredResult{State: types.StateFailed, Profile: localProfile, Failure: retryable}, nil, localProfile, nil)
	assert.Equal(t, MessageRedoAction, out.Message)
}

func TestReconcile_Pure(t *testing.T) {
	prior := &types.StoredResult{State: types.StateLocalOnly, Profile: localProfile, UpdatedAt: time.Unix(100, 0)}
	narr := &types.NarrativeResult{Archetype: "Аналитик", Body: "Текст"}

	first := Reconcile(prior, narr, localProfile, pendingRec)
	second := Reconcile(prior, narr, localProfile, pendingRec)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("outcomes differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, types.StateLocalOnly, prior.State, "prior must not be mutated")
}

func TestFailureFrom(t *testing.T) {
	at := time.Unix(200, 0)

	f := FailureFrom(&narrative.Error{Kind: narrative.KindUpstreamError, Status: 503, Detail: "busy"}, at)
	assert.Equal(t, "upstream_error", f.Kind)
	assert.Equal(t, 503, f.Status)
	assert.True(t, f.Retryable)
	assert.Equal(t, at, f.At)

	f = FailureFrom(&narrative.Error{Kind: narrative.KindUpstreamError, Status: 400}, at)
	assert.False(t, f.Retryable)
}
