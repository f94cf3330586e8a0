// Package reconcile merges the locally computed profile with the narrative
// returned by the generator and owns the per-session result state machine.
package reconcile

import (
	"errors"
	"time"

	"github.com/jonathan/readiness-quiz/internal/archetype"
	"github.com/jonathan/readiness-quiz/internal/narrative"
	"github.com/jonathan/readiness-quiz/internal/types"
)

// MessageClass tells the presentation layer what to say to the user.
type MessageClass string

// Message classes.
const (
	MessageNone          MessageClass = ""
	MessageRetryPossible MessageClass = "retry_possible"
	MessageRedoAction    MessageClass = "redo_action"
)

// Outcome is the result of reconciling stored state with a narrative.
type Outcome struct {
	State        types.ResultState  `json:"state"`
	Result       types.StoredResult `json:"result"`
	ClearPending bool               `json:"clearPending"`
	Message      MessageClass       `json:"message,omitempty"`
}

var defaultResolver = archetype.NewResolver()

// Reconcile decides what to persist and display. It is pure: the same
// inputs always give the same outcome, and the archetype it reports is
// always canonical.
//
//   - A narrative moves the result to Reconciled and clears the pending record.
//   - A prior Reconciled result stays Reconciled.
//   - A prior Failed result stays Failed until an explicit retry.
//   - A local profile alone is LocalOnly.
//   - Nothing at all is NoResult.
func Reconcile(prior *types.StoredResult, narr *types.NarrativeResult, local types.Profile, pending *types.PendingRequest) Outcome {
	return reconcileWith(defaultResolver, prior, narr, local, pending, 0)
}

func reconcileWith(res *archetype.Resolver, prior *types.StoredResult, narr *types.NarrativeResult, local types.Profile, pending *types.PendingRequest, maxAttempts int) Outcome {
	if local.IsZero() && prior != nil {
		local = prior.Profile
	}
	if local.IsZero() && pending != nil {
		local = pending.Profile
	}

	base := types.StoredResult{Profile: local, Readiness: local.Readiness}
	if prior != nil {
		base.Attempts = prior.Attempts
		base.UpdatedAt = prior.UpdatedAt
	}

	switch {
	case narr != nil:
		base.State = types.StateReconciled
		base.Archetype = res.ResolveOr(narr.Archetype, local.DisplayName).Name
		base.Narrative = narr.Body
		return Outcome{State: base.State, Result: base, ClearPending: true}

	case prior != nil && prior.State == types.StateReconciled:
		out := *prior
		out.Archetype = res.ResolveOr(prior.Archetype, local.DisplayName).Name
		return Outcome{State: out.State, Result: out, ClearPending: pending != nil}

	case prior != nil && prior.State == types.StateFailed:
		out := *prior
		out.Archetype = res.Resolve(local.DisplayName).Name
		msg := MessageRedoAction
		if pending != nil && prior.Failure != nil && prior.Failure.Retryable &&
			(maxAttempts <= 0 || prior.Attempts < maxAttempts) {
			msg = MessageRetryPossible
		}
		return Outcome{State: out.State, Result: out, Message: msg}

	case !local.IsZero():
		base.State = types.StateLocalOnly
		base.Archetype = res.Resolve(local.DisplayName).Name
		msg := MessageNone
		if pending == nil {
			msg = MessageRedoAction
		}
		return Outcome{State: base.State, Result: base, Message: msg}

	default:
		return Outcome{State: types.StateNoResult, Result: types.StoredResult{State: types.StateNoResult}}
	}
}

// FailureFrom describes a narrative error for storage.
func FailureFrom(err error, at time.Time) types.Failure {
	f := types.Failure{Kind: string(narrative.KindNetworkFailure), Detail: err.Error(), Retryable: true, At: at}
	var ne *narrative.Error
	if errors.As(err, &ne) {
		f.Kind = string(ne.Kind)
		f.Status = ne.Status
		f.Detail = ne.Detail
		f.Retryable = ne.Retryable()
	}
	return f
}
