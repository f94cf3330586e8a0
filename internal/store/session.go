package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/readiness-quiz/internal/types"
)

// Per-session keys.
const (
	KeyAnswers = "testData"
	KeyVerbose = "answersVerbose"
	KeyPending = "pendingAIRequest"
	KeyResult  = "testResults"
)

// SessionKeys lists every key a session writes.
var SessionKeys = []string{KeyAnswers, KeyVerbose, KeyPending, KeyResult}

// SessionStore reads and writes typed session values on top of a KV.
// Values that are missing or cannot be decoded read as absent; only
// backend failures are returned as errors.
type SessionStore struct {
	kv     KV
	logger *zap.Logger
}

// NewSessionStore wraps kv. A nil logger is replaced with a no-op logger.
func NewSessionStore(kv KV, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{kv: kv, logger: logger}
}

func sessionKey(sessionID, name string) string {
	return sessionID + ":" + name
}

func (s *SessionStore) put(ctx context.Context, sessionID, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return s.kv.Set(ctx, sessionKey(sessionID, name), data)
}

// get decodes the value into dst and reports whether it was present and valid.
func (s *SessionStore) get(ctx context.Context, sessionID, name string, dst any) (bool, error) {
	data, ok, err := s.kv.Get(ctx, sessionKey(sessionID, name))
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("discarding unreadable session value",
			zap.String("session", sessionID),
			zap.String("key", name),
			zap.Error(err),
		)
		return false, nil
	}
	return true, nil
}

// SaveAnswers stores the raw answer codes.
func (s *SessionStore) SaveAnswers(ctx context.Context, sessionID string, answers types.AnswerSet) error {
	return s.put(ctx, sessionID, KeyAnswers, answers)
}

// Answers returns the stored answer codes, or nil.
func (s *SessionStore) Answers(ctx context.Context, sessionID string) (types.AnswerSet, error) {
	var answers types.AnswerSet
	ok, err := s.get(ctx, sessionID, KeyAnswers, &answers)
	if !ok {
		return nil, err
	}
	return answers, nil
}

// SaveVerbose stores the human-readable answers.
func (s *SessionStore) SaveVerbose(ctx context.Context, sessionID string, qa []types.QA) error {
	return s.put(ctx, sessionID, KeyVerbose, qa)
}

// Verbose returns the stored human-readable answers, or nil.
func (s *SessionStore) Verbose(ctx context.Context, sessionID string) ([]types.QA, error) {
	var qa []types.QA
	ok, err := s.get(ctx, sessionID, KeyVerbose, &qa)
	if !ok {
		return nil, err
	}
	return qa, nil
}

// SavePending stores the replayable narrative request.
func (s *SessionStore) SavePending(ctx context.Context, sessionID string, p types.PendingRequest) error {
	return s.put(ctx, sessionID, KeyPending, p)
}

// Pending returns the pending record, or nil. A record without answers is
// treated as unreadable.
func (s *SessionStore) Pending(ctx context.Context, sessionID string) (*types.PendingRequest, error) {
	var p types.PendingRequest
	ok, err := s.get(ctx, sessionID, KeyPending, &p)
	if !ok {
		return nil, err
	}
	if p.Answers.Empty() {
		s.logger.Warn("discarding pending request without answers", zap.String("session", sessionID))
		return nil, nil
	}
	return &p, nil
}

// ClearPending removes the pending record.
func (s *SessionStore) ClearPending(ctx context.Context, sessionID string) error {
	return s.kv.Remove(ctx, sessionKey(sessionID, KeyPending))
}

// SaveResult stores the result snapshot.
func (s *SessionStore) SaveResult(ctx context.Context, sessionID string, r types.StoredResult) error {
	return s.put(ctx, sessionID, KeyResult, r)
}

// Result returns the stored result snapshot, or nil. A snapshot with an
// unknown state is treated as unreadable.
func (s *SessionStore) Result(ctx context.Context, sessionID string) (*types.StoredResult, error) {
	var r types.StoredResult
	ok, err := s.get(ctx, sessionID, KeyResult, &r)
	if !ok {
		return nil, err
	}
	switch r.State {
	case types.StateNoResult, types.StateLocalOnly, types.StateReconciled, types.StateFailed:
		return &r, nil
	default:
		s.logger.Warn("discarding result with unknown state",
			zap.String("session", sessionID),
			zap.String("state", string(r.State)),
		)
		return nil, nil
	}
}

// Delete removes every key of the session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	for _, name := range SessionKeys {
		if err := s.kv.Remove(ctx, sessionKey(sessionID, name)); err != nil {
			return err
		}
	}
	return nil
}
