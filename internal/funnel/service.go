// Package funnel runs the quiz funnel end to end: scoring a submission,
// forwarding the lead, requesting the narrative and reconciling the result
// with durable session state.
package funnel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/readiness-quiz/internal/gift"
	"github.com/jonathan/readiness-quiz/internal/leads"
	"github.com/jonathan/readiness-quiz/internal/narrative"
	"github.com/jonathan/readiness-quiz/internal/observability"
	"github.com/jonathan/readiness-quiz/internal/quiz"
	"github.com/jonathan/readiness-quiz/internal/reconcile"
	"github.com/jonathan/readiness-quiz/internal/scoring"
	"github.com/jonathan/readiness-quiz/internal/store"
	"github.com/jonathan/readiness-quiz/internal/types"
)

// Defaults for Deps fields left zero.
const (
	DefaultLeadTimeout  = 15 * time.Second
	DefaultSessionCache = 4096
)

// Deps are the collaborators of a Service. Bank, Scheme, Requestor and Store
// are required.
type Deps struct {
	Bank        *quiz.Bank
	Scheme      scoring.Scheme
	Thresholds  scoring.Thresholds
	Requestor   *narrative.Requestor
	Store       *store.SessionStore
	Leads       leads.Sink
	Mailer      gift.Mailer
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	MaxAttempts int
	LeadTimeout time.Duration
	CacheSize   int
	Now         func() time.Time
}

// Service is the funnel. It is safe for concurrent use.
type Service struct {
	bank        *quiz.Bank
	scheme      scoring.Scheme
	thresholds  scoring.Thresholds
	requestor   *narrative.Requestor
	store       *store.SessionStore
	leads       leads.Sink
	mailer      gift.Mailer
	metrics     *observability.Metrics
	logger      *zap.Logger
	maxAttempts int
	leadTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions *lru.Cache[string, *reconcile.Session]
	flights  singleflight.Group
}

// New creates a Service.
func New(d Deps) (*Service, error) {
	if d.Bank == nil || d.Scheme == nil || d.Requestor == nil || d.Store == nil {
		return nil, fmt.Errorf("funnel: bank, scheme, requestor and store are required")
	}
	if d.Thresholds == nil {
		d.Thresholds = scoring.DefaultThresholds
	}
	if err := d.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("funnel: %w", err)
	}
	if d.Leads == nil {
		d.Leads = leads.NopSink{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.MaxAttempts <= 0 {
		d.MaxAttempts = reconcile.DefaultMaxAttempts
	}
	if d.LeadTimeout <= 0 {
		d.LeadTimeout = DefaultLeadTimeout
	}
	if d.CacheSize <= 0 {
		d.CacheSize = DefaultSessionCache
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	cache, err := lru.New[string, *reconcile.Session](d.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("funnel: session cache: %w", err)
	}

	return &Service{
		bank:        d.Bank,
		scheme:      d.Scheme,
		thresholds:  d.Thresholds,
		requestor:   d.Requestor,
		store:       d.Store,
		leads:       d.Leads,
		mailer:      d.Mailer,
		metrics:     d.Metrics,
		logger:      d.Logger,
		maxAttempts: d.MaxAttempts,
		leadTimeout: d.LeadTimeout,
		now:         d.Now,
		sessions:    cache,
	}, nil
}

// Bank returns the question bank.
func (s *Service) Bank() *quiz.Bank { return s.bank }

// Thresholds returns the threshold table in use.
func (s *Service) Thresholds() scoring.Thresholds { return s.thresholds }

// SubmitInput is a completed quiz.
type SubmitInput struct {
	SessionID string // empty starts a new session
	Answers   types.AnswerSet
	Contact   *types.Contact
}

// SubmitResult is the locally computed result of a submission.
type SubmitResult struct {
	SessionID       string               `json:"sessionId"`
	Score           types.ScoreVector    `json:"score"`
	Profile         types.Profile        `json:"profile"`
	Problems        []quiz.AnswerProblem `json:"problems,omitempty"`
	Recommendations []string             `json:"recommendations"`
	Outcome         reconcile.Outcome    `json:"outcome"`
	LeadForwarded   bool                 `json:"leadForwarded"`
}

// Submit scores a quiz, persists the session state, and forwards the lead
// when contact details are present. The lead is forwarded before any
// narrative is requested and its outcome never affects the submission.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if in.Answers.Empty() {
		return nil, &InputError{Field: "answers", Message: "Missing or invalid answers"}
	}
	if in.Contact != nil {
		lead := types.Lead{Contact: *in.Contact}
		if err := lead.Validate(); err != nil {
			return nil, &InputError{Field: "contact", Message: err.Error()}
		}
	}

	id := in.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	answers := in.Answers.Clone()

	report := s.bank.CheckAnswers(answers)
	if !report.Clean() {
		fields := make([]string, 0, len(report.Problems))
		for _, p := range report.Problems {
			fields = append(fields, p.String())
		}
		s.logger.Info("answer problems", zap.String("session", id), zap.Strings("problems", fields))
	}

	vec := scoring.Score(answers, s.scheme)
	profile := scoring.Classify(vec, s.thresholds)
	if len(vec.Ignored) > 0 {
		s.logger.Info("answers ignored by scoring",
			zap.String("session", id),
			zap.String("scheme", vec.Scheme),
			zap.Int("count", len(vec.Ignored)))
	}
	s.metrics.ObserveSubmission(string(profile.Tier))

	verbose := s.bank.Verbose(answers)
	pending := types.PendingRequest{Answers: answers, Verbose: verbose, Profile: profile, CreatedAt: s.now()}

	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	out, err := sess.Submit(profile, pending)
	if err != nil {
		if errors.Is(err, reconcile.ErrInFlight) {
			return nil, ErrSessionBusy
		}
		return nil, err
	}

	if err := s.store.SaveAnswers(ctx, id, answers); err != nil {
		return nil, &StoreError{Message: "failed to save answers", Cause: err}
	}
	if err := s.store.SaveVerbose(ctx, id, verbose); err != nil {
		return nil, &StoreError{Message: "failed to save verbose answers", Cause: err}
	}
	if err := s.persist(ctx, id, sess, out); err != nil {
		return nil, err
	}

	result := &SubmitResult{
		SessionID:       id,
		Score:           vec,
		Profile:         profile,
		Problems:        report.Problems,
		Recommendations: scoring.Recommendations(profile.Tier),
		Outcome:         out,
	}

	if in.Contact != nil {
		lead := types.Lead{
			Contact:        *in.Contact,
			Answers:        answers,
			ProfileType:    profile.DisplayName,
			ReadinessScore: profile.Readiness,
			Timestamp:      s.now(),
		}
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.leadTimeout)
		_, err := s.ForwardLead(lctx, lead)
		cancel()
		result.LeadForwarded = err == nil
	}

	return result, nil
}

// ForwardLead sends a lead to the sink, recording the result. Failures are
// logged and returned; callers decide whether they matter.
func (s *Service) ForwardLead(ctx context.Context, lead types.Lead) (*leads.Receipt, error) {
	receipt, err := s.leads.Forward(ctx, lead)
	switch {
	case err == nil:
		s.metrics.ObserveLead(observability.LeadForwarded)
	case errors.Is(err, leads.ErrNotConfigured):
		s.metrics.ObserveLead(observability.LeadSkipped)
	default:
		s.metrics.ObserveLead(observability.LeadFailed)
		s.logger.Warn("lead forward failed", zap.String("email", lead.Email), zap.Error(err))
	}
	return receipt, err
}

// Generate requests the narrative for a session's pending record and
// reconciles the result. Concurrent calls for one session share a single
// request. A recorded failure is reported through the outcome, not the
// error; the error is reserved for cancellation, busy sessions and storage.
func (s *Service) Generate(ctx context.Context, sessionID string) (reconcile.Outcome, error) {
	v, err, _ := s.flights.Do(sessionID, func() (any, error) {
		return s.generate(ctx, sessionID)
	})
	if err != nil {
		return reconcile.Outcome{}, err
	}
	return v.(reconcile.Outcome), nil
}

func (s *Service) generate(ctx context.Context, id string) (reconcile.Outcome, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return reconcile.Outcome{}, err
	}

	pending, err := sess.Begin()
	if err != nil {
		var te *reconcile.TransitionError
		if errors.As(err, &te) {
			// Nothing to send from this state; report it as it stands.
			return sess.Outcome(), nil
		}
		return sess.Outcome(), err
	}

	mode := string(s.requestor.Mode())
	start := time.Now()
	narr, err := s.requestor.Request(ctx, pending.Answers, pending.Profile, pending.Verbose)
	elapsed := time.Since(start)

	if err != nil {
		if narrative.IsKind(err, narrative.KindCanceled) {
			sess.Cancel()
			s.metrics.ObserveNarrative(mode, string(narrative.KindCanceled), elapsed)
			return reconcile.Outcome{}, err
		}
		kind := string(narrative.KindNetworkFailure)
		var ne *narrative.Error
		if errors.As(err, &ne) {
			kind = string(ne.Kind)
		}
		s.metrics.ObserveNarrative(mode, kind, elapsed)

		out, ferr := sess.Fail(err)
		if ferr != nil {
			return reconcile.Outcome{}, ferr
		}
		s.logger.Warn("narrative failed",
			zap.String("session", id),
			zap.String("kind", kind),
			zap.Int("attempts", out.Result.Attempts),
			zap.String("message", string(out.Message)))
		return out, s.persist(context.WithoutCancel(ctx), id, sess, out)
	}

	s.metrics.ObserveNarrative(mode, "success", elapsed)
	s.metrics.ObserveResolution(narr.Resolution)

	out, err := sess.Succeed(narr)
	if err != nil {
		return reconcile.Outcome{}, err
	}
	return out, s.persist(context.WithoutCancel(ctx), id, sess, out)
}

// Retry moves a failed session back to local-only and requests the
// narrative again with the preserved payload.
func (s *Service) Retry(ctx context.Context, sessionID string) (reconcile.Outcome, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return reconcile.Outcome{}, err
	}
	out, err := sess.Retry()
	if err != nil {
		return sess.Outcome(), err
	}
	if err := s.persist(ctx, sessionID, sess, out); err != nil {
		return out, err
	}
	return s.Generate(ctx, sessionID)
}

// Result reconciles the stored state of a session for display. A session
// left local-only with a pending record and nothing in flight (for example
// after a restart) has its request replayed.
func (s *Service) Result(ctx context.Context, sessionID string) (reconcile.Outcome, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return reconcile.Outcome{}, err
	}
	if sess.State() == types.StateLocalOnly && !sess.InFlight() && sess.Pending() != nil {
		out, err := s.Generate(ctx, sessionID)
		if err == nil || narrative.IsKind(err, narrative.KindCanceled) {
			return out, err
		}
		s.logger.Info("pending replay skipped", zap.String("session", sessionID), zap.Error(err))
	}
	return sess.Outcome(), nil
}

// SendGift mails the bundle matching the request's readiness score.
func (s *Service) SendGift(ctx context.Context, req types.GiftRequest) (string, gift.Bundle, error) {
	bundle := gift.Select(s.thresholds.Tier(req.ReadinessScore))
	if s.mailer == nil {
		return "", bundle, gift.ErrNotConfigured
	}
	id, err := s.mailer.Send(ctx, req.Email, req.Name, bundle)
	if err != nil {
		s.logger.Warn("gift mail failed", zap.String("email", req.Email), zap.Error(err))
		return "", bundle, err
	}
	return id, bundle, nil
}

// session returns the live state machine for id, restoring it from the
// store on a cache miss.
func (s *Service) session(ctx context.Context, id string) (*reconcile.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions.Get(id); ok {
		return sess, nil
	}

	result, err := s.store.Result(ctx, id)
	if err != nil {
		return nil, &StoreError{Message: "failed to load result", Cause: err}
	}
	pending, err := s.store.Pending(ctx, id)
	if err != nil {
		return nil, &StoreError{Message: "failed to load pending request", Cause: err}
	}

	sess := reconcile.Restore(result, pending,
		reconcile.WithMaxAttempts(s.maxAttempts),
		reconcile.WithClock(s.now))
	s.sessions.Add(id, sess)
	return sess, nil
}

// persist writes the session snapshot and pending record after a transition.
func (s *Service) persist(ctx context.Context, id string, sess *reconcile.Session, out reconcile.Outcome) error {
	if err := s.store.SaveResult(ctx, id, sess.Snapshot()); err != nil {
		return &StoreError{Message: "failed to save result", Cause: err}
	}
	if out.ClearPending {
		if err := s.store.ClearPending(ctx, id); err != nil {
			return &StoreError{Message: "failed to clear pending request", Cause: err}
		}
		return nil
	}
	if p := sess.Pending(); p != nil {
		if err := s.store.SavePending(ctx, id, *p); err != nil {
			return &StoreError{Message: "failed to save pending request", Cause: err}
		}
	}
	return nil
}
