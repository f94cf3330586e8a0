// Package narrative requests the personalized narrative for a quiz result
// from an external generator, under a time budget, and parses the declared
// archetype out of the free-text answer.
package narrative

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/readiness-quiz/internal/archetype"
	"github.com/jonathan/readiness-quiz/internal/types"
)

// Default time budgets per mode.
const (
	DefaultShortBudget = 8 * time.Second
	DefaultLongBudget  = 60 * time.Second
)

// Budgets holds the time budget of each mode.
type Budgets struct {
	Short time.Duration
	Long  time.Duration
}

// DefaultBudgets returns the default time budgets.
func DefaultBudgets() Budgets {
	return Budgets{Short: DefaultShortBudget, Long: DefaultLongBudget}
}

// For returns the budget for a mode. Unknown modes use the long budget.
func (b Budgets) For(mode Mode) time.Duration {
	if mode == ModeShort {
		return b.Short
	}
	return b.Long
}

// ValidateInput checks that in carries answers and a profile code. The
// returned error is a *Error of KindInvalidInput.
func ValidateInput(in Input) error {
	if in.Answers.Empty() {
		return invalidInput("answers", "Missing or invalid answers")
	}
	if strings.TrimSpace(in.Profile.Code) == "" {
		return invalidInput("profileType", "Missing profileType")
	}
	return nil
}

// Requestor validates input, calls the generator under a time budget and
// turns the raw text into a NarrativeResult.
type Requestor struct {
	gen      Generator
	resolver *archetype.Resolver
	budgets  Budgets
	mode     Mode
	logger   *zap.Logger
}

// Option configures a Requestor.
type Option func(*Requestor)

// WithBudgets sets the time budgets.
func WithBudgets(b Budgets) Option {
	return func(r *Requestor) { r.budgets = b }
}

// WithMode sets the narrative mode.
func WithMode(m Mode) Option {
	return func(r *Requestor) { r.mode = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Requestor) { r.logger = l }
}

// WithResolver sets the archetype resolver.
func WithResolver(res *archetype.Resolver) Option {
	return func(r *Requestor) { r.resolver = res }
}

// NewRequestor creates a Requestor for gen.
func NewRequestor(gen Generator, opts ...Option) *Requestor {
	r := &Requestor{
		gen:      gen,
		resolver: archetype.NewResolver(),
		budgets:  DefaultBudgets(),
		mode:     ModeLong,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mode returns the configured narrative mode.
func (r *Requestor) Mode() Mode { return r.mode }

// Generate validates the input and calls the generator under the mode's time
// budget, returning the raw output. Errors are always *Error.
func (r *Requestor) Generate(ctx context.Context, in Input) (*Output, error) {
	if err := ValidateInput(in); err != nil {
		return nil, err
	}
	if in.Mode == "" {
		in.Mode = r.mode
	}

	bctx, cancel := context.WithTimeout(ctx, r.budgets.For(in.Mode))
	defer cancel()

	out, err := r.gen.Generate(bctx, in)
	if err != nil {
		return nil, classify(err, ctx, bctx)
	}
	if out == nil || strings.TrimSpace(out.Text) == "" {
		return nil, &Error{Kind: KindEmptyResponse}
	}
	return out, nil
}

// Request produces the narrative for a locally classified profile. When the
// response lacks the archetype marker, the local profile's label is used and
// the whole text becomes the body.
func (r *Requestor) Request(ctx context.Context, answers types.AnswerSet, profile types.Profile, verbose []types.QA) (*types.NarrativeResult, error) {
	start := time.Now()
	out, err := r.Generate(ctx, Input{Answers: answers, Verbose: verbose, Profile: profile, Mode: r.mode})
	if err != nil {
		r.logger.Info("narrative request failed",
			zap.String("profile", profile.Code),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	result := &types.NarrativeResult{Raw: out.Text}
	switch p := Parse(out.Text).(type) {
	case Parsed:
		res := r.resolver.ResolveOr(p.Label, profile.DisplayName)
		result.Archetype = res.Name
		result.Resolution = string(res.Method)
		result.Body = p.Body
		result.Parsed = true
		if res.Method == archetype.MethodFallback || res.Method == archetype.MethodDefault {
			r.logger.Info("unrecognized archetype label",
				zap.String("label", p.Label),
				zap.String("resolved", res.Name))
		}
	case Unparsed:
		res := r.resolver.Resolve(profile.DisplayName)
		result.Archetype = res.Name
		result.Resolution = string(archetype.MethodFallback)
		result.Body = p.Body
		r.logger.Warn("narrative without archetype marker",
			zap.String("profile", profile.Code),
			zap.Int("length", len(out.Text)))
	}

	if strings.TrimSpace(result.Body) == "" {
		return nil, &Error{Kind: KindEmptyResponse, Detail: "marker line without body"}
	}

	r.logger.Debug("narrative received",
		zap.String("archetype", result.Archetype),
		zap.String("resolution", result.Resolution),
		zap.String("model", out.Model),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}
