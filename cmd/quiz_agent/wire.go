package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jonathan/readiness-quiz/internal/config"
	"github.com/jonathan/readiness-quiz/internal/funnel"
	"github.com/jonathan/readiness-quiz/internal/gift"
	"github.com/jonathan/readiness-quiz/internal/leads"
	"github.com/jonathan/readiness-quiz/internal/llm"
	"github.com/jonathan/readiness-quiz/internal/narrative"
	"github.com/jonathan/readiness-quiz/internal/observability"
	"github.com/jonathan/readiness-quiz/internal/quiz"
	"github.com/jonathan/readiness-quiz/internal/scoring"
	"github.com/jonathan/readiness-quiz/internal/store"
)

// app holds the wired funnel and what must be released with it.
type app struct {
	funnel    *funnel.Service
	requestor *narrative.Requestor
	metrics   *observability.Metrics
	closers   []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// loadBank returns the configured question bank, or the built-in one.
func loadBank(c config.Config) (*quiz.Bank, error) {
	if c.QuestionBank == "" {
		return quiz.Default(), nil
	}
	return quiz.LoadBank(c.QuestionBank)
}

// newGenerator picks the remote narrative service when NarrativeURL is
// set and a direct provider client otherwise.
func newGenerator(ctx context.Context, c config.Config) (narrative.Generator, func(), error) {
	if c.NarrativeURL != "" {
		return narrative.NewHTTPGenerator(c.NarrativeURL, c.LongBudget()+5*time.Second), func() {}, nil
	}

	llmCfg := llm.ConfigFor(llm.Provider(c.LLMProvider))
	if c.LLMModel != "" {
		llmCfg = llmCfg.WithModel(llm.TierStandard, c.LLMModel)
	}
	client, err := llm.NewClient(ctx, llmCfg, c.APIKey())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	gen, err := narrative.NewLLMGenerator(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return gen, func() { _ = client.Close() }, nil
}

// buildApp wires the funnel from configuration.
func buildApp(ctx context.Context, c config.Config, log *zap.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{}

	bank, err := loadBank(c)
	if err != nil {
		return nil, err
	}
	scheme, err := scoring.ForBank(c.ScoringScheme, bank)
	if err != nil {
		return nil, err
	}

	gen, closeGen, err := newGenerator(ctx, c)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeGen)

	a.requestor = narrative.NewRequestor(gen,
		narrative.WithBudgets(narrative.Budgets{Short: c.ShortBudget(), Long: c.LongBudget()}),
		narrative.WithMode(narrative.Mode(c.NarrativeMode)),
		narrative.WithLogger(log.Named("narrative")))

	kv, err := store.Open(ctx, store.Config{
		Backend:     c.StoreBackend,
		DatabaseURL: c.DatabaseURL,
		RedisURL:    c.RedisURL,
		SQLitePath:  c.SQLitePath,
		TTL:         c.StoreTTL(),
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = kv.Close() })

	a.metrics, err = observability.NewMetrics("quiz", reg)
	if err != nil {
		a.Close()
		return nil, err
	}

	var mailer gift.Mailer
	if c.ResendAPIKey != "" {
		mailer = gift.NewResendMailer(c.ResendAPIKey, gift.WithFrom(c.GiftFrom))
	}

	a.funnel, err = funnel.New(funnel.Deps{
		Bank:        bank,
		Scheme:      scheme,
		Requestor:   a.requestor,
		Store:       store.NewSessionStore(kv, log.Named("store")),
		Leads:       leads.New(c.GoogleScriptURL, leads.DefaultTimeout),
		Mailer:      mailer,
		Metrics:     a.metrics,
		Logger:      log.Named("funnel"),
		MaxAttempts: c.MaxNarrativeAttempts,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	log.Info("funnel ready",
		zap.String("bank", bank.Revision),
		zap.String("scheme", c.ScoringScheme),
		zap.String("store", c.StoreBackend),
		zap.String("narrative_mode", c.NarrativeMode))
	return a, nil
}
