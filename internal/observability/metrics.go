package observability

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Lead forward results.
const (
	LeadForwarded = "forwarded"
	LeadFailed    = "failed"
	LeadSkipped   = "skipped"
)

// Metrics holds the funnel's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	narrativeOutcomes *prometheus.CounterVec
	narrativeLatency  *prometheus.HistogramVec
	leadResults       *prometheus.CounterVec
	resolutions       *prometheus.CounterVec
	submissions       *prometheus.CounterVec
}

// NewMetrics registers the funnel collectors with reg (the default
// registerer when nil). Collectors that are already registered are reused.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if namespace == "" {
		namespace = "quiz"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{}
	var err error
	if m.narrativeOutcomes, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "narrative_requests_total",
		Help:      "Narrative requests by outcome.",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if m.narrativeLatency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "narrative_duration_seconds",
		Help:      "Latency of narrative requests.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
	}, []string{"mode"})); err != nil {
		return nil, err
	}
	if m.leadResults, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leads_total",
		Help:      "Lead forwards by result.",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if m.resolutions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "archetype_resolutions_total",
		Help:      "Archetype label resolutions by method.",
	}, []string{"method"})); err != nil {
		return nil, err
	}
	if m.submissions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Scored quiz submissions by temperature tier.",
	}, []string{"tier"})); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, fmt.Errorf("register metric: %w", err)
	}
	return c, nil
}

// ObserveNarrative records a narrative request. outcome is "success" or an
// error kind.
func (m *Metrics) ObserveNarrative(mode, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.narrativeOutcomes.WithLabelValues(outcome).Inc()
	m.narrativeLatency.WithLabelValues(mode).Observe(d.Seconds())
}

// ObserveLead records a lead forward result.
func (m *Metrics) ObserveLead(result string) {
	if m == nil {
		return
	}
	m.leadResults.WithLabelValues(result).Inc()
}

// ObserveResolution records how an archetype label was resolved.
func (m *Metrics) ObserveResolution(method string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(method).Inc()
}

// ObserveSubmission records a scored submission.
func (m *Metrics) ObserveSubmission(tier string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(tier).Inc()
}
