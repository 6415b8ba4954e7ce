// Package telemetry exposes Prometheus instrumentation for exchanges,
// credit debits and prompt analyses.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ainexus"

// Exchange outcomes
const (
	OutcomeOK                   = "ok"
	OutcomeProviderError        = "provider_error"
	OutcomeConfigurationMissing = "configuration_missing"
)

// Debit results
const (
	DebitOK           = "debited"
	DebitInsufficient = "insufficient"
	DebitError        = "error"
	DebitRefund       = "refunded"
)

// Prompt analysis score sources
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	exchanges        *prometheus.CounterVec
	exchangeDuration *prometheus.HistogramVec
	creditDebits     *prometheus.CounterVec
	promptAnalyses   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		exchanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exchanges_total",
				Help:      "Total number of completed chat exchanges.",
			},
			[]string{"model", "outcome"},
		),
		exchangeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_duration_seconds",
				Help:      "Histogram of provider call durations in seconds.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"model"},
		),
		creditDebits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "credit_debits_total",
				Help:      "Credit debit attempts by result.",
			},
			[]string{"result"},
		),
		promptAnalyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prompt_analyses_total",
				Help:      "Prompt analyses by the source of the score.",
			},
			[]string{"source"},
		),
	}
	reg.MustRegister(m.exchanges, m.exchangeDuration, m.creditDebits, m.promptAnalyses)
	return m
}

func (m *Metrics) ObserveExchange(model, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.exchanges.WithLabelValues(model, outcome).Inc()
	m.exchangeDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}

func (m *Metrics) CountDebit(result string) {
	if m == nil {
		return
	}
	m.creditDebits.WithLabelValues(result).Inc()
}

func (m *Metrics) CountPromptAnalysis(source string) {
	if m == nil {
		return
	}
	m.promptAnalyses.WithLabelValues(source).Inc()
}
