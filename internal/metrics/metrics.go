// Package metrics provides Prometheus metrics for kolwatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksTotal counts completed poll cycles.
	TicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kolwatch",
			Name:      "ticks_total",
			Help:      "Total number of poll cycles",
		},
	)

	// TickDuration measures a full poll cycle.
	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kolwatch",
			Name:      "tick_duration_seconds",
			Help:      "Duration of poll cycles in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	// AccountsTotal counts per-account outcomes.
	AccountsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kolwatch",
			Name:      "accounts_processed_total",
			Help:      "Accounts processed per cycle by outcome",
		},
		[]string{"outcome"},
	)

	// MentionsTotal counts extracted mentions by tier.
	MentionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kolwatch",
			Name:      "mentions_total",
			Help:      "Total number of extracted mentions",
		},
		[]string{"tier"},
	)

	// StageDuration measures upstream calls.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kolwatch",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// ErrorsTotal counts errors by stage.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kolwatch",
			Name:      "errors_total",
			Help:      "Total number of errors",
		},
		[]string{"stage"},
	)

	// TrackedAccounts is the registry size seen by the last cycle.
	TrackedAccounts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "kolwatch",
			Name:      "tracked_accounts",
			Help:      "Number of tracked accounts in the last cycle",
		},
	)
)

// Account outcomes.
const (
	OutcomeSkipped    = "skipped"
	OutcomeFailed     = "failed"
	OutcomeNoMention  = "no_mention"
	OutcomeSuppressed = "suppressed"
	OutcomeNotified   = "notified"
)

// Pipeline stages.
const (
	StageRegistry = "registry"
	StageFeed     = "feed"
	StageExtract  = "extract"
	StageVerify   = "verify"
	StageNotify   = "notify"
)

// RecordTick records a finished poll cycle.
func RecordTick(accounts int, seconds float64) {
	TicksTotal.Inc()
	TickDuration.Observe(seconds)
	TrackedAccounts.Set(float64(accounts))
}

// RecordOutcome records how an account finished.
func RecordOutcome(outcome string) {
	AccountsTotal.WithLabelValues(outcome).Inc()
}

// RecordStage records a stage duration and its error, if any.
func RecordStage(stage string, seconds float64, err error) {
	StageDuration.WithLabelValues(stage).Observe(seconds)
	if err != nil {
		ErrorsTotal.WithLabelValues(stage).Inc()
	}
}

// RecordMention records an extracted mention.
func RecordMention(tier string) {
	MentionsTotal.WithLabelValues(tier).Inc()
}
