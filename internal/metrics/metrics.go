// Package metrics exposes Prometheus instrumentation for the moderation
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Decisions counts pipeline outcomes by action.
	Decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "biolinkbot_decisions_total",
		Help: "Moderation decisions by action.",
	}, []string{"action"})

	// Deletions counts platform deletion calls by outcome.
	Deletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "biolinkbot_deletions_total",
		Help: "Platform message deletions by outcome.",
	}, []string{"outcome"})

	// ClassifierVerdicts counts abuse classifications by verdict source:
	// cached, local, remote or fallback.
	ClassifierVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "biolinkbot_classifier_verdicts_total",
		Help: "Abuse classifier verdicts by source.",
	}, []string{"source"})

	// ScheduledDeletions counts deletion timers registered by kind.
	ScheduledDeletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "biolinkbot_scheduled_deletions_total",
		Help: "Deletion timers registered by kind.",
	}, []string{"kind"})
)

// RegisterPendingGauge exports the current number of pending deletion
// timers. Call once at startup with the scheduler's Pending method.
func RegisterPendingGauge(pending func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "biolinkbot_pending_deletions",
		Help: "Deletion timers currently waiting to fire.",
	}, func() float64 {
		return float64(pending())
	})
}
