package dlq

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// writeFailures makes the swallowed enqueue failure an explicit, named
	// failure mode: the retry guarantee is at-least-once-but-not-guaranteed,
	// and every lost retry opportunity shows up here.
	writeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clca_dlq_write_failures_total",
		Help: "Retry-queue entries that could not be persisted; the retry opportunity was lost.",
	})

	retryOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clca_dlq_retry_outcomes_total",
		Help: "Retry attempts by outcome.",
	}, []string{"outcome"})

	pendingDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clca_dlq_pending_entries",
		Help: "Pending retry-queue entries at the last processor pass.",
	})
)
