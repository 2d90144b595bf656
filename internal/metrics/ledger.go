package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerAnchorsAttempted counts anchor_share attempts.
	LedgerAnchorsAttempted = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "anchor_attempts_total",
			Help:      "Total number of anchor_share attempts",
		},
	)

	// LedgerAnchorsFailed counts anchor_share failures, by error kind.
	LedgerAnchorsFailed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "anchor_failures_total",
			Help:      "Total number of anchor_share failures",
		},
		[]string{"kind"},
	)

	// LedgerSubmissionDuration tracks wall-clock latency of ledger
	// submissions, bounded by the client's configured request timeout.
	LedgerSubmissionDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "submission_duration_seconds",
			Help:      "Ledger submission duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
	)
)
