package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TokensMinted counts credentials minted, by kind (access/refresh).
	TokensMinted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "tokens_minted_total",
			Help:      "Total number of credentials minted",
		},
		[]string{"kind"},
	)

	// VerificationFailures counts Verify failures, by reason.
	VerificationFailures = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "verification_failures_total",
			Help:      "Total number of credential verification failures",
		},
		[]string{"reason"}, // signature, expired, malformed
	)

	// RevocationsRecorded counts entries inserted into the revocation
	// registry.
	RevocationsRecorded = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "revocations_recorded_total",
			Help:      "Total number of credentials revoked",
		},
	)

	// RevocationRegistrySize reports the current number of tracked
	// revocations.
	RevocationRegistrySize = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "revocation_registry_size",
			Help:      "Current number of entries in the revocation registry",
		},
	)
)
