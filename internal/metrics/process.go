package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ProcessOperations tracks create/share/access counts by outcome.
var ProcessOperations = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "process",
		Name:      "operations_total",
		Help:      "Total number of process operations",
	},
	[]string{"operation", "outcome"}, // create/share/access, success/failure
)
