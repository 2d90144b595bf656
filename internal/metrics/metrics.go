// Package metrics defines the Prometheus registry and namespace
// shared by every metric family (A4), following the teacher's
// one-file-per-concern layout.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "ndavault"

// Registry is the process-wide collector registry every metric in
// this package registers against.
var Registry = prometheus.NewRegistry()
