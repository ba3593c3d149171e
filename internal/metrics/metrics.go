// Package metrics exposes Prometheus counters for ledger operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Operations *prometheus.CounterVec
	Failures   *prometheus.CounterVec
}

// New registers the ledger counters on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deedledger_operations_total",
				Help: "Ledger operations by name.",
			},
			[]string{"operation"},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deedledger_operation_failures_total",
				Help: "Failed ledger operations by name and error kind.",
			},
			[]string{"operation", "kind"},
		),
	}

	reg.MustRegister(m.Operations, m.Failures)
	return m
}
