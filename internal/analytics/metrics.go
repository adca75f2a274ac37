// ABOUTME: Prometheus instrumentation for aggregate fetches.
// ABOUTME: Durations and failures are labelled by aggregate name.
package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records per-aggregate timings and failures.
type Metrics struct {
	AggregateDuration *prometheus.HistogramVec
	AggregateFailures *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AggregateDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cledger_aggregate_duration_seconds",
				Help:    "Duration of aggregate queries",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"aggregate"},
		),
		AggregateFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cledger_aggregate_failures_total",
				Help: "Total number of failed aggregate queries",
			},
			[]string{"aggregate"},
		),
	}

	reg.MustRegister(m.AggregateDuration)
	reg.MustRegister(m.AggregateFailures)
	return m
}
