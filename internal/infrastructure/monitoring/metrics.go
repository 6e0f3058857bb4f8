// Package monitoring exposes Prometheus metrics for the bridge.
package monitoring

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Async completion outcome labels.
const (
	OutcomeResolved         = "resolved"
	OutcomeRejected         = "rejected"
	OutcomeDeadContext      = "abandoned_dead_context"
	OutcomeIdentityMismatch = "abandoned_identity_mismatch"
	OutcomeDiscarded        = "discarded"
)

// Metrics holds the bridge metric families.
type Metrics struct {
	// Command queue metrics
	CommandsEnqueued *prometheus.CounterVec
	CommandsApplied  prometheus.Counter
	FlushDuration    prometheus.Histogram
	QueueDepth       prometheus.Gauge

	// Invocation metrics
	Invocations *prometheus.CounterVec

	// Promise bridge metrics. The abandoned_* outcomes count entries left
	// pending forever by the liveness/identity no-op paths; they are the
	// observable face of the documented entry leak.
	AsyncCompletions *prometheus.CounterVec
	PendingPromises  prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Default returns the process-wide metrics collector. Metric families are
// registered with the default Prometheus registry exactly once.
func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = newMetrics()
	})
	return defaultMetrics
}

func newMetrics() *Metrics {
	return &Metrics{
		CommandsEnqueued: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_commands_enqueued_total",
				Help: "Mutation commands appended to a context queue",
			},
			[]string{"opcode"},
		),
		CommandsApplied: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_commands_applied_total",
				Help: "Mutation commands applied on the host side",
			},
		),
		FlushDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bridge_flush_duration_seconds",
				Help:    "Blocking flush duration as observed by the script thread",
				Buckets: []float64{.00001, .0001, .001, .01, .1, 1},
			},
		),
		QueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_queue_depth",
				Help: "Commands currently pending across all context queues",
			},
		),
		Invocations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_invocations_total",
				Help: "Binding invocations dispatched to the host call path",
			},
			[]string{"method", "status"},
		),
		AsyncCompletions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_async_completions_total",
				Help: "Promise bridge completion deliveries by outcome",
			},
			[]string{"outcome"},
		),
		PendingPromises: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_pending_promises",
				Help: "Promise bridge entries awaiting host completion",
			},
		),
	}
}
