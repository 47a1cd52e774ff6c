package solver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "powkey"
	metricsSubsystem = "solver"
)

// Metrics instruments solves for Prometheus scraping. One instance may be
// shared across consecutive farms; counters are cumulative per process.
type Metrics struct {
	attempts     prometheus.Counter
	solutions    prometheus.Counter
	hashRate     prometheus.Gauge
	solveSeconds prometheus.Histogram
}

// NewMetrics registers the solver metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		attempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "attempts_total",
			Help:      "Hash attempts observed by the aggregator.",
		}),
		solutions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "solutions_total",
			Help:      "Solutions found.",
		}),
		hashRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "hash_rate",
			Help:      "Instantaneous hash rate in hashes per second.",
		}),
		solveSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "solve_seconds",
			Help:      "Wall-clock duration of successful solves.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
		}),
	}
}
