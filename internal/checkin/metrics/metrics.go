package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the check-in module.
type Metrics struct {
	CheckInsTotal    prometheus.Counter
	CheckInFailures  prometheus.Counter
	CheckInDuration  prometheus.Histogram
	SearchesTotal    prometheus.Counter
	StatsCacheHits   prometheus.Counter
	StatsCacheMisses prometheus.Counter
}

// New creates a new Metrics instance with all check-in module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		CheckInsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "convene_checkins_total",
			Help: "Total number of successful guest check-ins",
		}),
		CheckInFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "convene_checkin_failures_total",
			Help: "Total number of rejected check-in attempts",
		}),
		CheckInDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "convene_checkin_duration_seconds",
			Help:    "Duration of check-in operations including score propagation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		SearchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "convene_checkin_searches_total",
			Help: "Total number of check-in guest searches",
		}),
		StatsCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "convene_checkin_stats_cache_hits_total",
			Help: "Check-in statistics served from the Redis cache",
		}),
		StatsCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "convene_checkin_stats_cache_misses_total",
			Help: "Check-in statistics recomputed from the guest store",
		}),
	}
}

// ObserveCheckIn records the duration of a completed check-in.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCheckIn(start time.Time) {
	m.CheckInDuration.Observe(time.Since(start).Seconds())
}
