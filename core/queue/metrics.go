package queue

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	recomputeDuration prometheus.Histogram
	ordersTracked     prometheus.Gauge
	ordersRescored    prometheus.Counter
	invalidOrders     prometheus.Counter
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Histogram, prometheus.Gauge, prometheus.Counter, prometheus.Counter, prometheus.Counter, prometheus.Counter) {
	dur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "queue_recompute_duration_seconds",
		Help:    "Duration of full priority queue recomputations",
		Buckets: prometheus.DefBuckets,
	})
	tracked := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "queue_orders_tracked",
		Help: "Number of orders in the working set",
	})
	rescored := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "queue_orders_rescored_total",
		Help: "Number of DPS computations performed",
	})
	invalid := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "queue_orders_invalid_total",
		Help: "Number of orders scored zero due to missing or malformed fields",
	})
	hits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "queue_score_cache_hits_total",
		Help: "Score cache hits",
	})
	misses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "queue_score_cache_misses_total",
		Help: "Score cache misses",
	})
	return dur, tracked, rescored, invalid, hits, misses
}

func init() {
	recomputeDuration, ordersTracked, ordersRescored, invalidOrders, cacheHits, cacheMisses = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers queue metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(recomputeDuration, ordersTracked, ordersRescored, invalidOrders, cacheHits, cacheMisses)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	recomputeDuration, ordersTracked, ordersRescored, invalidOrders, cacheHits, cacheMisses = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
