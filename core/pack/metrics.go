package pack

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	activeSessions prometheus.Gauge
	packCompleted  prometheus.Counter
	packDuration   prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Gauge, prometheus.Counter, prometheus.Histogram) {
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pack_sessions_active",
		Help: "Number of pack sessions currently in progress",
	})
	completed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pack_sessions_completed_total",
		Help: "Number of pack sessions dispatched",
	})
	dur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pack_duration_minutes",
		Help:    "Picking-to-packed duration in minutes",
		Buckets: []float64{2, 5, 10, 15, 20, 30, 45, 60},
	})
	return active, completed, dur
}

func init() {
	activeSessions, packCompleted, packDuration = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers pack metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(activeSessions, packCompleted, packDuration)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	activeSessions, packCompleted, packDuration = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
