// Package metrics tracks heartbeat probe metrics for the watch command.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProbeMetrics tracks Prometheus metrics for periodic heartbeat probing.
//
// All metrics use the chromactl_ prefix. A nil *ProbeMetrics is valid and
// records nothing, so callers never need to branch on whether metrics are
// enabled.
type ProbeMetrics struct {
	// Up reports the last observed server state (1 ready, 0 not ready).
	Up prometheus.Gauge

	// ProbesTotal counts heartbeat probes by outcome
	ProbesTotal *prometheus.CounterVec

	// ProbeDuration tracks heartbeat latency distribution
	ProbeDuration prometheus.Histogram

	// LastReadyTimestamp is the unix time of the last ready response
	LastReadyTimestamp prometheus.Gauge
}

// NewProbeMetrics creates probe metrics registered against reg.
//
// Panics if registration fails (expected during initialization only).
func NewProbeMetrics(reg prometheus.Registerer) *ProbeMetrics {
	m := &ProbeMetrics{
		Up: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "chromactl_up",
				Help: "Whether the last heartbeat probe found the server ready (1) or not (0)",
			},
		),
		ProbesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chromactl_probes_total",
				Help: "Total heartbeat probes by outcome",
			},
			[]string{"outcome"}, // "ready", "unready"
		),
		ProbeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chromactl_probe_duration_seconds",
				Help:    "Heartbeat probe duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		LastReadyTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "chromactl_last_ready_timestamp_seconds",
				Help: "Unix time of the last ready heartbeat response",
			},
		),
	}

	reg.MustRegister(
		m.Up,
		m.ProbesTotal,
		m.ProbeDuration,
		m.LastReadyTimestamp,
	)

	return m
}

// RecordProbe records the outcome and latency of one heartbeat probe.
func (m *ProbeMetrics) RecordProbe(ready bool, duration time.Duration) {
	if m == nil {
		return
	}

	m.ProbeDuration.Observe(duration.Seconds())
	if ready {
		m.Up.Set(1)
		m.ProbesTotal.WithLabelValues("ready").Inc()
		m.LastReadyTimestamp.SetToCurrentTime()
		return
	}
	m.Up.Set(0)
	m.ProbesTotal.WithLabelValues("unready").Inc()
}
