// Package metrics exposes the engine's Prometheus instrumentation. Unlike
// the teacher's package-level promauto vars, collectors here are bound to
// an explicit *prometheus.Registry owned by a Metrics value, so a process
// embedding more than one engine (or a test) never hits a duplicate
// registration panic from the default global registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the engine updates each tick or on
// delivery events.
type Metrics struct {
	registry *prometheus.Registry

	TickDuration   prometheus.Histogram
	ActiveRecords  prometheus.Gauge
	SinkErrors     *prometheus.CounterVec
	UniverseFrames *prometheus.CounterVec
	CueDispatches  *prometheus.CounterVec
	DriftSeconds   prometheus.Histogram
}

// New builds a Metrics value with its own registry and registers every
// collector against it.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "photonics_tick_duration_seconds",
			Help:    "Wall time spent processing one engine tick, from command drain through sink send.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		ActiveRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "photonics_active_records",
			Help: "Number of layer records currently active across all lights.",
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "photonics_sink_errors_total",
			Help: "Total frame delivery errors, by sink id.",
		}, []string{"sink"}),
		UniverseFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "photonics_universe_frames_total",
			Help: "Total DMX universe frames sent, by sink id.",
		}, []string{"sink"}),
		CueDispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "photonics_cue_dispatches_total",
			Help: "Total cue dispatches, by cue kind.",
		}, []string{"kind"}),
		DriftSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "photonics_drift_seconds",
			Help:    "Magnitude of timing drift corrections applied to persistent cyclic records.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 10),
		}),
	}

	reg.MustRegister(
		m.TickDuration,
		m.ActiveRecords,
		m.SinkErrors,
		m.UniverseFrames,
		m.CueDispatches,
		m.DriftSeconds,
	)
	return m
}

// Handler serves the registry in the Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
