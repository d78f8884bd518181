// Package metrics exposes this service's Prometheus registry, adapted from
// internal/interfaces/http/metrics.go's MetricsRegistry field/constructor
// shape but re-targeted at connector refresh health, detection-tick
// throughput and broadcast fan-out instead of the teacher's momentum-scanner
// metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every metric this service records.
type Registry struct {
	ConnectorRefreshDuration *prometheus.HistogramVec
	ConnectorRefreshErrors   *prometheus.CounterVec
	ConnectorCircuitState    *prometheus.GaugeVec

	DetectTickDuration prometheus.Histogram
	OpportunitiesEmitted *prometheus.CounterVec
	AlertsFired          *prometheus.CounterVec

	BroadcastSubscribers prometheus.Gauge
	BroadcastDisconnects prometheus.Counter

	FxStale prometheus.Gauge
}

// NewRegistry constructs and registers every metric against reg.
func NewRegistry(reg *prometheus.Registry) *Registry {
	m := &Registry{
		ConnectorRefreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "arbitrageur",
			Subsystem: "connector",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of one connector refresh call.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"venue", "capability"}),
		ConnectorRefreshErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbitrageur",
			Subsystem: "connector",
			Name:      "refresh_errors_total",
			Help:      "Count of connector refresh failures by class.",
		}, []string{"venue", "capability", "class"}),
		ConnectorCircuitState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "arbitrageur",
			Subsystem: "connector",
			Name:      "circuit_state",
			Help:      "Circuit breaker state per venue (0=closed,1=half-open,2=open).",
		}, []string{"venue"}),
		DetectTickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arbitrageur",
			Subsystem: "engine",
			Name:      "detect_tick_duration_seconds",
			Help:      "Duration of one full detection tick across all detectors.",
			Buckets:   prometheus.DefBuckets,
		}),
		OpportunitiesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbitrageur",
			Subsystem: "engine",
			Name:      "opportunities_emitted_total",
			Help:      "Count of opportunities emitted per kind.",
		}, []string{"kind"}),
		AlertsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbitrageur",
			Subsystem: "engine",
			Name:      "alerts_fired_total",
			Help:      "Count of OPEN/CLOSED alert transitions per kind.",
		}, []string{"kind", "transition"}),
		BroadcastSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arbitrageur",
			Subsystem: "broadcast",
			Name:      "subscribers",
			Help:      "Current count of connected WebSocket subscribers.",
		}),
		BroadcastDisconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arbitrageur",
			Subsystem: "broadcast",
			Name:      "subscriber_disconnects_total",
			Help:      "Count of subscribers disconnected for a full send buffer or write timeout.",
		}),
		FxStale: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arbitrageur",
			Subsystem: "fx",
			Name:      "rate_stale",
			Help:      "1 if the current FX rate is a stale fallback, 0 otherwise.",
		}),
	}

	reg.MustRegister(
		m.ConnectorRefreshDuration,
		m.ConnectorRefreshErrors,
		m.ConnectorCircuitState,
		m.DetectTickDuration,
		m.OpportunitiesEmitted,
		m.AlertsFired,
		m.BroadcastSubscribers,
		m.BroadcastDisconnects,
		m.FxStale,
	)
	return m
}

// Handler returns the /metrics HTTP handler for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Timer measures a connector refresh and records it on Stop.
type Timer struct {
	start    time.Time
	venue    string
	capability string
	hist     *prometheus.HistogramVec
}

// StartTimer begins timing a refresh call for (venue, capability).
func (m *Registry) StartTimer(venue, capability string) *Timer {
	return &Timer{start: time.Now(), venue: venue, capability: capability, hist: m.ConnectorRefreshDuration}
}

// Stop records the elapsed duration.
func (t *Timer) Stop() {
	t.hist.WithLabelValues(t.venue, t.capability).Observe(time.Since(t.start).Seconds())
}
