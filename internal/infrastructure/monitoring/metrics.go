package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Bus metrics
	MessagesSent     *prometheus.CounterVec
	SendsRejected    *prometheus.CounterVec
	MessagesConsumed *prometheus.CounterVec
	StateSuperseded  prometheus.Counter
	EventsExpired    prometheus.Counter

	// Navigation metrics
	NavigationOps *prometheus.CounterVec

	// Persistence metrics
	SnapshotsSaved    prometheus.Counter
	SnapshotsLoaded   prometheus.Counter
	SnapshotsExpired  prometheus.Counter
	PersistenceErrors *prometheus.CounterVec
	AutoSaveCollapsed prometheus.Counter
	SnapshotSizeBytes prometheus.Histogram

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSEvents      *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	mu sync.RWMutex
}

// NewMetrics creates a new metrics collector registered on the default
// Prometheus registry. Construct once per process.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panelkit_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "panelkit_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		MessagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panelkit_bus_messages_sent_total",
				Help: "Total messages accepted by the bus",
			},
			[]string{"lifecycle", "scope"},
		),
		SendsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panelkit_bus_sends_rejected_total",
				Help: "Total sends rejected by the bus",
			},
			[]string{"reason"},
		),
		MessagesConsumed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panelkit_bus_messages_consumed_total",
				Help: "Total messages explicitly consumed",
			},
			[]string{"lifecycle"},
		),
		StateSuperseded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "panelkit_bus_state_superseded_total",
				Help: "State messages replaced by a newer message with the same key",
			},
		),
		EventsExpired: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "panelkit_bus_events_expired_total",
				Help: "Event messages dropped after TTL expiry",
			},
		),

		NavigationOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panelkit_navigation_ops_total",
				Help: "Panel navigation operations",
			},
			[]string{"op"},
		),

		SnapshotsSaved: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "panelkit_snapshots_saved_total",
				Help: "Snapshots written to storage",
			},
		),
		SnapshotsLoaded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "panelkit_snapshots_loaded_total",
				Help: "Snapshots successfully loaded from storage",
			},
		),
		SnapshotsExpired: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "panelkit_snapshots_expired_total",
				Help: "Snapshots purged because their TTL elapsed",
			},
		),
		PersistenceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panelkit_persistence_errors_total",
				Help: "Persistence failures by operation",
			},
			[]string{"op"},
		),
		AutoSaveCollapsed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "panelkit_autosave_collapsed_total",
				Help: "Auto-save requests collapsed into a pending debounce window",
			},
		),
		SnapshotSizeBytes: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "panelkit_snapshot_size_bytes",
				Help:    "Serialized snapshot size",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "panelkit_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panelkit_ws_events_total",
				Help: "Change notifications pushed over WebSocket",
			},
			[]string{"kind"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "panelkit_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),
	}

	return m
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSend records an accepted bus message
func (m *Metrics) RecordSend(lifecycle, scope string) {
	m.MessagesSent.WithLabelValues(lifecycle, scope).Inc()
}

// RecordRejection records a rejected send
func (m *Metrics) RecordRejection(reason string) {
	m.SendsRejected.WithLabelValues(reason).Inc()
}

// UpdateUptime refreshes the uptime gauge
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
