// Package metrics provides Prometheus metrics for the smartfarm relay.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the relay exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer
	enabled          atomic.Bool

	// Inbound HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByType        *prometheus.CounterVec

	// Outbound calls to the sensor API
	upstreamRequests      *prometheus.CounterVec
	upstreamLatency       *prometheus.HistogramVec
	upstreamResponseBytes *prometheus.HistogramVec
	upstreamInFlight      prometheus.Gauge

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the Record* helpers

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // shared registry served on /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "smartfarm",
		subsystem:        "relay",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint, method and status",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_endpoint_total",
			Help:        "Total number of error responses by endpoint",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorsByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_type_total",
			Help:        "Total number of error responses by type and severity",
			ConstLabels: m.constLabels,
		},
		[]string{"error_type", "severity"},
	)

	m.upstreamRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "upstream_requests_total",
			Help:        "Total number of calls to the sensor API by table and outcome",
			ConstLabels: m.constLabels,
		},
		[]string{"table", "outcome"},
	)

	m.upstreamLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "upstream_latency_milliseconds",
			Help:        "Latency of calls to the sensor API in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"table"},
	)

	m.upstreamResponseBytes = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "upstream_response_bytes",
			Help:        "Size of sensor API response bodies",
			Buckets:     prometheus.ExponentialBuckets(256, 4, 8),
			ConstLabels: m.constLabels,
		},
		[]string{"table"},
	)

	m.upstreamInFlight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "upstream_in_flight",
		Help:        "Number of sensor API calls currently in flight",
		ConstLabels: m.constLabels,
	})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "Heap memory allocated in bytes",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "Average GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// Enabled reports whether the manager records observations.
func (m *Manager) Enabled() bool { return m.enabled.Load() }

// RecordHTTPRequest records an inbound request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.Enabled() {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an error response.
func (m *Manager) RecordHTTPError(endpoint, method, errorType, severity string) {
	if !m.Enabled() {
		return
	}
	m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	m.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordUpstream records one finished call to the sensor API.
func (m *Manager) RecordUpstream(table, outcome string, latencyMs float64, bytes int) {
	if !m.Enabled() {
		return
	}
	m.upstreamRequests.WithLabelValues(table, outcome).Inc()
	m.upstreamLatency.WithLabelValues(table).Observe(latencyMs)
	if bytes > 0 {
		m.upstreamResponseBytes.WithLabelValues(table).Observe(float64(bytes))
	}
}

// AddUpstreamInFlight adjusts the in-flight gauge by delta.
func (m *Manager) AddUpstreamInFlight(delta float64) {
	if !m.Enabled() {
		return
	}
	m.upstreamInFlight.Add(delta)
}

// UpdateSystem sets process gauges.
func (m *Manager) UpdateSystem(memBytes uint64, goroutines int) {
	if !m.Enabled() {
		return
	}
	m.systemMemoryUsage.Set(float64(memBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// RecordGCPause observes an average GC pause in milliseconds.
func (m *Manager) RecordGCPause(pauseMs float64) {
	if !m.Enabled() {
		return
	}
	m.systemGCPauseTime.Observe(pauseMs)
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) { globalManager.enabled.Store(enabled) }

// RecordHTTPRequest records an inbound request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPError records an error response on the global manager.
func RecordHTTPError(endpoint, method, errorType, severity string) {
	globalManager.RecordHTTPError(endpoint, method, errorType, severity)
}

// RecordUpstream records a sensor API call on the global manager.
func RecordUpstream(table, outcome string, latencyMs float64, bytes int) {
	globalManager.RecordUpstream(table, outcome, latencyMs, bytes)
}

// AddUpstreamInFlight adjusts the global in-flight gauge.
func AddUpstreamInFlight(delta float64) {
	globalManager.AddUpstreamInFlight(delta)
}

// UpdateSystem sets process gauges on the global manager.
func UpdateSystem(memBytes uint64, goroutines int) {
	globalManager.UpdateSystem(memBytes, goroutines)
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.RecordGCPause(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
