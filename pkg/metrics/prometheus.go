// Package metrics provides Prometheus metrics for the WeatherScope dashboard.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Every collector is named weatherscope_dashboard_<name>.
const (
	namespace = "weatherscope"
	subsystem = "dashboard"
)

// Manager owns every collector the dashboard exports.
type Manager struct {
	registry prometheus.Registerer

	// Dashboard HTTP server
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Router
	navigations        *prometheus.CounterVec
	viewLoads          *prometheus.CounterVec
	viewLoadDuration   *prometheus.HistogramVec
	viewRenderDuration *prometheus.HistogramVec

	// Weather API client
	clientInFlight        prometheus.Gauge
	clientRequests        *prometheus.CounterVec
	clientRequestDuration *prometheus.HistogramVec
	clientOperations      *prometheus.CounterVec

	errorsByType *prometheus.CounterVec

	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics manager

// customRegistry keeps the default Go collectors out of /metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{registry: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
		Buckets:   prometheus.DefBuckets,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) initializeMetrics() {
	m.httpRequests = m.counterVec("http_requests_total",
		"Dashboard HTTP requests by endpoint, method and status code", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_seconds",
		"Dashboard HTTP request duration in seconds", "endpoint", "method", "status_code")

	m.navigations = m.counterVec("navigations_total",
		"Router navigations by route and result", "route", "result")
	m.viewLoads = m.counterVec("view_loads_total",
		"Deferred view loads by route and result", "route", "result")
	m.viewLoadDuration = m.histogramVec("view_load_duration_seconds",
		"Deferred view load duration in seconds", "route")
	m.viewRenderDuration = m.histogramVec("view_render_duration_seconds",
		"View render duration in seconds, including backend calls", "route")

	m.clientInFlight = m.gauge("client_in_flight_requests",
		"Weather API requests currently in flight")
	m.clientRequests = m.counterVec("client_requests_total",
		"Weather API requests by status code and method", "code", "method")
	m.clientRequestDuration = m.histogramVec("client_request_duration_seconds",
		"Weather API request duration in seconds", "code", "method")
	m.clientOperations = m.counterVec("client_operations_total",
		"Weather API operations by name and result", "operation", "result")

	m.errorsByType = m.counterVec("errors_total",
		"Errors by component and type", "component", "type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap memory in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Current goroutine count")
	m.systemGCPauseTime = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   prometheus.DefBuckets,
	})
}

// RecordHTTPRequest counts one dashboard request and observes its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, seconds float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// RecordNavigation counts a navigation; route is empty for unmatched targets.
func (m *Manager) RecordNavigation(route, result string) {
	if route == "" {
		route = "none"
	}
	m.navigations.WithLabelValues(route, result).Inc()
}

// RecordViewLoad counts a deferred view load and observes its duration.
func (m *Manager) RecordViewLoad(route, result string, seconds float64) {
	m.viewLoads.WithLabelValues(route, result).Inc()
	m.viewLoadDuration.WithLabelValues(route).Observe(seconds)
}

// RecordViewRender observes a view render.
func (m *Manager) RecordViewRender(route string, seconds float64) {
	m.viewRenderDuration.WithLabelValues(route).Observe(seconds)
}

// RecordClientOperation counts a finished Weather API operation.
func (m *Manager) RecordClientOperation(operation, result string) {
	m.clientOperations.WithLabelValues(operation, result).Inc()
}

// RecordError counts an error by component and type.
func (m *Manager) RecordError(component, errorType string) {
	m.errorsByType.WithLabelValues(component, errorType).Inc()
}

// InstrumentRoundTripper wraps next with in-flight, counter and duration
// instrumentation from promhttp.
func (m *Manager) InstrumentRoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperInFlight(m.clientInFlight,
		promhttp.InstrumentRoundTripperCounter(m.clientRequests,
			promhttp.InstrumentRoundTripperDuration(m.clientRequestDuration, next),
		),
	)
}

// UpdateSystemMemoryUsage sets the allocated heap gauge.
func (m *Manager) UpdateSystemMemoryUsage(bytes uint64) { m.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func (m *Manager) UpdateSystemGoroutineCount(count int) { m.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime observes the average GC pause.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) { m.systemGCPauseTime.Observe(pauseMs) }

// Package-level helpers delegate to the global manager.

func RecordHTTPRequest(endpoint, method, statusCode string, seconds float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, seconds)
}

func RecordNavigation(route, result string) { globalManager.RecordNavigation(route, result) }

func RecordViewLoad(route, result string, seconds float64) {
	globalManager.RecordViewLoad(route, result, seconds)
}

func RecordViewRender(route string, seconds float64) { globalManager.RecordViewRender(route, seconds) }

func RecordClientOperation(operation, result string) {
	globalManager.RecordClientOperation(operation, result)
}

func RecordError(component, errorType string) { globalManager.RecordError(component, errorType) }

func InstrumentRoundTripper(next http.RoundTripper) http.RoundTripper {
	return globalManager.InstrumentRoundTripper(next)
}

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.UpdateSystemMemoryUsage(bytes) }

func UpdateSystemGoroutineCount(count int) { globalManager.UpdateSystemGoroutineCount(count) }

func RecordSystemGCPauseTime(pauseMs float64) { globalManager.RecordSystemGCPauseTime(pauseMs) }

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the global registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
