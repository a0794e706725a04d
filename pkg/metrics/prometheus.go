// Package metrics provides Prometheus metrics for the busmaybe service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// Predictions
	predictions           *prometheus.CounterVec
	predictionProbability prometheus.Histogram

	// Registry
	registryStops  prometheus.Gauge
	registryRoutes prometheus.Gauge

	// Audit pipeline
	auditQueueSize     prometheus.Gauge
	auditQueueCapacity prometheus.Gauge
	auditEnqueued      prometheus.Counter
	auditDropped       prometheus.Counter
	auditProcessed     prometheus.Counter
	auditWorkers       prometheus.Gauge
	auditWorkerLatency prometheus.Histogram
	auditLogSize       prometheus.Gauge

	// Meals and decisions
	mealsCreated      prometheus.Counter
	duplicateRequests *prometheus.CounterVec
	decisions         prometheus.Counter
	historySize       prometheus.Gauge

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var (
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide metrics registry
	globalManager  *Manager                   //nolint:gochecknoglobals // singleton behind the package funcs
)

func init() { //nolint:gochecknoinits // register the singleton once
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "busmaybe",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_requests_total",
		Help: "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "errors_by_endpoint_total",
		Help: "Client and server errors by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "predictions_total",
		Help: "Arrival predictions served by level and by whether an ETA was supplied",
	}, []string{"level", "source"})

	m.predictionProbability = m.histogram("prediction_probability",
		"Distribution of predicted arrival probabilities", prometheus.LinearBuckets(0.1, 0.1, 10))

	m.registryStops = m.gauge("registry_stops", "Stops in the loaded registry")
	m.registryRoutes = m.gauge("registry_routes", "Routes in the loaded registry")

	m.auditQueueSize = m.gauge("audit_queue_size", "Prediction audit records waiting for a worker")
	m.auditQueueCapacity = m.gauge("audit_queue_capacity", "Capacity of the prediction audit queue")
	m.auditEnqueued = m.counter("audit_enqueued_total", "Prediction audit records enqueued")
	m.auditDropped = m.counter("audit_dropped_total", "Prediction audit records dropped on a full queue")
	m.auditProcessed = m.counter("audit_processed_total", "Prediction audit records stored by workers")
	m.auditWorkers = m.gauge("audit_workers", "Running audit workers")
	m.auditWorkerLatency = m.histogram("audit_worker_latency_milliseconds",
		"Time from enqueue to storage of an audit record", m.histogramBuckets)
	m.auditLogSize = m.gauge("audit_log_size", "Predictions retained in the audit log")

	m.mealsCreated = m.counter("meals_created_total", "Meal records created")
	m.duplicateRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "duplicate_requests_total",
		Help: "Requests acknowledged as duplicates of an earlier idempotency key",
	}, []string{"endpoint"})
	m.decisions = m.counter("decisions_total", "Decisions made by the decision helper")
	m.historySize = m.gauge("decision_history_size", "Records in the decision history")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Current number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds",
		"Average GC pause time in milliseconds", m.histogramBuckets)
}

// RecordHTTPRequest counts one served request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint counts one error response.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordPrediction counts one prediction. source is "eta" or "heuristic".
func (m *Manager) RecordPrediction(level, source string, probability float64) {
	m.predictions.WithLabelValues(level, source).Inc()
	m.predictionProbability.Observe(probability)
}

// UpdateRegistrySize publishes the loaded registry size.
func (m *Manager) UpdateRegistrySize(stops, routes int) {
	m.registryStops.Set(float64(stops))
	m.registryRoutes.Set(float64(routes))
}

func (m *Manager) UpdateAuditQueue(size, capacity int) {
	m.auditQueueSize.Set(float64(size))
	m.auditQueueCapacity.Set(float64(capacity))
}

func (m *Manager) RecordAuditEnqueued() { m.auditEnqueued.Inc() }
func (m *Manager) RecordAuditDropped()  { m.auditDropped.Inc() }

// RecordAuditProcessed counts one stored audit record and its queueing delay.
func (m *Manager) RecordAuditProcessed(latencyMs float64) {
	m.auditProcessed.Inc()
	m.auditWorkerLatency.Observe(latencyMs)
}

func (m *Manager) UpdateAuditWorkers(n int)   { m.auditWorkers.Set(float64(n)) }
func (m *Manager) UpdateAuditLogSize(n int)   { m.auditLogSize.Set(float64(n)) }
func (m *Manager) RecordMealCreated()         { m.mealsCreated.Inc() }
func (m *Manager) RecordDecision()            { m.decisions.Inc() }
func (m *Manager) UpdateHistorySize(n int)    { m.historySize.Set(float64(n)) }
func (m *Manager) UpdateMemoryUsage(b uint64) { m.systemMemoryUsage.Set(float64(b)) }
func (m *Manager) UpdateGoroutines(n int)     { m.systemGoroutineCount.Set(float64(n)) }
func (m *Manager) RecordGCPause(ms float64)   { m.systemGCPauseTime.Observe(ms) }

// RecordDuplicate counts a request short-circuited by its idempotency key.
func (m *Manager) RecordDuplicate(endpoint string) {
	m.duplicateRequests.WithLabelValues(endpoint).Inc()
}

// Package-level helpers record on the process-wide manager.

func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

func RecordPrediction(level, source string, probability float64) {
	globalManager.RecordPrediction(level, source, probability)
}

func UpdateRegistrySize(stops, routes int)    { globalManager.UpdateRegistrySize(stops, routes) }
func UpdateAuditQueue(size, capacity int)     { globalManager.UpdateAuditQueue(size, capacity) }
func RecordAuditEnqueued()                    { globalManager.RecordAuditEnqueued() }
func RecordAuditDropped()                     { globalManager.RecordAuditDropped() }
func RecordAuditProcessed(latencyMs float64)  { globalManager.RecordAuditProcessed(latencyMs) }
func UpdateAuditWorkers(n int)                { globalManager.UpdateAuditWorkers(n) }
func UpdateAuditLogSize(n int)                { globalManager.UpdateAuditLogSize(n) }
func RecordMealCreated()                      { globalManager.RecordMealCreated() }
func RecordDuplicate(endpoint string)         { globalManager.RecordDuplicate(endpoint) }
func RecordDecision()                         { globalManager.RecordDecision() }
func UpdateHistorySize(n int)                 { globalManager.UpdateHistorySize(n) }
func UpdateSystemMemoryUsage(bytes uint64)    { globalManager.UpdateMemoryUsage(bytes) }
func UpdateSystemGoroutineCount(count int)    { globalManager.UpdateGoroutines(count) }
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.RecordGCPause(pauseMs) }

// GetRegistry returns the registry served at /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
