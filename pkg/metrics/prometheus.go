// Package metrics provides Prometheus metrics for the vendormatch service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// scoreBuckets spans the reachable score range (0 .. ~2*services+5+10).
var scoreBuckets = []float64{2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 25, 30}

// Manager manages all Prometheus metrics for the vendormatch service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Matching
	matchRebuilds   *prometheus.CounterVec
	rebuildDuration prometheus.Histogram
	matchesCreated  prometheus.Counter
	matchScores     prometheus.Histogram
	eligibleVendors prometheus.Histogram

	// Scheduled jobs
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	jobItemFailures *prometheus.CounterVec
	jobLastSuccess  *prometheus.GaugeVec

	// SLA scan
	slaWarnings       prometheus.Counter
	slaExpiredMatches prometheus.Counter

	// Notifications
	notificationsEnqueued *prometheus.CounterVec
	notificationsSent     *prometheus.CounterVec
	notificationsFailed   *prometheus.CounterVec
	notificationLatency   prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerActiveCount prometheus.Gauge

	// Repository
	repositoryQueryLatency *prometheus.HistogramVec
	repositoryErrors       *prometheus.CounterVec

	// HTTP
	httpRequests         *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorRateByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vendormatch",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
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

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
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

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.matchRebuilds = m.counterVec("match_rebuilds_total", "Match set rebuilds by result", "result")
	m.rebuildDuration = m.histogram("match_rebuild_duration_milliseconds", "Duration of a single project rebuild in milliseconds", m.histogramBuckets)
	m.matchesCreated = m.counter("matches_created_total", "Total number of match rows created")
	m.matchScores = m.histogram("match_score", "Distribution of computed match scores", scoreBuckets)
	m.eligibleVendors = m.histogram("eligible_vendors", "Eligible vendors found per rebuild", []float64{0, 1, 2, 5, 10, 20, 50, 100})

	m.jobRuns = m.counterVec("job_runs_total", "Scheduled job runs by job and result", "job", "result")
	m.jobDuration = m.histogramVec("job_duration_milliseconds", "Scheduled job duration in milliseconds", m.histogramBuckets, "job")
	m.jobItemFailures = m.counterVec("job_item_failures_total", "Per-item failures inside scheduled jobs", "job")
	m.jobLastSuccess = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "job_last_success_unixtime",
		Help: "Unix time of the last successful job run", ConstLabels: m.constLabels,
	}, []string{"job"})

	m.slaWarnings = m.counter("sla_warnings_total", "SLA warnings emitted (one per vendor per scan)")
	m.slaExpiredMatches = m.counter("sla_expired_matches_total", "Matches found older than their vendor SLA")

	m.notificationsEnqueued = m.counterVec("notifications_enqueued_total", "Notifications accepted by the dispatch queue", "kind")
	m.notificationsSent = m.counterVec("notifications_sent_total", "Notifications delivered by a sender", "kind")
	m.notificationsFailed = m.counterVec("notifications_failed_total", "Notifications that could not be queued or delivered", "kind", "reason")
	m.notificationLatency = m.histogram("notification_delivery_milliseconds", "Notification delivery latency in milliseconds", m.histogramBuckets)

	m.queueSize = m.gauge("queue_size", "Current size of the notification queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum capacity of the notification queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Notification queue utilization (0-1)")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Rejected enqueue attempts by reason", "reason")

	m.workerActiveCount = m.gauge("worker_active_count", "Number of notification delivery workers")

	m.repositoryQueryLatency = m.histogramVec("repository_query_latency_milliseconds", "Repository operation latency in milliseconds", m.histogramBuckets, "op")
	m.repositoryErrors = m.counterVec("repository_errors_total", "Repository operation failures", "op")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets, "endpoint", "method", "status_code")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint, method and type", "endpoint", "method", "error_type")
	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordRebuild records the outcome and duration of a project rebuild.
func RecordRebuild(result string, durationMs float64) {
	globalManager.matchRebuilds.WithLabelValues(result).Inc()
	globalManager.rebuildDuration.Observe(durationMs)
}

// RecordMatchCreated records a created match row and its score.
func RecordMatchCreated(score float64) {
	globalManager.matchesCreated.Inc()
	globalManager.matchScores.Observe(score)
}

// RecordEligibleVendors records how many vendors were eligible for a rebuild.
func RecordEligibleVendors(n int) {
	globalManager.eligibleVendors.Observe(float64(n))
}

// RecordJobRun records a scheduled job run.
func RecordJobRun(job, result string, duration time.Duration) {
	globalManager.jobRuns.WithLabelValues(job, result).Inc()
	globalManager.jobDuration.WithLabelValues(job).Observe(float64(duration.Milliseconds()))
	if result == "ok" {
		globalManager.jobLastSuccess.WithLabelValues(job).SetToCurrentTime()
	}
}

// RecordJobItemFailure increments the per-item failure counter for a job.
func RecordJobItemFailure(job string) {
	globalManager.jobItemFailures.WithLabelValues(job).Inc()
}

// RecordSLAWarning records one vendor warning covering expired matches.
func RecordSLAWarning(expiredMatches int) {
	globalManager.slaWarnings.Inc()
	globalManager.slaExpiredMatches.Add(float64(expiredMatches))
}

// RecordNotificationEnqueued increments the enqueued counter for kind.
func RecordNotificationEnqueued(kind string) {
	globalManager.notificationsEnqueued.WithLabelValues(kind).Inc()
}

// RecordNotificationSent records a delivered notification.
func RecordNotificationSent(kind string, latencyMs float64) {
	globalManager.notificationsSent.WithLabelValues(kind).Inc()
	globalManager.notificationLatency.Observe(latencyMs)
}

// RecordNotificationFailed records a notification that was dropped.
func RecordNotificationFailed(kind, reason string) {
	globalManager.notificationsFailed.WithLabelValues(kind, reason).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordRepositoryQuery records repository operation latency.
func RecordRepositoryQuery(op string, latencyMs float64) {
	globalManager.repositoryQueryLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordRepositoryError increments the repository error counter.
func RecordRepositoryError(op string) {
	globalManager.repositoryErrors.WithLabelValues(op).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
