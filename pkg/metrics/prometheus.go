// Package metrics provides Prometheus metrics for the leaderboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Submission lifecycle counters.
	submissionsCreated  prometheus.Counter
	submissionsUpdated  prometheus.Counter
	submissionsDeleted  prometheus.Counter
	submissionsRejected *prometheus.CounterVec
	authFailures        prometheus.Counter

	// Standings metrics.
	standingsRefreshDuration prometheus.Histogram
	standingsRefreshCount    prometheus.Counter
	standingsLastUnix        prometheus.Gauge
	totalGroups              prometheus.Gauge

	// Scheduler metrics.
	schedulerTicks      prometheus.Counter
	schedulerTickErrors prometheus.Counter
	schedulerSkipped    prometheus.Counter
	prunedSubmissions   prometheus.Counter

	// Store metrics.
	storeWriteLatency prometheus.Histogram
	storeQueryLatency prometheus.Histogram
	storeRetries      prometheus.Counter

	// HTTP metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByType        *prometheus.CounterVec

	// Process metrics.
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global manager instance backing the package-level helpers.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry so the default Go collectors stay out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "perceval",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.submissionsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_created_total",
		Help:      "Total number of submissions created",
	})

	m.submissionsUpdated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_updated_total",
		Help:      "Total number of submissions updated in place",
	})

	m.submissionsDeleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_deleted_total",
		Help:      "Total number of submissions deleted",
	})

	m.submissionsRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "submissions_rejected_total",
			Help:      "Total number of rejected submission requests by reason",
		},
		[]string{"reason"},
	)

	m.authFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "auth_failures_total",
		Help:      "Total number of requests carrying an unknown API key",
	})

	m.standingsRefreshDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "standings_refresh_duration_milliseconds",
		Help:      "Standings recomputation duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.standingsRefreshCount = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "standings_refresh_total",
		Help:      "Total number of standings recomputations",
	})

	m.standingsLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "standings_last_refresh_unix",
		Help:      "Unix timestamp of the last standings snapshot refresh",
	})

	m.totalGroups = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_groups",
		Help:      "Number of registered groups",
	})

	m.schedulerTicks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduler_ticks_total",
		Help:      "Total number of scheduler ticks executed",
	})

	m.schedulerTickErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduler_tick_errors_total",
		Help:      "Total number of scheduler ticks that failed",
	})

	m.schedulerSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduler_ticks_skipped_total",
		Help:      "Total number of ticks skipped because the previous run was still in flight",
	})

	m.prunedSubmissions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pruned_submissions_total",
		Help:      "Total number of submissions removed by the pruning task",
	})

	m.storeWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_write_latency_milliseconds",
		Help:      "Store write operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Store query operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_retries_total",
		Help:      "Total number of store operations retried after a transient error",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of error responses by endpoint, method and type",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorsByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_type_total",
			Help:      "Total number of error responses by type and severity",
		},
		[]string{"error_type", "severity"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Current heap allocation in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Current number of goroutines",
	})
}

// Package-level helpers delegating to the global manager.

// RecordSubmissionCreated increments the created-submissions counter.
func RecordSubmissionCreated() {
	globalManager.submissionsCreated.Inc()
}

// RecordSubmissionUpdated increments the updated-submissions counter.
func RecordSubmissionUpdated() {
	globalManager.submissionsUpdated.Inc()
}

// RecordSubmissionDeleted increments the deleted-submissions counter.
func RecordSubmissionDeleted() {
	globalManager.submissionsDeleted.Inc()
}

// RecordSubmissionRejected counts a rejected submission request by reason
// (conflict, not_found, bad_guess).
func RecordSubmissionRejected(reason string) {
	globalManager.submissionsRejected.WithLabelValues(reason).Inc()
}

// RecordAuthFailure counts a request with an unknown API key.
func RecordAuthFailure() {
	globalManager.authFailures.Inc()
}

// RecordStandingsRefresh records one standings recomputation and its duration.
func RecordStandingsRefresh(durationMs float64) {
	globalManager.standingsRefreshCount.Inc()
	globalManager.standingsRefreshDuration.Observe(durationMs)
	globalManager.standingsLastUnix.SetToCurrentTime()
}

// UpdateTotalGroups sets the registered-groups gauge.
func UpdateTotalGroups(count int) {
	globalManager.totalGroups.Set(float64(count))
}

// RecordSchedulerTick counts one executed scheduler tick.
func RecordSchedulerTick() {
	globalManager.schedulerTicks.Inc()
}

// RecordSchedulerTickError counts one failed scheduler tick.
func RecordSchedulerTickError() {
	globalManager.schedulerTickErrors.Inc()
}

// RecordSchedulerTickSkipped counts one tick skipped due to overlap.
func RecordSchedulerTickSkipped() {
	globalManager.schedulerSkipped.Inc()
}

// RecordPrunedSubmissions counts submissions removed by the pruning task.
func RecordPrunedSubmissions(n int64) {
	globalManager.prunedSubmissions.Add(float64(n))
}

// RecordStoreWriteLatency records a store write latency observation.
func RecordStoreWriteLatency(latencyMs float64) {
	globalManager.storeWriteLatency.Observe(latencyMs)
}

// RecordStoreQueryLatency records a store query latency observation.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordStoreRetry counts a store operation retried after a transient error.
func RecordStoreRetry() {
	globalManager.storeRetries.Inc()
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records the duration of one HTTP request.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint counts an error response by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType counts an error response by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom registry used for /healthz scraping.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
