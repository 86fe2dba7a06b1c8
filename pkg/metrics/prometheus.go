// Package metrics provides Prometheus metrics for the linemate balancer.
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

	// Balancing
	splitsTotal      *prometheus.CounterVec
	splitDuration    prometheus.Histogram
	splitTalentDiff  prometheus.Histogram
	splitPenalty     prometheus.Histogram
	lineVariance     *prometheus.HistogramVec
	quotaUnmet       *prometheus.CounterVec
	incompleteGroups *prometheus.CounterVec
	benchedPlayers   prometheus.Counter

	// Roster, ledger and history
	rosterPlayers      prometheus.Gauge
	rosterPresent      prometheus.Gauge
	finalizedSplits    prometheus.Counter
	finalizeQueued     prometheus.Counter
	finalizeDuplicates prometheus.Counter
	ledgerPairs        prometheus.Gauge
	ledgerLatency      *prometheus.HistogramVec
	historyEntries     prometheus.Gauge
	tournamentsTotal   prometheus.Counter

	// Operational
	queueSize   prometheus.Gauge
	workerCount prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "linemate",
		subsystem:        "balancer",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)
	talentBuckets := []float64{0, 0.5, 1, 2, 3, 5, 8, 13, 21}

	m.splitsTotal = auto.NewCounterVec(m.counter("splits_total", "Team splits computed by outcome"), []string{"outcome"})
	m.splitDuration = auto.NewHistogram(m.histogram("split_duration_milliseconds", "Time to compute one split", nil))
	m.splitTalentDiff = auto.NewHistogram(m.histogram("split_talent_diff", "Absolute talent difference between the two teams", talentBuckets))
	m.splitPenalty = auto.NewHistogram(m.histogram("split_pairing_penalty", "Pairing penalty of the chosen split", talentBuckets))
	m.lineVariance = auto.NewHistogramVec(m.histogram("line_variance", "Variance of group totals of the chosen trial", talentBuckets), []string{"role"})
	m.quotaUnmet = auto.NewCounterVec(m.counter("quota_unmet_total", "Splits where a role quota could not be filled"), []string{"role"})
	m.incompleteGroups = auto.NewCounterVec(m.counter("incomplete_groups_total", "Groups flagged incomplete"), []string{"role"})
	m.benchedPlayers = auto.NewCounter(m.counter("benched_players_total", "Present players left out of the lines"))

	m.rosterPlayers = auto.NewGauge(m.gauge("roster_players", "Players on the roster"))
	m.rosterPresent = auto.NewGauge(m.gauge("roster_present_players", "Players marked present"))
	m.finalizedSplits = auto.NewCounter(m.counter("finalized_splits_total", "Splits applied to the ledger and history"))
	m.finalizeQueued = auto.NewCounter(m.counter("finalize_queued_total", "Finalized splits accepted for recording"))
	m.finalizeDuplicates = auto.NewCounter(m.counter("finalize_duplicates_total", "Finalize requests for an already finalized split"))
	m.ledgerPairs = auto.NewGauge(m.gauge("ledger_pairs", "Distinct pairs in the pairing ledger"))
	m.ledgerLatency = auto.NewHistogramVec(m.histogram("ledger_latency_milliseconds", "Pairing ledger operation latency", nil), []string{"op"})
	m.historyEntries = auto.NewGauge(m.gauge("history_entries", "Finalized splits kept in history"))
	m.tournamentsTotal = auto.NewCounter(m.counter("tournaments_total", "Tournaments generated"))

	m.queueSize = auto.NewGauge(m.gauge("queue_size", "Current size of the finalize queue"))
	m.workerCount = auto.NewGauge(m.gauge("worker_count", "Configured recorder workers"))

	m.httpRequests = auto.NewCounterVec(m.counter("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogram("http_request_duration_milliseconds", "HTTP request duration in milliseconds", nil),
		[]string{"endpoint", "method", "status_code"})

	m.queueCapacity = auto.NewGauge(m.gauge("queue_capacity", "Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)"))
	m.queueEnqueueRate = auto.NewCounter(m.counter("queue_enqueue_total", "Messages enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counter("queue_dequeue_total", "Messages dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counter("queue_enqueue_errors_total", "Enqueue failures"))
	m.queueProcessingLatency = auto.NewHistogram(m.histogram("queue_processing_latency_milliseconds", "Enqueue latency in milliseconds", nil))

	m.workerActiveCount = auto.NewGauge(m.gauge("worker_active_count", "Running recorder workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogram("worker_processing_latency_milliseconds", "Time to apply one finalized split", nil))
	m.workerErrorRate = auto.NewCounter(m.counter("worker_errors_total", "Recorder failures"))

	m.errorRateByComponent = auto.NewCounterVec(m.counter("errors_by_component_total", "Errors by component"), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counter("errors_by_type_total", "Errors by type"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counter("errors_by_endpoint_total", "Errors by endpoint"), []string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(m.histogram("error_latency_milliseconds", "Latency of operations that resulted in errors", nil),
		[]string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gauge("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gauge("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordSplit counts a computed split by outcome (ok, quota_unmet, error).
func RecordSplit(outcome string) {
	globalManager.splitsTotal.WithLabelValues(outcome).Inc()
}

// RecordSplitDuration records split latency in milliseconds.
func RecordSplitDuration(latencyMs float64) {
	globalManager.splitDuration.Observe(latencyMs)
}

// RecordSplitBalance records the chosen split's talent difference and penalty.
func RecordSplitBalance(diff float64, penalty int) {
	globalManager.splitTalentDiff.Observe(diff)
	globalManager.splitPenalty.Observe(float64(penalty))
}

// RecordLineVariance records the winning trial variance for role.
func RecordLineVariance(role string, variance float64) {
	globalManager.lineVariance.WithLabelValues(role).Observe(variance)
}

// RecordQuotaUnmet counts a role shortfall.
func RecordQuotaUnmet(role string) {
	globalManager.quotaUnmet.WithLabelValues(role).Inc()
}

// RecordIncompleteGroups counts flagged groups for role.
func RecordIncompleteGroups(role string, n int) {
	if n > 0 {
		globalManager.incompleteGroups.WithLabelValues(role).Add(float64(n))
	}
}

// RecordBenched counts players left out of the lines.
func RecordBenched(n int) {
	if n > 0 {
		globalManager.benchedPlayers.Add(float64(n))
	}
}

// UpdateRoster sets the roster and presence gauges.
func UpdateRoster(players, present int) {
	globalManager.rosterPlayers.Set(float64(players))
	globalManager.rosterPresent.Set(float64(present))
}

// RecordFinalized counts a split applied by a recorder.
func RecordFinalized() {
	globalManager.finalizedSplits.Inc()
}

// RecordFinalizeQueued counts a finalized split handed to the recorders.
func RecordFinalizeQueued() {
	globalManager.finalizeQueued.Inc()
}

// RecordFinalizeDuplicate counts a repeated finalize request.
func RecordFinalizeDuplicate() {
	globalManager.finalizeDuplicates.Inc()
}

// UpdateLedgerPairs sets the distinct pair count.
func UpdateLedgerPairs(n int) {
	globalManager.ledgerPairs.Set(float64(n))
}

// RecordLedgerLatency records a ledger operation latency.
func RecordLedgerLatency(op string, latencyMs float64) {
	globalManager.ledgerLatency.WithLabelValues(op).Observe(latencyMs)
}

// UpdateHistoryEntries sets the history size.
func UpdateHistoryEntries(n int) {
	globalManager.historyEntries.Set(float64(n))
}

// RecordTournament counts a generated tournament.
func RecordTournament() {
	globalManager.tournamentsTotal.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records enqueue latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records recorder latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
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
