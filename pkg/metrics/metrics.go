// Package metrics provides Prometheus metrics for the mutabaa client core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the client core.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Reconciliation Metrics - session lifecycle and apply outcomes
	sessionsStarted   prometheus.Counter
	sessionsCommitted prometheus.Counter
	sessionsFailed    prometheus.Counter
	sessionsCancelled prometheus.Counter
	removalsCleared   prometheus.Counter
	removalsFailed    prometheus.Counter

	// Card Metrics
	cardsSaved     prometheus.Counter
	cardSaveErrors prometheus.Counter

	// Query Metrics - aggregation and listing performance
	aggregationLatency prometheus.Histogram
	listingLatency     prometheus.Histogram
	rowsRanked         prometheus.Counter

	// Roster Metrics - collaborator call outcomes
	rosterCalls      *prometheus.CounterVec
	rosterCallErrors *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mutabaa",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	// Reconciliation Metrics
	m.sessionsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_sessions_started_total",
		Help:      "Total number of reconciliation sessions started",
	})

	m.sessionsCommitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_sessions_committed_total",
		Help:      "Total number of reconciliation sessions fully applied",
	})

	m.sessionsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_sessions_failed_total",
		Help:      "Total number of reconciliation sessions that failed during apply",
	})

	m.sessionsCancelled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_sessions_cancelled_total",
		Help:      "Total number of reconciliation sessions cancelled before apply",
	})

	m.removalsCleared = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_removals_cleared_total",
		Help:      "Total number of member removals cleared during apply",
	})

	m.removalsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_removals_failed_total",
		Help:      "Total number of member removals that failed during apply (need manual remediation)",
	})

	// Card Metrics
	m.cardsSaved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cards_saved_total",
		Help:      "Total number of scorecards saved",
	})

	m.cardSaveErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "card_save_errors_total",
		Help:      "Total number of scorecard save failures",
	})

	// Query Metrics
	m.aggregationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregation_latency_milliseconds",
		Help:      "Histogram of score aggregation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.listingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "listing_latency_milliseconds",
		Help:      "Histogram of filter/sort/paginate latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.rowsRanked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_ranked_total",
		Help:      "Total number of ranked rows produced by aggregation queries",
	})

	// Roster Metrics
	m.rosterCalls = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "roster_calls_total",
			Help:      "Total number of roster calls by operation",
		},
		[]string{"operation"},
	)

	m.rosterCallErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "roster_call_errors_total",
			Help:      "Total number of failed roster calls by operation",
		},
		[]string{"operation"},
	)
}

// RecordSessionStarted increments the started-sessions counter.
func RecordSessionStarted() {
	globalManager.sessionsStarted.Inc()
}

// RecordSessionCommitted increments the committed-sessions counter.
func RecordSessionCommitted() {
	globalManager.sessionsCommitted.Inc()
}

// RecordSessionFailed increments the failed-sessions counter.
func RecordSessionFailed() {
	globalManager.sessionsFailed.Inc()
}

// RecordSessionCancelled increments the cancelled-sessions counter.
func RecordSessionCancelled() {
	globalManager.sessionsCancelled.Inc()
}

// RecordRemovalCleared increments the cleared-removals counter.
func RecordRemovalCleared() {
	globalManager.removalsCleared.Inc()
}

// RecordRemovalFailed increments the failed-removals counter.
func RecordRemovalFailed() {
	globalManager.removalsFailed.Inc()
}

// RecordCardSaved increments the saved-cards counter.
func RecordCardSaved() {
	globalManager.cardsSaved.Inc()
}

// RecordCardSaveError increments the card save error counter.
func RecordCardSaveError() {
	globalManager.cardSaveErrors.Inc()
}

// RecordAggregationLatency records aggregation latency in milliseconds.
func RecordAggregationLatency(latencyMs float64) {
	globalManager.aggregationLatency.Observe(latencyMs)
}

// RecordListingLatency records listing latency in milliseconds.
func RecordListingLatency(latencyMs float64) {
	globalManager.listingLatency.Observe(latencyMs)
}

// RecordRowsRanked adds to the ranked-rows counter.
func RecordRowsRanked(count int) {
	globalManager.rowsRanked.Add(float64(count))
}

// RecordRosterCall increments the roster call counter for an operation.
func RecordRosterCall(operation string) {
	globalManager.rosterCalls.WithLabelValues(operation).Inc()
}

// RecordRosterCallError increments the roster call error counter for an operation.
func RecordRosterCallError(operation string) {
	globalManager.rosterCallErrors.WithLabelValues(operation).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
