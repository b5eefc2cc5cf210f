// Package metrics provides Prometheus metrics for the arcade points service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// defaultLatencyBuckets are in milliseconds.
var defaultLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100} //nolint:gochecknoglobals // read-only defaults

// Drop reasons reported by RecordBadgeDropped.
const (
	DropMalformedDate = "malformed_date"
	DropDuplicate     = "duplicate"
	DropBeforeStart   = "before_start"
)

// Manager manages all Prometheus metrics for the arcade points service.
type Manager struct {
	namespace       string
	subsystem       string
	latencyBuckets  []float64
	enabled         bool
	refreshInterval time.Duration
	constLabels     map[string]string
	metricPrefix    string
	registry        prometheus.Registerer

	// Engine Metrics
	badgesClassified *prometheus.CounterVec
	badgesDropped    *prometheus.CounterVec
	computations     *prometheus.CounterVec
	computeLatency   prometheus.Histogram
	milestoneTiers   *prometheus.CounterVec
	batchSize        prometheus.Histogram

	// Leaderboard Metrics
	leaderboardUpdates      prometheus.Counter
	leaderboardParticipants prometheus.Gauge
	leaderboardQueryLatency prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         prometheus.Counter

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure rebuilds the global manager with opts on a fresh registry, which
// GetRegistry then returns. Call it once at startup, before metrics are
// recorded or served.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "arcade",
		subsystem:       "points",
		latencyBuckets:  defaultLatencyBuckets,
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		constLabels:     make(map[string]string),
		metricPrefix:    "",
		registry:        prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// name applies the configured metric prefix.
func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Engine Metrics
	m.badgesClassified = auto.NewCounterVec(
		m.counterOpts("badges_classified_total", "Total number of badges classified, by category"),
		[]string{"category"},
	)
	m.badgesDropped = auto.NewCounterVec(
		m.counterOpts("badges_dropped_total", "Total number of badges excluded from scoring, by reason"),
		[]string{"reason"},
	)
	m.computations = auto.NewCounterVec(
		m.counterOpts("computations_total", "Total number of score computations, by mode"),
		[]string{"mode"},
	)
	m.computeLatency = auto.NewHistogram(
		m.histogramOpts("compute_latency_milliseconds", "Histogram of score computation latency in milliseconds", m.latencyBuckets),
	)
	m.milestoneTiers = auto.NewCounterVec(
		m.counterOpts("milestone_tier_total", "Facilitator evaluations by resulting milestone tier"),
		[]string{"tier"},
	)
	m.batchSize = auto.NewHistogram(
		m.histogramOpts("batch_size", "Number of participants per batch request", []float64{1, 5, 10, 25, 50, 100, 250, 500}),
	)

	// Leaderboard Metrics
	m.leaderboardUpdates = auto.NewCounter(
		m.counterOpts("leaderboard_updates_total", "Total number of leaderboard upserts"),
	)
	m.leaderboardParticipants = auto.NewGauge(
		m.gaugeOpts("leaderboard_participants", "Number of participants on the leaderboard"),
	)
	m.leaderboardQueryLatency = auto.NewHistogram(
		m.histogramOpts("leaderboard_query_latency_milliseconds", "Histogram of leaderboard query latency in milliseconds", m.latencyBuckets),
	)

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_seconds", "HTTP request duration in seconds", prometheus.DefBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.rateLimited = auto.NewCounter(
		m.counterOpts("http_rate_limited_total", "Total number of requests rejected by the rate limiter"),
	)

	// Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"),
	)
	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutine_count", "Number of goroutines"),
	)
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Enabled reports whether the manager records anything.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is the period for polling gauges such as system metrics.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Engine Metrics Functions.

// RecordBadgeClassified increments the classified counter for category.
func (m *Manager) RecordBadgeClassified(category string) {
	if m.enabled {
		m.badgesClassified.WithLabelValues(category).Inc()
	}
}

// RecordBadgesDropped adds n to the dropped counter for reason.
func (m *Manager) RecordBadgesDropped(reason string, n int) {
	if m.enabled && n > 0 {
		m.badgesDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordComputation counts one computation and observes its latency.
func (m *Manager) RecordComputation(facilitator bool, latencyMs float64) {
	if !m.enabled {
		return
	}
	mode := "standard"
	if facilitator {
		mode = "facilitator"
	}
	m.computations.WithLabelValues(mode).Inc()
	m.computeLatency.Observe(latencyMs)
}

// RecordMilestoneTier counts a facilitator evaluation landing on tier.
func (m *Manager) RecordMilestoneTier(tier int) {
	if m.enabled {
		m.milestoneTiers.WithLabelValues(strconv.Itoa(tier)).Inc()
	}
}

// RecordBatchSize observes the size of a batch request.
func (m *Manager) RecordBatchSize(n int) {
	if m.enabled {
		m.batchSize.Observe(float64(n))
	}
}

// RecordBadgeClassified increments the classified counter for category.
func RecordBadgeClassified(category string) { globalManager.RecordBadgeClassified(category) }

// RecordBadgesDropped adds n to the dropped counter for reason.
func RecordBadgesDropped(reason string, n int) { globalManager.RecordBadgesDropped(reason, n) }

// RecordComputation counts one computation and observes its latency.
func RecordComputation(facilitator bool, latencyMs float64) {
	globalManager.RecordComputation(facilitator, latencyMs)
}

// RecordMilestoneTier counts a facilitator evaluation landing on tier.
func RecordMilestoneTier(tier int) { globalManager.RecordMilestoneTier(tier) }

// RecordBatchSize observes the size of a batch request.
func RecordBatchSize(n int) { globalManager.RecordBatchSize(n) }

// Leaderboard Metrics Functions.

// RecordLeaderboardUpdate increments the leaderboard updates counter.
func RecordLeaderboardUpdate() {
	if globalManager.enabled {
		globalManager.leaderboardUpdates.Inc()
	}
}

// UpdateLeaderboardParticipants sets the number of ranked participants.
func UpdateLeaderboardParticipants(count int) {
	if globalManager.enabled {
		globalManager.leaderboardParticipants.Set(float64(count))
	}
}

// RecordLeaderboardQueryLatency records leaderboard query latency.
func RecordLeaderboardQueryLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.leaderboardQueryLatency.Observe(latencyMs)
	}
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordRateLimited increments the rate-limited counter.
func RecordRateLimited() {
	if globalManager.enabled {
		globalManager.rateLimited.Inc()
	}
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// SystemRefreshInterval is the refresh interval of the global manager.
func SystemRefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
