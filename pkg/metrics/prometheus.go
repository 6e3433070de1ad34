// Package metrics provides Prometheus metrics for the golazo verification pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the golazo service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Verification run metrics
	runsTotal      prometheus.Counter
	runDuration    prometheus.Histogram
	lastRunUnix    prometheus.Gauge
	matchesByDispo *prometheus.CounterVec

	// Provider metrics
	providerRequests *prometheus.CounterVec
	providerLatency  prometheus.Histogram

	// Scoring and ledger metrics
	betsScored           prometheus.Counter
	ledgerDuplicateSkips prometheus.Counter
	scoringConflicts     prometheus.Counter

	// Ranking metrics
	rankingRecomputes        prometheus.Counter
	rankingRecomputeDuration prometheus.Histogram
	rankingCacheHits         prometheus.Counter
	rankingCacheMisses       prometheus.Counter
	rankingInvalidations     prometheus.Counter

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "golazo",
		subsystem:        "verification",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.runsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Total number of verification runs started",
	})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_ms",
		Help:      "Verification run duration in milliseconds",
		Buckets:   []float64{50, 100, 250, 500, 1000, 5000, 15000, 60000, 300000},
	})

	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last completed verification run",
	})

	m.matchesByDispo = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_processed_total",
		Help:      "Matches processed per run disposition",
	}, []string{"disposition"})

	m.providerRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "provider_requests_total",
		Help:      "Result provider requests per outcome category",
	}, []string{"result"})

	m.providerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "provider_latency_ms",
		Help:      "Result provider request latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.betsScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bets_scored_total",
		Help:      "Total number of bets assigned a point value",
	})

	m.ledgerDuplicateSkips = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_duplicate_skips_total",
		Help:      "Scoring attempts skipped because the ledger already recorded the epoch",
	})

	m.scoringConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_conflicts_total",
		Help:      "Conditional match updates lost to a concurrent writer",
	})

	m.rankingRecomputes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_recomputes_total",
		Help:      "Ranking view recomputations from the authoritative store",
	})

	m.rankingRecomputeDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_recompute_duration_ms",
		Help:      "Ranking view recompute duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.rankingCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_cache_hits_total",
		Help:      "Ranking reads served from the cache",
	})

	m.rankingCacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_cache_misses_total",
		Help:      "Ranking reads that required a recompute",
	})

	m.rankingInvalidations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_invalidations_total",
		Help:      "Explicit ranking cache invalidations",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests per endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// Package-level helpers on the global manager.

// RecordRunStarted increments the run counter.
func RecordRunStarted() {
	globalManager.runsTotal.Inc()
}

// ObserveRunDuration records a completed run's duration.
func ObserveRunDuration(durationMs float64) {
	globalManager.runDuration.Observe(durationMs)
}

// UpdateLastRunUnix records the completion time of the last run.
func UpdateLastRunUnix(ts time.Time) {
	globalManager.lastRunUnix.Set(float64(ts.Unix()))
}

// RecordMatchDisposition counts a processed match by its run disposition.
func RecordMatchDisposition(disposition string) {
	globalManager.matchesByDispo.WithLabelValues(disposition).Inc()
}

// RecordProviderRequest counts a provider call by result category
// (ok, not_yet_available, rate_limited, timeout, partial_data, invalid, unavailable).
func RecordProviderRequest(result string) {
	globalManager.providerRequests.WithLabelValues(result).Inc()
}

// ObserveProviderLatency records a provider request latency.
func ObserveProviderLatency(latencyMs float64) {
	globalManager.providerLatency.Observe(latencyMs)
}

// RecordBetsScored counts bets that received a point value.
func RecordBetsScored(n int) {
	globalManager.betsScored.Add(float64(n))
}

// RecordLedgerDuplicateSkip counts a scoring attempt skipped by the ledger.
func RecordLedgerDuplicateSkip() {
	globalManager.ledgerDuplicateSkips.Inc()
}

// RecordScoringConflict counts a lost conditional match update.
func RecordScoringConflict() {
	globalManager.scoringConflicts.Inc()
}

// RecordRankingRecompute counts a ranking view rebuild.
func RecordRankingRecompute() {
	globalManager.rankingRecomputes.Inc()
}

// ObserveRankingRecomputeDuration records a ranking rebuild duration.
func ObserveRankingRecomputeDuration(durationMs float64) {
	globalManager.rankingRecomputeDuration.Observe(durationMs)
}

// RecordRankingCacheHit counts a ranking read served from cache.
func RecordRankingCacheHit() {
	globalManager.rankingCacheHits.Inc()
}

// RecordRankingCacheMiss counts a ranking read that triggered a recompute.
func RecordRankingCacheMiss() {
	globalManager.rankingCacheMisses.Inc()
}

// RecordRankingInvalidation counts an explicit cache invalidation.
func RecordRankingInvalidation() {
	globalManager.rankingInvalidations.Inc()
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
