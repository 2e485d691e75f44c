// Package metrics defines the Prometheus metrics of the query service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Query metrics
	QueriesTotal         *prometheus.CounterVec
	QueryDurationSeconds *prometheus.HistogramVec

	// Intent parsing metrics
	ParserFallbackTotal *prometheus.CounterVec

	// Warehouse metrics
	WarehouseQueriesTotal         *prometheus.CounterVec
	WarehouseQueryDurationSeconds *prometheus.HistogramVec
	WarehouseRowsReturned         *prometheus.HistogramVec
	WarehouseMissingTotal         *prometheus.CounterVec

	// LLM metrics
	LLMRequestsTotal   *prometheus.CounterVec
	LLMDurationSeconds *prometheus.HistogramVec
	LLMFallbackTotal   *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
	RateLimiterActive  *prometheus.GaugeVec

	// Snapshot metrics
	SnapshotDownloads *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal     *prometheus.CounterVec
	HTTPRequestsSeconds *prometheus.HistogramVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courseai_queries_total",
				Help: "Total number of answered questions by mode, parser and outcome",
			},
			[]string{"mode", "parser", "outcome"}, // outcome: results, empty, error
		),
		QueryDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courseai_query_duration_seconds",
				Help:    "End-to-end question latency by parser",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"parser"},
		),

		ParserFallbackTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courseai_parser_fallback_total",
				Help: "Total number of times the rule parser answered in place of the model parser",
			},
			[]string{"reason"}, // reason: model_unavailable, rate_limited, disabled
		),

		WarehouseQueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courseai_warehouse_queries_total",
				Help: "Total number of warehouse queries by mode and status",
			},
			[]string{"mode", "status"}, // status: success, error
		),
		WarehouseQueryDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courseai_warehouse_query_duration_seconds",
				Help:    "Warehouse query duration in seconds by mode",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 5},
			},
			[]string{"mode"},
		),
		WarehouseRowsReturned: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courseai_warehouse_rows_returned",
				Help:    "Rows returned per warehouse query by mode",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
			},
			[]string{"mode"},
		),
		WarehouseMissingTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courseai_warehouse_missing_total",
				Help: "Total number of queries answered empty because the warehouse was missing",
			},
			[]string{"mode"},
		),

		LLMRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courseai_llm_requests_total",
				Help: "Total number of completion requests by provider and status",
			},
			[]string{"provider", "status"}, // status: success, error
		),
		LLMDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courseai_llm_duration_seconds",
				Help:    "Completion latency in seconds by provider, retries included",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 15, 30},
			},
			[]string{"provider"},
		),
		LLMFallbackTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courseai_llm_fallback_total",
				Help: "Total number of cross-provider fallbacks",
			},
			[]string{"from", "to"},
		),

		RateLimiterDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courseai_rate_limiter_dropped_total",
				Help: "Total number of requests refused by a rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: llm
		),
		RateLimiterActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "courseai_rate_limiter_active_keys",
				Help: "Number of clients currently tracked by a rate limiter",
			},
			[]string{"limiter_type"},
		),

		SnapshotDownloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courseai_snapshot_downloads_total",
				Help: "Warehouse snapshot bootstrap attempts by status",
			},
			[]string{"status"}, // status: success, error, skipped
		),

		HTTPErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courseai_http_errors_total",
				Help: "Total HTTP errors by type and route",
			},
			[]string{"error_type", "route"},
		),
		HTTPRequestsSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courseai_http_request_duration_seconds",
				Help:    "HTTP request latency by route and status code",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "code"},
		),
	}
}

// RecordQuery records one answered question.
func (m *Metrics) RecordQuery(mode, parser, outcome string, duration time.Duration) {
	m.QueriesTotal.WithLabelValues(mode, parser, outcome).Inc()
	m.QueryDurationSeconds.WithLabelValues(parser).Observe(duration.Seconds())
}

// RecordParserFallback records the rule parser standing in for the model.
func (m *Metrics) RecordParserFallback(reason string) {
	m.ParserFallbackTotal.WithLabelValues(reason).Inc()
}

// ObserveWarehouseQuery records a warehouse query. It satisfies
// warehouse.MetricsRecorder.
func (m *Metrics) ObserveWarehouseQuery(mode string, duration time.Duration, rows int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.WarehouseQueriesTotal.WithLabelValues(mode, status).Inc()
	m.WarehouseQueryDurationSeconds.WithLabelValues(mode).Observe(duration.Seconds())
	if err == nil {
		m.WarehouseRowsReturned.WithLabelValues(mode).Observe(float64(rows))
	}
}

// RecordWarehouseMissing records a query degraded to empty results.
func (m *Metrics) RecordWarehouseMissing(mode string) {
	m.WarehouseMissingTotal.WithLabelValues(mode).Inc()
}

// ObserveLLMRequest records a completion. It satisfies genai.MetricsRecorder.
func (m *Metrics) ObserveLLMRequest(provider, status string, duration time.Duration) {
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMDurationSeconds.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordLLMFallback records a cross-provider fallback.
func (m *Metrics) RecordLLMFallback(from, to string) {
	m.LLMFallbackTotal.WithLabelValues(from, to).Inc()
}

// RecordRateLimiterDrop records a request refused by a limiter.
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// SetRateLimiterActive sets the number of tracked clients.
func (m *Metrics) SetRateLimiterActive(limiterType string, n int) {
	m.RateLimiterActive.WithLabelValues(limiterType).Set(float64(n))
}

// RecordSnapshot records a snapshot bootstrap attempt.
func (m *Metrics) RecordSnapshot(status string) {
	m.SnapshotDownloads.WithLabelValues(status).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, route string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, route).Inc()
}

// ObserveHTTPRequest records an HTTP request latency.
func (m *Metrics) ObserveHTTPRequest(route, code string, duration time.Duration) {
	m.HTTPRequestsSeconds.WithLabelValues(route, code).Observe(duration.Seconds())
}
