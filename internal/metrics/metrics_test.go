package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew_RegistersOnce(t *testing.T) {
	t.Parallel()
	registry := prometheus.NewRegistry()
	m := New(registry)
	if m == nil {
		t.Fatal("New() returned nil")
	}

	// A second registration of the same names must panic.
	assert.Panics(t, func() { New(registry) })
}

func TestRecordQuery(t *testing.T) {
	t.Parallel()
	m := New(prometheus.NewRegistry())

	m.RecordQuery("rank", "llm", "results", 120*time.Millisecond)
	m.RecordQuery("rank", "llm", "results", 80*time.Millisecond)
	m.RecordQuery("details", "rule", "empty", time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("rank", "llm", "results")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("details", "rule", "empty")), 0)
}

func TestObserveWarehouseQuery(t *testing.T) {
	t.Parallel()
	m := New(prometheus.NewRegistry())

	m.ObserveWarehouseQuery("rank", 5*time.Millisecond, 5, nil)
	m.ObserveWarehouseQuery("rank", 5*time.Millisecond, 0, errors.New("boom"))
	m.RecordWarehouseMissing("details")

	assert.InDelta(t, 1, testutil.ToFloat64(m.WarehouseQueriesTotal.WithLabelValues("rank", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.WarehouseQueriesTotal.WithLabelValues("rank", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.WarehouseMissingTotal.WithLabelValues("details")), 0)
	// Rows are only observed for successful queries.
	assert.Equal(t, 1, testutil.CollectAndCount(m.WarehouseRowsReturned))
}

func TestLLMMetrics(t *testing.T) {
	t.Parallel()
	m := New(prometheus.NewRegistry())

	m.ObserveLLMRequest("openai", "error", time.Second)
	m.ObserveLLMRequest("gemini", "success", time.Second)
	m.RecordLLMFallback("openai", "gemini")
	m.RecordParserFallback("model_unavailable")

	assert.InDelta(t, 1, testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("openai", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LLMFallbackTotal.WithLabelValues("openai", "gemini")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ParserFallbackTotal.WithLabelValues("model_unavailable")), 0)
}

func TestRateLimiterAndHTTP(t *testing.T) {
	t.Parallel()
	m := New(prometheus.NewRegistry())

	m.RecordRateLimiterDrop("llm")
	m.SetRateLimiterActive("llm", 7)
	m.RecordSnapshot("success")
	m.RecordHTTPError("invalid_request", "/api/query")
	m.ObserveHTTPRequest("/api/query", "200", 10*time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(m.RateLimiterDropped.WithLabelValues("llm")), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(m.RateLimiterActive.WithLabelValues("llm")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SnapshotDownloads.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPErrorsTotal.WithLabelValues("invalid_request", "/api/query")), 0)
}
