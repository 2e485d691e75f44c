// Package config provides centralized timeout constants for the application.
//
// The values assume a small read-only warehouse (one SQLite file or a
// modest PostgreSQL table) and a single completion round trip per question.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the server read timeout. Request bodies are small JSON.
	HTTPRead = 10 * time.Second

	// HTTPWrite covers LLMParse plus the warehouse query and serialization.
	HTTPWrite = 45 * time.Second

	// HTTPIdle is the idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second

	// RequestProcessing bounds one /api/query request end to end.
	RequestProcessing = 40 * time.Second
)

// LLM timeouts
const (
	// LLMParse is the default budget for one model-backed parse, including
	// chain retries. Overridden by COURSEAI_LLM_TIMEOUT.
	LLMParse = 15 * time.Second
)

// Warehouse timeouts
const (
	// WarehouseQuery bounds a single rank or details query.
	WarehouseQuery = 10 * time.Second

	// DatabaseBusyTimeout is the SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 5 * time.Second
)

// Snapshot timeouts
const (
	// SnapshotDownload bounds the one-shot warehouse bootstrap from R2.
	SnapshotDownload = 2 * time.Minute
)

// Background job intervals
const (
	// RateLimiterCleanupInterval is how often idle per-client limiters are dropped.
	RateLimiterCleanupInterval = 5 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the default timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second
)
