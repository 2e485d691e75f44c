// Package warehouse compiles canonical intents into parameterized queries
// over the grade warehouse table and executes them against a scoped,
// read-only connection. Nothing is cached between calls: each operation is
// a function of the intent, the configuration and the current warehouse
// contents.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	apperrors "github.com/garyellow/courseai-go/internal/errors"
	"github.com/garyellow/courseai-go/internal/intent"
)

// Config holds the ranking tunables. It is passed explicitly to the engine.
type Config struct {
	MinEnrollment int // smallest section counted by rank/details unless class_num is exact
	RecencyYears  int // "recent" means term year >= current year - RecencyYears
	DefaultTopN   int
	MaxTopN       int
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{MinEnrollment: 8, RecencyYears: 5, DefaultTopN: 5, MaxTopN: 50}
}

// MetricsRecorder receives query observations.
type MetricsRecorder interface {
	ObserveWarehouseQuery(mode string, duration time.Duration, rows int, err error)
	RecordWarehouseMissing(mode string)
}

// slowQueryThreshold triggers a warning log.
const slowQueryThreshold = 200 * time.Millisecond

// Engine runs rank and details queries.
type Engine struct {
	source  Source
	cfg     Config
	now     func() time.Time
	metrics MetricsRecorder
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for the recency window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine over source.
func New(source Source, cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.DefaultTopN <= 0 {
		cfg.DefaultTopN = def.DefaultTopN
	}
	if cfg.MaxTopN <= 0 {
		cfg.MaxTopN = def.MaxTopN
	}
	e := &Engine{source: source, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine's tunables.
func (e *Engine) Config() Config { return e.cfg }

// Rank returns up to topN sections matching in, ordered by its polarity.
// A missing or unreachable warehouse yields an empty result and a warning.
func (e *Engine) Rank(ctx context.Context, in intent.Intent, topN int) ([]RankedResult, error) {
	limit := e.limit(topN)
	query, args := buildRank(e.source.Dialect(), in, limit, e.cfg, e.now())

	results := make([]RankedResult, 0, limit)
	err := e.run(ctx, "rank", query, args, func(rows *sql.Rows) error {
		var r RankedResult
		var year sql.NullInt64
		if err := rows.Scan(&r.Subject, &r.ClassNum, &r.ClassTitle, &r.Instructor, &r.Semester,
			&r.TotalStudents, &r.ARate, &r.DFWRate, &year); err != nil {
			return err
		}
		r.Year = yearPtr(year)
		results = append(results, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Details returns the per-semester rows for a course/instructor, newest
// first and never more than MaxDetailRows. Empty arguments do not filter.
func (e *Engine) Details(ctx context.Context, subject, classNum, instructorLike string) ([]DetailRow, error) {
	f := Filter{Subject: subject, ClassNum: classNum, Instructor: instructorLike}
	query, args := buildDetails(e.source.Dialect(), f, e.cfg, e.now())

	results := make([]DetailRow, 0, MaxDetailRows)
	err := e.run(ctx, "details", query, args, func(rows *sql.Rows) error {
		var r DetailRow
		var year sql.NullInt64
		if err := rows.Scan(&r.Subject, &r.ClassNum, &r.ClassTitle, &r.Instructor, &r.Semester,
			&r.TotalStudents, &r.ARate, &r.DFWRate, &year); err != nil {
			return err
		}
		r.ARate = round1(r.ARate)
		r.DFWRate = round1(r.DFWRate)
		r.Year = yearPtr(year)
		results = append(results, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Count returns the number of rows in the warehouse table. Unlike Rank and
// Details it reports a missing warehouse as ErrWarehouseMissing.
func (e *Engine) Count(ctx context.Context) (int64, error) {
	db, err := e.source.Open(ctx)
	if err != nil {
		if e.source.Dialect().IsMissingWarehouse(err) {
			return 0, fmt.Errorf("%w: %w", apperrors.ErrWarehouseMissing, err)
		}
		return 0, err
	}
	defer func() { _ = db.Close() }()

	var n int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+Table).Scan(&n); err != nil {
		if e.source.Dialect().IsMissingWarehouse(err) {
			return 0, fmt.Errorf("%w: %w", apperrors.ErrWarehouseMissing, err)
		}
		return 0, fmt.Errorf("failed to count warehouse rows: %w", err)
	}
	return n, nil
}

func (e *Engine) limit(topN int) int {
	if topN <= 0 {
		return e.cfg.DefaultTopN
	}
	return min(topN, e.cfg.MaxTopN)
}

// run opens a scoped connection, executes query and hands each row to scan.
// The connection is closed on every path.
func (e *Engine) run(ctx context.Context, mode, query string, args []any, scan func(*sql.Rows) error) (err error) {
	start := time.Now()
	rowCount := 0
	defer func() {
		if e.metrics != nil {
			e.metrics.ObserveWarehouseQuery(mode, time.Since(start), rowCount, err)
		}
	}()

	db, err := e.source.Open(ctx)
	if err != nil {
		if e.source.Dialect().IsMissingWarehouse(err) {
			err = fmt.Errorf("%w: %w", apperrors.ErrWarehouseMissing, err)
		}
		return e.degrade(ctx, mode, err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		if e.source.Dialect().IsMissingWarehouse(err) {
			return e.degrade(ctx, mode, fmt.Errorf("%w: %w", apperrors.ErrWarehouseMissing, err))
		}
		return fmt.Errorf("warehouse %s query: %w", mode, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("warehouse %s scan: %w", mode, err)
		}
		rowCount++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("warehouse %s rows: %w", mode, err)
	}

	if d := time.Since(start); d > slowQueryThreshold {
		slog.WarnContext(ctx, "slow warehouse query",
			"mode", mode,
			"rows", rowCount,
			"duration_ms", d.Milliseconds())
	}
	return nil
}

// degrade turns a missing warehouse into an empty result. Other open errors
// are returned.
func (e *Engine) degrade(ctx context.Context, mode string, err error) error {
	if !errors.Is(err, apperrors.ErrWarehouseMissing) {
		return fmt.Errorf("warehouse %s: %w", mode, err)
	}
	slog.WarnContext(ctx, "warehouse unavailable, returning no results",
		"mode", mode,
		"source", e.source.Describe(),
		"error", err)
	if e.metrics != nil {
		e.metrics.RecordWarehouseMissing(mode)
	}
	return nil
}

func yearPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	y := int(v.Int64)
	return &y
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
