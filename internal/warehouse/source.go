package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql
	_ "modernc.org/sqlite"             // SQLite driver for database/sql

	"github.com/garyellow/courseai-go/internal/config"
	apperrors "github.com/garyellow/courseai-go/internal/errors"
)

// Source opens a scoped, read-only handle on the warehouse for the duration
// of one operation. The caller closes the returned handle.
type Source interface {
	Open(ctx context.Context) (*sql.DB, error)
	Dialect() Dialect
	// Describe names the source in logs without leaking credentials.
	Describe() string
}

// SQLiteSource reads a SQLite warehouse file.
type SQLiteSource struct {
	Path string
}

// NewSQLiteSource returns a source for the warehouse file at path.
func NewSQLiteSource(path string) *SQLiteSource {
	return &SQLiteSource{Path: path}
}

func (s *SQLiteSource) Dialect() Dialect { return SQLite{} }

func (s *SQLiteSource) Describe() string { return "sqlite:" + s.Path }

// Open returns ErrWarehouseMissing when the file does not exist, so that
// opening never creates an empty database as a side effect.
func (s *SQLiteSource) Open(ctx context.Context) (*sql.DB, error) {
	info, err := os.Stat(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrWarehouseMissing, s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat warehouse: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", apperrors.ErrWarehouseMissing, s.Path)
	}

	conn, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}
	// One connection per operation keeps the pragma below in effect.
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set query_only: %w", err)
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", config.DatabaseBusyTimeout.Milliseconds())); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return conn, nil
}

// PostgresSource reads the warehouse table from PostgreSQL through pgx.
type PostgresSource struct {
	DSN string
}

// NewPostgresSource returns a source for the database at dsn.
func NewPostgresSource(dsn string) *PostgresSource {
	return &PostgresSource{DSN: dsn}
}

func (s *PostgresSource) Dialect() Dialect { return Postgres{} }

func (s *PostgresSource) Describe() string { return "postgres" }

// Open connects and verifies reachability. An unreachable server is reported
// as ErrWarehouseMissing.
func (s *PostgresSource) Open(ctx context.Context) (*sql.DB, error) {
	conn, err := sql.Open("pgx", s.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %w", apperrors.ErrWarehouseMissing, err)
	}
	if _, err := conn.ExecContext(ctx, "SET SESSION CHARACTERISTICS AS TRANSACTION READ ONLY"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set read only session: %w", err)
	}
	return conn, nil
}

// NewSource picks PostgreSQL when dsn is set and the SQLite file otherwise.
func NewSource(path, dsn string) Source {
	if dsn != "" {
		return NewPostgresSource(dsn)
	}
	return NewSQLiteSource(path)
}
