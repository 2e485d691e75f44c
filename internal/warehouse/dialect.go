package warehouse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect supplies the SQL fragments that differ between backends.
type Dialect interface {
	Name() string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	// TermYear decodes a term code such as "FA23" to 2023, or NULL when the
	// trailing two characters are not digits.
	TermYear(col string) string
	// IsCourseNumber is true when col holds only digits and fits an integer.
	IsCourseNumber(col string) string
	CastInt(expr string) string
	CastFloat(expr string) string
	// IsMissingWarehouse reports whether err means there is no readable
	// warehouse: the table is absent or the file is not a database.
	IsMissingWarehouse(err error) bool
}

// SQLite is the dialect of the embedded SQLite warehouse.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) TermYear(col string) string {
	return fmt.Sprintf("(CASE WHEN length(%[1]s) >= 2 AND substr(%[1]s, -2) GLOB '[0-9][0-9]' "+
		"THEN 2000 + CAST(substr(%[1]s, -2) AS INTEGER) END)", col)
}

func (SQLite) IsCourseNumber(col string) string {
	return fmt.Sprintf("(length(%[1]s) BETWEEN 1 AND 9 AND %[1]s NOT GLOB '*[^0-9]*')", col)
}

func (SQLite) CastInt(expr string) string { return "CAST(" + expr + " AS INTEGER)" }

func (SQLite) CastFloat(expr string) string { return "CAST(" + expr + " AS REAL)" }

func (SQLite) IsMissingWarehouse(err error) bool {
	if err == nil {
		return false
	}
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) && sqlErr.Code()&0xff == sqlite3.SQLITE_NOTADB {
		return true
	}
	return strings.Contains(err.Error(), "no such table")
}

// Postgres is the dialect of a PostgreSQL-hosted warehouse.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (Postgres) TermYear(col string) string {
	return fmt.Sprintf("(CASE WHEN right(%[1]s, 2) ~ '^[0-9]{2}$' THEN 2000 + CAST(right(%[1]s, 2) AS INTEGER) END)", col)
}

func (Postgres) IsCourseNumber(col string) string {
	return fmt.Sprintf("(%s ~ '^[0-9]{1,9}$')", col)
}

func (Postgres) CastInt(expr string) string { return "CAST(" + expr + " AS BIGINT)" }

func (Postgres) CastFloat(expr string) string { return "CAST(" + expr + " AS DOUBLE PRECISION)" }

// undefinedTable is the SQLSTATE for a missing relation.
const undefinedTable = "42P01"

func (Postgres) IsMissingWarehouse(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}
