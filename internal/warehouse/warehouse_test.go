package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "github.com/garyellow/courseai-go/internal/errors"
	"github.com/garyellow/courseai-go/internal/intent"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type section struct {
	subject, classNum, title, instructor, semester string
	total, a, b, c, d, f, w                        int
}

var fixedNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

// seedWarehouse writes sections into a fresh SQLite warehouse and returns its path.
func seedWarehouse(t *testing.T, sections []section) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grades.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Exec(`CREATE TABLE grades (
		subject TEXT, class_num TEXT, class_title TEXT, instructor TEXT, semester TEXT,
		total_students INTEGER, a INTEGER, b INTEGER, c INTEGER, d INTEGER, f INTEGER, withdrawn INTEGER)`)
	require.NoError(t, err)
	for _, s := range sections {
		_, err := db.Exec(`INSERT INTO grades VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.subject, s.classNum, s.title, s.instructor, s.semester, s.total, s.a, s.b, s.c, s.d, s.f, s.w)
		require.NoError(t, err)
	}
	return path
}

func newTestEngine(path string) *Engine {
	return New(NewSQLiteSource(path), DefaultConfig(), WithClock(func() time.Time { return fixedNow }))
}

func cs580() []section {
	return []section{
		{"CS", "580", "Query Process Database Systms", "Yu, Clement T", "FA23", 30, 17, 7, 1, 2, 1, 2},
		{"CS", "580", "Query Process Database Systms", "Sintos, Stavros", "SP24", 31, 28, 3, 0, 0, 0, 0},
	}
}

func instructors(rows []RankedResult) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Instructor)
	}
	return out
}

func TestRank_Polarity(t *testing.T) {
	t.Parallel()
	e := newTestEngine(seedWarehouse(t, cs580()))
	ctx := context.Background()

	easy := intent.Intent{Polarity: intent.PolarityEasy, Subject: intent.Ptr("CS"), ClassNum: intent.Ptr("580")}
	rows, err := e.Rank(ctx, easy, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Sintos, Stavros", "Yu, Clement T"}, instructors(rows))
	assert.InDelta(t, 90.3, rows[0].ARate, 0.05)
	assert.InDelta(t, 0.0, rows[0].DFWRate, 0.001)
	assert.InDelta(t, 56.7, rows[1].ARate, 0.05)
	assert.InDelta(t, 16.7, rows[1].DFWRate, 0.05)
	require.NotNil(t, rows[0].Year)
	assert.Equal(t, 2024, *rows[0].Year)

	hard := easy
	hard.Polarity = intent.PolarityHard
	rows, err = e.Rank(ctx, hard, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Yu, Clement T", "Sintos, Stavros"}, instructors(rows))
}

func TestRank_Idempotent(t *testing.T) {
	t.Parallel()
	e := newTestEngine(seedWarehouse(t, []section{
		{"CS", "411", "Database Systems", "A", "FA22", 40, 20, 10, 10, 0, 0, 0},
		{"CS", "411", "Database Systems", "B", "FA22", 40, 20, 10, 10, 0, 0, 0},
		{"CS", "412", "Data Mining", "C", "SP23", 40, 20, 10, 10, 0, 0, 0},
		{"CS", "412", "Data Mining", "D", "XX", 40, 20, 10, 10, 0, 0, 0},
	}))
	in := intent.Default()

	first, err := e.Rank(context.Background(), in, 10)
	require.NoError(t, err)
	second, err := e.Rank(context.Background(), in, 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Equal rates and enrollment: newest term first, undecodable term last.
	assert.Equal(t, []string{"C", "A", "B", "D"}, instructors(first))
	assert.Nil(t, first[3].Year)
}

func TestRank_EnrollmentGuard(t *testing.T) {
	t.Parallel()
	e := newTestEngine(seedWarehouse(t, []section{
		{"CS", "598", "Special Topics", "Tiny", "FA24", 5, 5, 0, 0, 0, 0, 0},
		{"CS", "598", "Special Topics", "Big", "FA24", 50, 10, 20, 20, 0, 0, 0},
		{"CS", "598", "Special Topics", "Empty", "FA24", 0, 0, 0, 0, 0, 0, 0},
	}))
	ctx := context.Background()

	bySubject, err := e.Rank(ctx, intent.Intent{Polarity: intent.PolarityEasy, Subject: intent.Ptr("cs")}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Big"}, instructors(bySubject))

	exact, err := e.Rank(ctx, intent.Intent{Polarity: intent.PolarityEasy, ClassNum: intent.Ptr("598")}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tiny", "Big", "Empty"}, instructors(exact))
	assert.Zero(t, exact[2].ARate)
	assert.Zero(t, exact[2].DFWRate)
}

func TestRank_Recency(t *testing.T) {
	t.Parallel()
	e := newTestEngine(seedWarehouse(t, []section{
		{"MATH", "210", "Calculus", "Recent", "FA23", 20, 10, 10, 0, 0, 0, 0},
		{"MATH", "210", "Calculus", "Boundary", "SP21", 20, 10, 10, 0, 0, 0, 0},
		{"MATH", "210", "Calculus", "Old", "FA19", 20, 10, 10, 0, 0, 0, 0},
		{"MATH", "210", "Calculus", "Garbled", "SUMMER", 20, 10, 10, 0, 0, 0, 0},
		{"MATH", "210", "Calculus", "HalfDigit", "FA2X", 20, 10, 10, 0, 0, 0, 0},
	}))
	ctx := context.Background()

	recent := intent.Default()
	recent.Recent = true
	rows, err := e.Rank(ctx, recent, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Recent", "Boundary"}, instructors(rows))

	all, err := e.Rank(ctx, intent.Default(), 10)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestRank_Level(t *testing.T) {
	t.Parallel()
	e := newTestEngine(seedWarehouse(t, []section{
		{"CS", "500", "Low Edge", "a", "FA24", 20, 10, 0, 0, 0, 0, 0},
		{"CS", "599", "High Edge", "b", "FA24", 20, 10, 0, 0, 0, 0, 0},
		{"CS", "600", "Above", "c", "FA24", 20, 10, 0, 0, 0, 0, 0},
		{"CS", "499", "Below", "d", "FA24", 20, 10, 0, 0, 0, 0, 0},
		{"CS", "5A0", "Non Numeric", "e", "FA24", 20, 10, 0, 0, 0, 0, 0},
		{"CS", "", "Blank", "f", "FA24", 20, 10, 0, 0, 0, 0, 0},
	}))

	in := intent.Default()
	in.Level = intent.Ptr(500)
	rows, err := e.Rank(context.Background(), in, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, instructors(rows))
}

func TestRank_LevelAndClassNumFromSamePhrase(t *testing.T) {
	t.Parallel()
	e := newTestEngine(seedWarehouse(t, []section{
		{"CS", "500", "Machine Learning Seminar", "a", "FA24", 20, 10, 0, 0, 0, 0, 0},
		{"CS", "542", "Machine Learning", "b", "FA24", 20, 10, 0, 0, 0, 0, 0},
	}))

	in := intent.ParseRules("show easy ml courses 500-level")
	require.Equal(t, "500", in.ClassNumValue())
	require.NotNil(t, in.Level)

	rows, err := e.Rank(context.Background(), in, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, instructors(rows))
}

func TestRank_KeywordsAreDisjunctive(t *testing.T) {
	t.Parallel()
	e := newTestEngine(seedWarehouse(t, []section{
		{"CS", "412", "Intro to Data Mining", "data", "FA24", 20, 10, 0, 0, 0, 0, 0},
		{"CS", "446", "Machine Learning", "ml", "FA24", 20, 10, 0, 0, 0, 0, 0},
		{"CS", "426", "Compiler Construction", "compilers", "FA24", 20, 10, 0, 0, 0, 0, 0},
		{"CS", "440", "Artificial Intelligence", "ai", "FA24", 20, 10, 0, 0, 0, 0, 0},
	}))

	in := intent.Default()
	in.Keywords = []string{"ml", "data"}
	rows, err := e.Rank(context.Background(), in, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"data", "ml"}, instructors(rows))

	unknown := intent.Default()
	unknown.Keywords = []string{"cooking"}
	rows, err = e.Rank(context.Background(), unknown, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestRank_InstructorAndUntrustedValues(t *testing.T) {
	t.Parallel()
	e := newTestEngine(seedWarehouse(t, []section{
		{"CS", "580", "Databases", "Yu, Clement T", "FA23", 30, 10, 0, 0, 0, 0, 0},
		{"CS", "580", "Databases", "Sintos, Stavros", "FA23", 30, 10, 0, 0, 0, 0, 0},
		{"CS", "580", "Databases", "100% Staff", "FA23", 30, 10, 0, 0, 0, 0, 0},
	}))
	ctx := context.Background()

	in := intent.Default()
	in.InstructorLike = intent.Ptr("yu")
	rows, err := e.Rank(ctx, in, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Yu, Clement T"}, instructors(rows))

	in.InstructorLike = intent.Ptr("%")
	rows, err = e.Rank(ctx, in, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"100% Staff"}, instructors(rows))

	injected := intent.Default()
	injected.Subject = intent.Ptr("CS' OR '1'='1")
	rows, err = e.Rank(ctx, injected, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRank_TopN(t *testing.T) {
	t.Parallel()
	var sections []section
	for i := range 60 {
		sections = append(sections, section{"STAT", fmt.Sprintf("%d", 100+i), "Statistics", fmt.Sprintf("i%02d", i), "FA24", 20 + i, 10, 0, 0, 0, 0, 0})
	}
	e := newTestEngine(seedWarehouse(t, sections))
	ctx := context.Background()

	rows, err := e.Rank(ctx, intent.Default(), 0)
	require.NoError(t, err)
	assert.Len(t, rows, 5)

	rows, err = e.Rank(ctx, intent.Default(), 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = e.Rank(ctx, intent.Default(), 1000)
	require.NoError(t, err)
	assert.Len(t, rows, 50)
}

func TestDetails(t *testing.T) {
	t.Parallel()
	var sections []section
	terms := []string{"SP", "SU", "FA"}
	for i := range 30 {
		sem := fmt.Sprintf("%s%02d", terms[i%3], 10+i/3)
		sections = append(sections, section{"CS", "580", "Databases", "Yu, Clement T", sem, 30, 10, 10, 5, 2, 2, 1})
	}
	sections = append(sections, section{"CS", "580", "Databases", "Yu, Clement T", "TBD", 30, 10, 10, 5, 2, 2, 1})
	sections = append(sections, section{"CS", "580", "Databases", "Other", "FA24", 30, 10, 10, 5, 2, 2, 1})
	e := newTestEngine(seedWarehouse(t, sections))

	rows, err := e.Details(context.Background(), "cs", "580", "yu")
	require.NoError(t, err)
	require.Len(t, rows, MaxDetailRows)
	for i := 1; i < len(rows); i++ {
		require.NotNil(t, rows[i].Year)
		assert.LessOrEqual(t, *rows[i].Year, *rows[i-1].Year, "rows must be newest first")
	}
	assert.Equal(t, 2019, *rows[0].Year)
	assert.Equal(t, "Yu, Clement T", rows[0].Instructor)
	assert.Equal(t, 33.3, rows[0].ARate)
	assert.Equal(t, 16.7, rows[0].DFWRate)
}

func TestDetails_NoFiltersAppliesEnrollmentGuard(t *testing.T) {
	t.Parallel()
	e := newTestEngine(seedWarehouse(t, []section{
		{"CS", "580", "Databases", "Small", "FA23", 3, 3, 0, 0, 0, 0, 0},
		{"CS", "580", "Databases", "Large", "FA22", 30, 3, 0, 0, 0, 0, 0},
	}))
	ctx := context.Background()

	rows, err := e.Details(ctx, "CS", "", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Large", rows[0].Instructor)

	rows, err = e.Details(ctx, "CS", "580", "")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "Small", rows[0].Instructor)
}

func TestMissingWarehouse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("no file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "absent.db")
		e := newTestEngine(path)

		rows, err := e.Rank(ctx, intent.Default(), 5)
		require.NoError(t, err)
		assert.Empty(t, rows)

		details, err := e.Details(ctx, "CS", "580", "")
		require.NoError(t, err)
		assert.Empty(t, details)

		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), "querying must not create the warehouse file")

		_, err = e.Count(ctx)
		assert.ErrorIs(t, err, apperrors.ErrWarehouseMissing)
	})

	t.Run("no table", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "empty.db")
		db, err := sql.Open("sqlite", path)
		require.NoError(t, err)
		_, err = db.Exec("CREATE TABLE unrelated (id INTEGER)")
		require.NoError(t, err)
		require.NoError(t, db.Close())

		rec := &recorder{}
		e := New(NewSQLiteSource(path), DefaultConfig(), WithMetrics(rec))
		rows, err := e.Rank(ctx, intent.Default(), 5)
		require.NoError(t, err)
		assert.Empty(t, rows)
		assert.Equal(t, 1, rec.missing)
	})

	t.Run("not a database", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "grades.db")
		garbage := []byte(strings.Repeat("this is not a sqlite file\n", 200))
		require.NoError(t, os.WriteFile(path, garbage, 0o600))

		rec := &recorder{}
		e := New(NewSQLiteSource(path), DefaultConfig(), WithMetrics(rec))
		rows, err := e.Rank(ctx, intent.Default(), 5)
		require.NoError(t, err)
		assert.Empty(t, rows)

		details, err := e.Details(ctx, "CS", "580", "")
		require.NoError(t, err)
		assert.Empty(t, details)
		assert.Equal(t, 2, rec.missing)

		_, err = e.Count(ctx)
		assert.ErrorIs(t, err, apperrors.ErrWarehouseMissing)
	})
}

func TestCount(t *testing.T) {
	t.Parallel()
	e := newTestEngine(seedWarehouse(t, cs580()))
	n, err := e.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestRank_ConcurrentReaders(t *testing.T) {
	t.Parallel()
	e := newTestEngine(seedWarehouse(t, cs580()))
	in := intent.Intent{Polarity: intent.PolarityEasy, ClassNum: intent.Ptr("580")}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Go(func() {
			rows, err := e.Rank(context.Background(), in, 5)
			if err == nil && len(rows) != 2 {
				err = fmt.Errorf("got %d rows", len(rows))
			}
			errs <- err
		})
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

type recorder struct {
	mu      sync.Mutex
	queries int
	missing int
}

func (r *recorder) ObserveWarehouseQuery(string, time.Duration, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
}

func (r *recorder) RecordWarehouseMissing(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missing++
}
