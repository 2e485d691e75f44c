package warehouse

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/garyellow/courseai-go/internal/intent"
)

// titlePhrases maps a keyword tag to the title substrings it selects.
// A section matches a tag when its title contains any of the phrases.
var titlePhrases = map[string][]string{
	"ml":        {"machine", "learning", "ai"},
	"ai":        {"artificial", "intelligence", "ai"},
	"data":      {"data"},
	"nlp":       {"language", "nlp", "text"},
	"language":  {"language", "nlp", "text"},
	"query":     {"query", "retrieval", "information"},
	"retrieval": {"query", "retrieval", "information"},
	"ir":        {"query", "retrieval", "information"},
	"bio":       {"bio", "genom", "genetic", "molecular"},
	"stats":     {"statistic", "probability", "regression", "stochastic"},
	"systems":   {"system", "operating", "distributed", "network", "architecture"},
	"theory":    {"theory", "algorithm", "automata", "complexity", "computation"},
}

// Filter is the conjunctive filter set shared by rank and details.
type Filter struct {
	Subject    string
	ClassNum   string
	Level      *int
	Keywords   []string
	Instructor string
	Recent     bool
}

// FilterFromIntent extracts the filters an intent requests.
func FilterFromIntent(in intent.Intent) Filter {
	return Filter{
		Subject:    in.SubjectValue(),
		ClassNum:   in.ClassNumValue(),
		Level:      in.Level,
		Keywords:   in.Keywords,
		Instructor: in.InstructorValue(),
		Recent:     in.Recent,
	}
}

// query accumulates SQL text and its bound arguments. User-derived values
// only ever reach the database as arguments.
type query struct {
	dialect Dialect
	where   []string
	args    []any
}

func newQuery(d Dialect) *query {
	return &query{dialect: d}
}

// bind records v and returns its placeholder.
func (q *query) bind(v any) string {
	q.args = append(q.args, v)
	return q.dialect.Placeholder(len(q.args))
}

func (q *query) and(clause string) {
	q.where = append(q.where, clause)
}

// applyFilter adds the WHERE clauses for f.
func (q *query) applyFilter(f Filter, cfg Config, now time.Time) {
	d := q.dialect

	if s := strings.TrimSpace(f.Subject); s != "" {
		q.and("UPPER(subject) = " + q.bind(strings.ToUpper(s)))
	}

	exactClass := strings.TrimSpace(f.ClassNum)
	if exactClass != "" {
		q.and("class_num = " + q.bind(exactClass))
	}

	if f.Level != nil {
		lo := *f.Level
		q.and(fmt.Sprintf("(CASE WHEN %s THEN %s END) BETWEEN %s AND %s",
			d.IsCourseNumber("class_num"), d.CastInt("class_num"), q.bind(lo), q.bind(lo+99)))
	}

	if clause := q.keywordClause(f.Keywords); clause != "" {
		q.and(clause)
	}

	if s := strings.TrimSpace(f.Instructor); s != "" {
		q.and(`LOWER(instructor) LIKE ` + q.bind(containsPattern(strings.ToLower(s))) + ` ESCAPE '\'`)
	}

	// Exact class lookups bypass the small-section guard.
	if exactClass == "" {
		q.and("total_students >= " + q.bind(cfg.MinEnrollment))
	}

	if f.Recent {
		q.and(d.TermYear("semester") + " >= " + q.bind(now.Year()-cfg.RecencyYears))
	}
}

// keywordClause ORs every phrase of every requested family into one clause.
// Unknown tags contribute nothing.
func (q *query) keywordClause(keywords []string) string {
	var phrases []string
	for _, k := range keywords {
		for _, p := range titlePhrases[strings.ToLower(k)] {
			if !slices.Contains(phrases, p) {
				phrases = append(phrases, p)
			}
		}
	}
	if len(phrases) == 0 {
		return ""
	}
	parts := make([]string, 0, len(phrases))
	for _, p := range phrases {
		parts = append(parts, `LOWER(class_title) LIKE `+q.bind(containsPattern(p))+` ESCAPE '\'`)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// sectionsCTE is the per-section projection with derived rates and the
// decoded term year.
func (q *query) sectionsCTE() string {
	d := q.dialect
	total := "COALESCE(total_students, 0)"
	aRate := fmt.Sprintf("CASE WHEN %[1]s > 0 THEN %[2]s * 100 / %[1]s ELSE 0 END",
		total, d.CastFloat("COALESCE(a, 0)"))
	dfwRate := fmt.Sprintf("CASE WHEN %[1]s > 0 THEN %[2]s * 100 / %[1]s ELSE 0 END",
		total, d.CastFloat("COALESCE(d, 0) + COALESCE(f, 0) + COALESCE(withdrawn, 0)"))

	var b strings.Builder
	b.WriteString("SELECT COALESCE(subject, '') AS subject, COALESCE(class_num, '') AS class_num, ")
	b.WriteString("COALESCE(class_title, '') AS class_title, COALESCE(instructor, '') AS instructor, ")
	b.WriteString("COALESCE(semester, '') AS semester, ")
	b.WriteString(d.CastInt(total) + " AS total_students, ")
	b.WriteString(d.CastFloat(aRate) + " AS a_rate, ")
	b.WriteString(d.CastFloat(dfwRate) + " AS dfw_rate, ")
	b.WriteString(d.TermYear("semester") + " AS term_year ")
	b.WriteString("FROM " + Table)
	if len(q.where) > 0 {
		b.WriteString(" WHERE " + strings.Join(q.where, " AND "))
	}
	return b.String()
}

// orderBy returns the ORDER BY list for a ranking direction. Ties past the
// four ranking keys fall back to the section identity so equal inputs always
// produce equal output order.
func orderBy(p intent.Polarity) string {
	const tail = "total_students DESC, term_year IS NULL, term_year DESC, subject, class_num, instructor, semester"
	if p == intent.PolarityHard {
		return "dfw_rate DESC, a_rate ASC, " + tail
	}
	return "a_rate DESC, dfw_rate ASC, " + tail
}

const selectColumns = "subject, class_num, class_title, instructor, semester, total_students, a_rate, dfw_rate, term_year"

// buildRank compiles the ranking query for in.
func buildRank(d Dialect, in intent.Intent, limit int, cfg Config, now time.Time) (string, []any) {
	q := newQuery(d)
	q.applyFilter(FilterFromIntent(in), cfg, now)
	sql := "WITH sections AS (" + q.sectionsCTE() + ") SELECT " + selectColumns +
		" FROM sections ORDER BY " + orderBy(in.Polarity) + " LIMIT " + q.bind(limit)
	return sql, q.args
}

// buildDetails compiles the per-semester drill-down query.
func buildDetails(d Dialect, f Filter, cfg Config, now time.Time) (string, []any) {
	q := newQuery(d)
	q.applyFilter(f, cfg, now)
	sql := "WITH sections AS (" + q.sectionsCTE() + ") SELECT " + selectColumns +
		" FROM sections ORDER BY term_year IS NULL, term_year DESC, subject, class_num, instructor, semester LIMIT " +
		q.bind(MaxDetailRows)
	return sql, q.args
}
