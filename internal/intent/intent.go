// Package intent defines the canonical query intent shared by every parser
// and consumed by the warehouse query compiler, together with the
// deterministic rule-based parser and the normalization applied to
// loosely-typed model output.
package intent

import (
	"slices"
	"strings"
)

// Polarity is the ranking direction of a query.
type Polarity string

const (
	// PolarityEasy favors high A rates and low D/F/W rates.
	PolarityEasy Polarity = "easy"
	// PolarityHard favors high D/F/W rates and low A rates.
	PolarityHard Polarity = "hard"
)

// Valid reports whether p is one of the two known directions.
func (p Polarity) Valid() bool {
	return p == PolarityEasy || p == PolarityHard
}

// Intent is the canonical structured form of a user request.
// Its JSON field names are the wire contract for frontend consumers.
type Intent struct {
	Polarity       Polarity `json:"polarity"`
	Subject        *string  `json:"subject"`
	ClassNum       *string  `json:"class_num"`
	Level          *int     `json:"level"`
	Keywords       []string `json:"keywords"`
	Recent         bool     `json:"recent"`
	InstructorLike *string  `json:"instructor_like"`
	Explain        bool     `json:"explain"`
	Details        bool     `json:"details"`
}

// Default returns the all-defaults intent.
func Default() Intent {
	return Intent{Polarity: PolarityEasy, Keywords: []string{}}
}

// Canonicalize enforces the casing and set invariants in place:
// polarity falls back to easy, subject is uppercase, instructor_like is
// lowercase, blank optionals become nil, and keywords are a sorted,
// duplicate-free, non-nil slice.
func (in *Intent) Canonicalize() {
	if !in.Polarity.Valid() {
		in.Polarity = PolarityEasy
	}
	in.Subject = trimmedOrNil(in.Subject, strings.ToUpper)
	in.ClassNum = trimmedOrNil(in.ClassNum, nil)
	in.InstructorLike = trimmedOrNil(in.InstructorLike, strings.ToLower)

	seen := make(map[string]struct{}, len(in.Keywords))
	for _, k := range in.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			seen[k] = struct{}{}
		}
	}
	in.Keywords = sortedKeys(seen)
}

// SubjectValue returns the subject or "" when unset.
func (in Intent) SubjectValue() string { return deref(in.Subject) }

// ClassNumValue returns the course number or "" when unset.
func (in Intent) ClassNumValue() string { return deref(in.ClassNum) }

// InstructorValue returns the instructor fragment or "" when unset.
func (in Intent) InstructorValue() string { return deref(in.InstructorLike) }

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func trimmedOrNil(s *string, fold func(string) string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	if fold != nil {
		v = fold(v)
	}
	return &v
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
