package intent

import (
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/garyellow/courseai-go/internal/stringutil"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9\-]+`)

// RuleParser extracts an intent from free text with fixed token rules.
// It never fails and is safe for concurrent use.
type RuleParser struct{}

// NewRuleParser returns the deterministic token-rule parser.
func NewRuleParser() *RuleParser {
	return &RuleParser{}
}

// Name identifies the parser in logs and responses.
func (p *RuleParser) Name() string { return "rule" }

// Parse implements Parser. The context is unused; the error is always nil.
func (p *RuleParser) Parse(_ context.Context, text string) (Intent, error) {
	return ParseRules(text), nil
}

// ParseRules applies the rule set to text and returns a fully-defaulted intent.
func ParseRules(text string) Intent {
	tokens := Tokenize(text)
	lowered := strings.ToLower(text)

	in := Default()
	in.Polarity = extractPolarity(tokens)
	if subj, ok := extractSubject(tokens); ok {
		in.Subject = &subj
	}
	// "500-level" reaches both class_num and level; the two filters are
	// independent downstream.
	if num, ok := extractClassNum(tokens); ok {
		in.ClassNum = &num
	}
	if lvl, ok := extractLevel(tokens); ok {
		in.Level = &lvl
	}
	in.Keywords = extractKeywords(tokens)
	in.Recent = containsAny(tokens, recentTokens)
	in.Details = containsAny(tokens, detailTokens)
	in.Explain = strings.Contains(lowered, "--explain") || strings.Contains(lowered, "-explain")

	if in.Details || slices.Contains(tokens, "details") {
		if name, ok := extractInstructor(tokens); ok {
			in.InstructorLike = &name
		}
	}
	return in
}

// Tokenize lowercases text and returns its maximal runs of ASCII letters,
// digits and hyphens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func extractPolarity(tokens []string) Polarity {
	for _, t := range tokens {
		if p, ok := polarityWords[t]; ok {
			return p
		}
	}
	return PolarityEasy
}

func extractSubject(tokens []string) (string, bool) {
	for _, t := range tokens {
		up := strings.ToUpper(t)
		if _, ok := subjectSet[up]; ok {
			return up, true
		}
	}
	return "", false
}

func extractClassNum(tokens []string) (string, bool) {
	for _, t := range tokens {
		if stringutil.IsNumeric(t) {
			return t, true
		}
		if num, ok := levelPrefix(t); ok {
			return num, true
		}
	}
	return "", false
}

func extractLevel(tokens []string) (int, bool) {
	for i, t := range tokens {
		if num, ok := levelPrefix(t); ok {
			if n, err := strconv.Atoi(num); err == nil {
				return n, true
			}
		}
		if stringutil.IsNumeric(t) && i+1 < len(tokens) && tokens[i+1] == "level" {
			if n, err := strconv.Atoi(t); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// levelPrefix returns the digits before the first hyphen of a "<digits>-level" token.
func levelPrefix(t string) (string, bool) {
	if !strings.HasSuffix(t, "-level") {
		return "", false
	}
	head, _, _ := strings.Cut(t, "-")
	if !stringutil.IsNumeric(head) {
		return "", false
	}
	return head, true
}

func extractKeywords(tokens []string) []string {
	found := make(map[string]struct{})
	for _, t := range tokens {
		for _, fam := range RuleKeywordFamilies {
			if slices.Contains(fam.Synonyms, t) {
				found[fam.Tag] = struct{}{}
			}
		}
	}
	return sortedKeys(found)
}

// extractInstructor returns the last token that is neither numeric nor
// meaningful to another field.
func extractInstructor(tokens []string) (string, bool) {
	for i := len(tokens) - 1; i >= 0; i-- {
		t := tokens[i]
		if stringutil.IsNumeric(t) {
			continue
		}
		if _, stop := instructorStopwords[t]; stop {
			continue
		}
		return t, true
	}
	return "", false
}

func containsAny(tokens []string, set map[string]struct{}) bool {
	for _, t := range tokens {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}
