// Package stringutil provides text helpers shared by the query surfaces.
package stringutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// IsNumeric reports whether s is a non-empty run of ASCII digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// NormalizeQuery folds full-width forms to ASCII, applies NFKC, drops control
// characters and collapses whitespace runs to a single space.
func NormalizeQuery(s string) string {
	folded, _, err := transform.String(transform.Chain(width.Fold, norm.NFKC), s)
	if err != nil {
		folded = s
	}
	cleaned := strings.Map(func(r rune) rune {
		if r == utf8.RuneError {
			return -1
		}
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
	return strings.Join(strings.Fields(cleaned), " ")
}

// TruncateRunes returns s cut to at most n runes.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// RuneLen counts runes rather than bytes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
