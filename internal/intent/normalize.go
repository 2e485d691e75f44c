package intent

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ExtractObject locates the span between the first '{' and the last '}'
// of raw model output and decodes it. Missing braces or invalid JSON yield
// an empty payload rather than an error.
func ExtractObject(raw string) map[string]any {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return map[string]any{}
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil || payload == nil {
		return map[string]any{}
	}
	return payload
}

// Normalize coerces an untrusted payload into a canonical intent. Each field
// falls back independently, so a partially malformed payload still yields a
// usable intent. originalText drives the polarity fallback.
func Normalize(payload map[string]any, originalText string) Intent {
	in := Default()
	in.Polarity = normalizePolarity(payload["polarity"], originalText)

	if s, ok := payload["subject"].(string); ok && strings.TrimSpace(s) != "" {
		in.Subject = Ptr(strings.ToUpper(strings.TrimSpace(s)))
	}

	switch v := payload["class_num"].(type) {
	case float64:
		if n, ok := wholeNumber(v); ok {
			in.ClassNum = Ptr(strconv.FormatInt(n, 10))
		}
	case string:
		if s := strings.TrimSpace(v); s != "" {
			in.ClassNum = &s
		}
	}

	in.Keywords = normalizeKeywords(payload["keywords"])

	if v, ok := payload["level"].(float64); ok {
		if n, ok := wholeNumber(v); ok {
			in.Level = Ptr(int(n))
		}
	}

	if s, ok := payload["instructor_like"].(string); ok && strings.TrimSpace(s) != "" {
		in.InstructorLike = Ptr(strings.ToLower(strings.TrimSpace(s)))
	}

	in.Recent = truthy(payload["recent"])
	in.Explain = truthy(payload["explain"])
	in.Details = truthy(payload["details"])
	return in
}

// maxModelNumber bounds numeric fields taken from a model payload. Anything
// larger is treated as absent.
const maxModelNumber = 1e9

// wholeNumber truncates v toward zero, rejecting values outside
// ±maxModelNumber and non-finite values.
func wholeNumber(v float64) (int64, bool) {
	if math.IsNaN(v) || math.Abs(v) > maxModelNumber {
		return 0, false
	}
	return int64(math.Trunc(v)), true
}

func normalizePolarity(v any, originalText string) Polarity {
	if s, ok := v.(string); ok {
		if p := Polarity(strings.ToLower(s)); p.Valid() {
			return p
		}
	}
	lowered := strings.ToLower(originalText)
	if strings.Contains(lowered, "hard") || strings.Contains(lowered, "strict") {
		return PolarityHard
	}
	return PolarityEasy
}

func normalizeKeywords(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	found := make(map[string]struct{}, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if _, known := modelTagSet[s]; known {
			found[s] = struct{}{}
		}
	}
	return sortedKeys(found)
}

// truthy mirrors the usual dynamic-language notion of truthiness for
// decoded JSON values.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
