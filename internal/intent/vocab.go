package intent

import "strings"

// Subjects lists the subject codes the rule parser recognizes.
var Subjects = []string{"CS", "MATH", "STAT", "ECE", "BIOE", "IE", "IDS", "DA", "DS"}

// polarityWords maps trigger words to a ranking direction.
var polarityWords = map[string]Polarity{
	"easy":    PolarityEasy,
	"easier":  PolarityEasy,
	"lenient": PolarityEasy,
	"chill":   PolarityEasy,
	"good":    PolarityEasy,
	"hard":    PolarityHard,
	"strict":  PolarityHard,
	"tough":   PolarityHard,
}

// KeywordFamily groups the tokens that select one topical tag.
type KeywordFamily struct {
	Tag      string
	Synonyms []string
}

// RuleKeywordFamilies is the rule parser's keyword vocabulary.
// A token may belong to several families ("ai" selects both ml and ai).
var RuleKeywordFamilies = []KeywordFamily{
	{Tag: "ml", Synonyms: []string{"ml", "machine", "learning", "machine-learning", "deep", "dl", "ai"}},
	{Tag: "ai", Synonyms: []string{"ai", "artificial", "intelligence"}},
	{Tag: "data", Synonyms: []string{"data", "mining", "analytics"}},
	{Tag: "nlp", Synonyms: []string{"nlp", "language", "text"}},
	{Tag: "query", Synonyms: []string{"query", "retrieval", "information-retrieval", "ir", "search"}},
}

// ModelKeywordTags is the closed tag set the model-backed parser may emit.
var ModelKeywordTags = []string{"ml", "data", "nlp", "ai", "bio", "stats", "systems", "theory"}

var (
	recentTokens = newSet("recent", "latest", "new", "newer")
	detailTokens = newSet("details", "detail", "breakdown", "per-semester", "semester")
	subjectSet   = newSet(Subjects...)
	modelTagSet  = newSet(ModelKeywordTags...)
)

// instructorStopwords holds every token that carries meaning for another
// field and therefore cannot be an instructor name fragment.
var instructorStopwords = buildInstructorStopwords()

func buildInstructorStopwords() map[string]struct{} {
	s := make(map[string]struct{})
	for t := range recentTokens {
		s[t] = struct{}{}
	}
	for t := range detailTokens {
		s[t] = struct{}{}
	}
	for t := range polarityWords {
		s[t] = struct{}{}
	}
	for _, fam := range RuleKeywordFamilies {
		for _, syn := range fam.Synonyms {
			s[syn] = struct{}{}
		}
	}
	for _, subj := range Subjects {
		s[strings.ToLower(subj)] = struct{}{}
	}
	s["level"] = struct{}{}
	return s
}

// KnownKeywordTags returns every tag either parser can produce, sorted.
func KnownKeywordTags() []string {
	seen := make(map[string]struct{})
	for _, fam := range RuleKeywordFamilies {
		seen[fam.Tag] = struct{}{}
	}
	for _, tag := range ModelKeywordTags {
		seen[tag] = struct{}{}
	}
	return sortedKeys(seen)
}

func newSet(items ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}
