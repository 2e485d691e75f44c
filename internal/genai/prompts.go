package genai

import (
	"encoding/json"
	"strings"

	"github.com/garyellow/courseai-go/internal/intent"
)

// SystemPrompt instructs the model to emit only a canonical intent object.
const SystemPrompt = `You are the intent parser of a course-grade assistant.

Never answer the question. Convert the user's text into one JSON intent object
and output nothing else: no prose, no markdown fences.

Every key must be present:

- polarity: "easy" or "hard".
    "easier", "chill", "lenient", "safe bet" mean "easy".
    "strict", "hard", "tough", "challenging" mean "hard".
    Use "easy" when unclear.
- subject: subject code such as "CS", "STAT" or "ECE", uppercase, or null.
- class_num: the exact course number as a string such as "580", or null.
- keywords: lowercase tags drawn only from
    ["ml", "data", "nlp", "ai", "bio", "stats", "systems", "theory"].
    machine learning, deep learning → "ml"
    data, data science, databases, big data → "data"
    nlp, language, text → "nlp"
    ai, artificial intelligence → "ai"
    bio, biomedical, medical → "bio"
    stats, statistics, probability → "stats"
    systems, operating systems, networks → "systems"
    theory, algorithms, complexity → "theory"
    Use [] when nothing fits.
- recent: true when the user asks for recent, current or last-few-years data.
- level: integer lower bound of a course band ("500-level" → 500), or null.
    An explicit course number may leave level null.
- instructor_like: short lowercase fragment of an instructor's name, or null.
- explain: true when the user asks why, asks for reasoning, or writes --explain.
- details: true when the user asks for a semester-by-semester history,
    a breakdown, or all semesters.

The object must satisfy this JSON Schema:
`

// fewShot pairs example text with the intent it should produce.
var fewShot = []struct {
	Text   string
	Intent intent.Intent
}{
	{
		Text: "easy cs 580 recent",
		Intent: intent.Intent{
			Polarity: intent.PolarityEasy, Subject: intent.Ptr("CS"), ClassNum: intent.Ptr("580"),
			Keywords: []string{}, Recent: true,
		},
	},
	{
		Text: "hard 500-level ml classes",
		Intent: intent.Intent{
			Polarity: intent.PolarityHard, Keywords: []string{"ml"}, Level: intent.Ptr(500),
		},
	},
	{
		Text: "show easy data cs courses --explain",
		Intent: intent.Intent{
			Polarity: intent.PolarityEasy, Subject: intent.Ptr("CS"), Keywords: []string{"data"}, Explain: true,
		},
	},
	{
		Text: "details for cs 580 yu",
		Intent: intent.Intent{
			Polarity: intent.PolarityEasy, Subject: intent.Ptr("CS"), ClassNum: intent.Ptr("580"),
			Keywords: []string{}, InstructorLike: intent.Ptr("yu"), Details: true,
		},
	},
}

// systemInstruction is SystemPrompt followed by the intent JSON Schema.
var systemInstruction = SystemPrompt + intent.SchemaJSON

// BuildUserPrompt embeds the few-shot examples ahead of text.
func BuildUserPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Here are examples of how to map natural language to intent JSON:\n\n")
	for i, ex := range fewShot {
		if i > 0 {
			b.WriteString("\n\n")
		}
		data, _ := json.Marshal(ex.Intent)
		b.WriteString("User: ")
		b.WriteString(ex.Text)
		b.WriteString("\nIntent JSON: ")
		b.Write(data)
	}
	b.WriteString("\n\nNow parse this new user query into an intent JSON:\n\nUser: ")
	b.WriteString(text)
	b.WriteString("\nIntent JSON:")
	return b.String()
}
