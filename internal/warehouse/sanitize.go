package warehouse

import "strings"

var likeEscaper = strings.NewReplacer(
	`\`, `\\`, // escape character first
	"%", `\%`,
	"_", `\_`,
)

// containsPattern returns a LIKE pattern matching any value that contains
// term literally. Used with ESCAPE '\'.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
