package query

import (
	"strconv"
	"strings"

	"github.com/garyellow/courseai-go/internal/intent"
)

// Explain describes why the ranked rows came back in their order. When
// nothing matched it only reports the filters.
func Explain(in intent.Intent, hasRows bool) string {
	filters := DescribeFilters(in)
	if !hasRows {
		return "Filters used: " + filters
	}
	order := "A% desc, DFW% asc"
	if in.Polarity == intent.PolarityHard {
		order = "DFW% desc, A% asc"
	}
	return "Sorted by " + order + ", then enrollment and recency. Filters: " + filters
}

// DescribeFilters renders the filtering fields of in, or "none".
func DescribeFilters(in intent.Intent) string {
	var parts []string
	if v := in.SubjectValue(); v != "" {
		parts = append(parts, "subject="+v)
	}
	if v := in.ClassNumValue(); v != "" {
		parts = append(parts, "class_num="+v)
	}
	if in.Level != nil {
		parts = append(parts, "level="+strconv.Itoa(*in.Level))
	}
	if len(in.Keywords) > 0 {
		parts = append(parts, "keywords="+strings.Join(in.Keywords, ","))
	}
	if in.Recent {
		parts = append(parts, "recent")
	}
	if v := in.InstructorValue(); v != "" {
		parts = append(parts, "instructor~"+v)
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}
