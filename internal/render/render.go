// Package render prints query responses as terminal tables. Output is
// styled with lipgloss when the writer is a terminal and plain otherwise.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/garyellow/courseai-go/internal/intent"
	"github.com/garyellow/courseai-go/internal/query"
	"github.com/garyellow/courseai-go/internal/warehouse"
)

// Section headers.
const (
	HeaderEasy    = "Easier/lenient picks (higher A%, lower D/F/W):"
	HeaderHard    = "Strict/Harder picks (higher D/F/W, lower A%):"
	HeaderDetails = "Semester-by-semester (most recent first):"
)

var (
	rankColumns    = []string{"Course", "Instructor", "Sem", "A%", "DFW%", "Students"}
	detailsColumns = []string{"Semester", "Course", "Instructor", "A%", "DFW%", "Students"}
)

// defaultCourseWidth caps the Course column in display cells.
const defaultCourseWidth = 48

// Renderer writes responses to one writer.
type Renderer struct {
	w           io.Writer
	styled      bool
	courseWidth int

	header lipgloss.Style
	muted  lipgloss.Style
	warn   lipgloss.Style
	title  lipgloss.Style
}

// New returns a renderer for w. Styling is enabled only when w is a terminal.
func New(w io.Writer) *Renderer {
	styled := false
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		styled = true
	}
	return newRenderer(w, styled)
}

// NewPlain returns a renderer that never emits escape sequences.
func NewPlain(w io.Writer) *Renderer {
	return newRenderer(w, false)
}

func newRenderer(w io.Writer, styled bool) *Renderer {
	lr := lipgloss.NewRenderer(w)
	return &Renderer{
		w:           w,
		styled:      styled,
		courseWidth: defaultCourseWidth,
		header:      lr.NewStyle().Bold(true),
		muted:       lr.NewStyle().Faint(true),
		warn:        lr.NewStyle().Foreground(lipgloss.Color("11")),
		title:       lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
	}
}

// Styled reports whether escape sequences are emitted.
func (r *Renderer) Styled() bool { return r.styled }

func (r *Renderer) paint(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

// Title prints a bold banner line.
func (r *Renderer) Title(text string) {
	fmt.Fprintln(r.w, r.paint(r.title, text))
}

// Note prints a dim informational line.
func (r *Renderer) Note(text string) {
	fmt.Fprintln(r.w, r.paint(r.muted, text))
}

// Warn prints a highlighted warning line.
func (r *Renderer) Warn(text string) {
	fmt.Fprintln(r.w, r.paint(r.warn, text))
}

// Response prints a full answer: parser notice, table or message, rationale.
func (r *Renderer) Response(resp *query.Response) {
	if resp.FallbackReason != "" {
		r.Note("(answered by the rule parser: " + strings.ReplaceAll(resp.FallbackReason, "_", " ") + ")")
	}

	if resp.Empty() {
		if resp.Message != "" {
			r.Warn(resp.Message)
		}
		if resp.Explanation != "" {
			r.Note(resp.Explanation)
		}
		return
	}

	switch resp.Mode {
	case query.ModeDetails:
		fmt.Fprintln(r.w, HeaderDetails)
		r.table(detailsColumns, r.detailRows(resp.Details))
	default:
		if resp.Intent.Polarity == intent.PolarityHard {
			fmt.Fprintln(r.w, HeaderHard)
		} else {
			fmt.Fprintln(r.w, HeaderEasy)
		}
		r.table(rankColumns, r.rankRows(resp.Ranked))
	}

	if resp.Explanation != "" {
		r.Note("Why these? " + resp.Explanation)
	}
}

// Intent prints in as indented JSON.
func (r *Renderer) Intent(in intent.Intent) error {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("encode intent: %w", err)
	}
	_, err = fmt.Fprintln(r.w, string(data))
	return err
}

func (r *Renderer) rankRows(rows []warehouse.RankedResult) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, []string{
			r.course(row.Subject, row.ClassNum, row.ClassTitle),
			row.Instructor,
			row.Semester,
			rate(row.ARate),
			rate(row.DFWRate),
			strconv.FormatInt(row.TotalStudents, 10),
		})
	}
	return out
}

func (r *Renderer) detailRows(rows []warehouse.DetailRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, []string{
			row.Semester,
			r.course(row.Subject, row.ClassNum, row.ClassTitle),
			row.Instructor,
			rate(row.ARate),
			rate(row.DFWRate),
			strconv.FormatInt(row.TotalStudents, 10),
		})
	}
	return out
}

func (r *Renderer) course(subject, classNum, title string) string {
	label := subject + " " + classNum
	if title != "" {
		label += " - " + title
	}
	return runewidth.Truncate(label, r.courseWidth, "…")
}

func rate(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// table writes a header row, a rule and the body, padding by display width
// so wide characters stay aligned.
func (r *Renderer) table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	var sb strings.Builder
	sep := r.paint(r.muted, " | ")

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = r.paint(r.header, padRight(h, widths[i]))
	}
	sb.WriteString(strings.TrimRight(strings.Join(cells, sep), " "))
	sb.WriteString("\n")

	total := 3 * (len(widths) - 1)
	for _, w := range widths {
		total += w
	}
	sb.WriteString(r.paint(r.muted, strings.Repeat("-", total)))
	sb.WriteString("\n")

	for _, row := range rows {
		for i := range cells {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = padRight(cell, widths[i])
		}
		sb.WriteString(strings.TrimRight(strings.Join(cells, sep), " "))
		sb.WriteString("\n")
	}

	_, _ = io.WriteString(r.w, sb.String())
}

// padRight pads s with spaces so its display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
