package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Diagnostic is one reported violation, accumulated by a Reporter
// before a driver decides whether to abort.
type Diagnostic struct {
	Err      *Error
	Source   string // optional: full source text, for caret rendering
	Filename string
}

// Reporter accumulates diagnostics for a single compilation unit and
// renders them with caret-style source pointers, the same idiom the
// teacher's CLI used for parse errors.
type Reporter struct {
	diags []Diagnostic
}

func NewReporter() *Reporter { return &Reporter{} }

func (r *Reporter) Report(err *Error, filename, source string) {
	r.diags = append(r.diags, Diagnostic{Err: err, Filename: filename, Source: source})
}

func (r *Reporter) HasErrors() bool { return len(r.diags) > 0 }

func (r *Reporter) Diagnostics() []Diagnostic { return r.diags }

// Render formats every accumulated diagnostic for terminal output.
func (r *Reporter) Render() string {
	var b strings.Builder
	for _, d := range r.diags {
		b.WriteString(render(d))
	}
	return b.String()
}

func render(d Diagnostic) string {
	var b strings.Builder
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	errColor := color.New(color.FgRed, color.Bold).SprintFunc()

	b.WriteString(fmt.Sprintf("%s[%s]: %s\n", errColor("error"), d.Err.Code, d.Err.Message))
	if d.Err.Subject != "" {
		b.WriteString(fmt.Sprintf("  %s %s\n", dim("in"), d.Err.Subject))
	}

	if !d.Err.Position.IsValid() {
		b.WriteString("\n")
		return b.String()
	}

	filename := d.Filename
	if filename == "" {
		filename = d.Err.Position.Filename
	}
	lines := strings.Split(d.Source, "\n")
	line, col := d.Err.Position.Line, d.Err.Position.Column
	width := len(fmt.Sprintf("%d", line))
	if width < 3 {
		width = 3
	}
	indent := strings.Repeat(" ", width)

	b.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n", indent, dim("-->"), filename, line, col))
	b.WriteString(fmt.Sprintf("%s %s\n", indent, dim("|")))
	if line > 0 && line <= len(lines) {
		b.WriteString(fmt.Sprintf("%s %s %s\n", bold(fmt.Sprintf("%*d", width, line)), dim("|"), lines[line-1]))
		marker := strings.Repeat(" ", max0(col-1)) + errColor("^")
		b.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("|"), marker))
	}
	b.WriteString("\n")
	return b.String()
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
