package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/neura/internal/orchestrator"
	"github.com/dshills/neura/internal/review"
)

// TextWriter outputs a human-readable text report. Colors are used only
// when the destination is a terminal.
type TextWriter struct{}

type textStyles struct {
	header   lipgloss.Style
	faint    lipgloss.Style
	severity map[review.Severity]lipgloss.Style
}

func newTextStyles(w io.Writer) textStyles {
	r := lipgloss.NewRenderer(w)
	return textStyles{
		header: r.NewStyle().Bold(true),
		faint:  r.NewStyle().Faint(true),
		severity: map[review.Severity]lipgloss.Style{
			review.SeverityCritical: r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
			review.SeverityHigh:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
			review.SeverityMedium:   r.NewStyle().Foreground(lipgloss.Color("220")),
			review.SeverityLow:      r.NewStyle().Foreground(lipgloss.Color("39")),
			review.SeverityInfo:     r.NewStyle().Foreground(lipgloss.Color("245")),
		},
	}
}

func (s textStyles) label(sev review.Severity) string {
	text := "[" + strings.ToUpper(string(sev)) + "]"
	if st, ok := s.severity[sev]; ok {
		return st.Render(text)
	}
	return text
}

func (t *TextWriter) Write(w io.Writer, report *orchestrator.Report) error {
	ew := &errWriter{w: w}
	st := newTextStyles(w)
	rule := st.faint.Render(strings.Repeat("─", 60))

	title := "NeuraReview " + report.Change.String()
	if report.Title != "" {
		title += "  " + report.Title
	}
	ew.println(st.header.Render(title))
	ew.printf("Run: %s\n", report.RunID)
	ew.println(rule)

	res := report.Result
	ew.printf("Files: %d reviewed, %d with issues, %d skipped, %d failed\n",
		res.Stats.TotalFiles, res.Stats.FilesWithIssues, len(report.Skipped), len(report.Failed))
	ew.printf("Findings: %d total", res.Stats.TotalFindings)
	if res.Stats.TotalFindings > 0 {
		var parts []string
		for _, sev := range review.Severities {
			if n := res.Counts[sev]; n > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", n, sev))
			}
		}
		ew.printf(" (%s)", strings.Join(parts, ", "))
	}
	ew.printf("\nComments: %d\n", res.Stats.TotalComments)
	ew.println(rule)

	if len(res.Comments) == 0 {
		ew.println("\nNo issues found. Looks good!")
	}
	for _, c := range res.Comments {
		ew.printf("\n%s %s (%s)\n", st.label(c.Severity), location(c), c.Side)
		for _, line := range strings.Split(strings.TrimRight(c.Body, "\n"), "\n") {
			ew.printf("    %s\n", line)
		}
	}

	if files := reviewedFiles(report.Outcomes); len(files) > 0 {
		ew.printf("\n%s\n", st.header.Render("Files"))
		for _, o := range files {
			ew.printf("  %s  confidence %.0f%%, %d findings\n", o.Path, o.Confidence*100, len(o.Findings))
			for _, line := range wrapText(o.Summary, 70) {
				ew.printf("    %s\n", line)
			}
		}
	}

	if len(report.Skipped) > 0 {
		ew.printf("\n%s\n", st.header.Render("Skipped"))
		for _, s := range report.Skipped {
			ew.printf("  %s: %s\n", s.Path, s.Reason)
		}
	}
	if len(report.Failed) > 0 {
		ew.printf("\n%s\n", st.header.Render("Failed"))
		for _, f := range report.Failed {
			ew.printf("  %s: %s\n", f.Path, f.Error)
		}
	}

	ew.printf("\n%s\n", rule)
	status := "not published (dry run)"
	if report.Published {
		status = "published"
	} else if !report.DryRun {
		status = "not published"
	}
	ew.printf("Completed in %s, review %s\n", report.Timing.Duration.Round(time.Millisecond), status)

	return ew.err
}

func reviewedFiles(outcomes []review.Outcome) []review.Outcome {
	var out []review.Outcome
	for _, o := range outcomes {
		if o.Err == nil {
			out = append(out, o)
		}
	}
	return out
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
