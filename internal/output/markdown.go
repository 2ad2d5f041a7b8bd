package output

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dshills/neura/internal/orchestrator"
	"github.com/dshills/neura/internal/review"
)

// MarkdownWriter outputs the review summary followed by collapsible
// per-file finding details.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *orchestrator.Report) error {
	ew := &errWriter{w: w}
	res := report.Result

	ew.printf("%s\n\n", res.Summary)

	ew.printf("| Severity | Count |\n")
	ew.printf("|----------|-------|\n")
	for _, sev := range review.Severities {
		ew.printf("| %s | %d |\n", sev.Label(), res.Counts[sev])
	}
	ew.printf("| **Total** | **%d** |\n\n", res.Stats.TotalFindings)

	for _, o := range reviewedFiles(report.Outcomes) {
		if len(o.Findings) == 0 {
			continue
		}
		ew.printf("<details>\n<summary><code>%s</code> (%d)</summary>\n\n", o.Path, len(o.Findings))
		for _, f := range o.Findings {
			ew.printf("### %s %s\n\n", mdSeverityIcon(f.Severity), f.Title)
			ew.printf("**`%s`** | %s | %s\n\n", findingLocation(f), f.Severity.Label(), f.Category)
			ew.printf("%s\n\n", f.Description)

			if f.Suggestion != "" {
				ew.printf("**Suggestion:**\n\n")
				if looksLikeCode(f.Suggestion) {
					ew.printf("```%s\n%s\n```\n\n", inferLang(f.Path), f.Suggestion)
				} else {
					ew.printf("> %s\n\n", strings.ReplaceAll(f.Suggestion, "\n", "\n> "))
				}
			}
			ew.printf("---\n\n")
		}
		ew.printf("</details>\n\n")
	}

	if len(report.Skipped) > 0 {
		ew.printf("<details>\n<summary>Skipped files (%d)</summary>\n\n", len(report.Skipped))
		for _, s := range report.Skipped {
			ew.printf("- `%s`: %s\n", s.Path, s.Reason)
		}
		ew.printf("\n</details>\n\n")
	}

	ew.printf("*Run `%s` completed in %dms*\n", report.RunID, report.Timing.Duration.Milliseconds())
	return ew.err
}

func findingLocation(f review.Finding) string {
	if f.StartLine > 0 && f.StartLine < f.Line {
		return fmt.Sprintf("%s:%d-%d", f.Path, f.StartLine, f.Line)
	}
	return fmt.Sprintf("%s:%d", f.Path, f.Line)
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return ":red_circle:"
	case review.SeverityHigh:
		return ":orange_circle:"
	case review.SeverityMedium:
		return ":yellow_circle:"
	case review.SeverityLow:
		return ":large_blue_circle:"
	default:
		return ":information_source:"
	}
}

func looksLikeCode(s string) bool {
	codeIndicators := []string{
		"func ", "if ", "for ", "return ", "var ", "const ",
		"def ", "class ", "import ", "from ",
		"{", "}", "=>", "->", ":=", "==",
		"()", "[];",
	}
	for _, indicator := range codeIndicators {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}

var langByExt = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".mjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "tsx",
	".jsx":  "jsx",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".cpp":  "cpp",
	".c":    "c",
	".cs":   "csharp",
	".php":  "php",
	".sh":   "bash",
	".tf":   "hcl",
}

func inferLang(p string) string {
	return langByExt[strings.ToLower(path.Ext(p))]
}
