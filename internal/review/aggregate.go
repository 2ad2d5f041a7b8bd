package review

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

const (
	DefaultMinConfidence = 0.7
	DefaultMaxPerFile    = 10
)

// AggregateOptions controls filtering of comments across outcomes.
type AggregateOptions struct {
	MinConfidence float64
	MaxPerFile    int
}

// Stats counts what an aggregation saw and kept.
type Stats struct {
	TotalFiles      int `json:"totalFiles"`
	FilesWithIssues int `json:"filesWithIssues"`
	TotalFindings   int `json:"totalFindings"`
	TotalComments   int `json:"totalComments"`
}

// Result is the final review payload.
type Result struct {
	Summary  string         `json:"summary"`
	Comments []Comment      `json:"comments"`
	Stats    Stats          `json:"stats"`
	Counts   SeverityCounts `json:"counts"`
}

// SeverityCounts holds counts by severity level.
type SeverityCounts map[Severity]int

// Highest returns the most severe level with a non-zero count, or "".
func (c SeverityCounts) Highest() Severity {
	for _, s := range Severities {
		if c[s] > 0 {
			return s
		}
	}
	return ""
}

// Aggregate filters, deduplicates, and caps the comments of outcomes and
// composes the summary. Outcomes must be in file order; the result keeps
// that order among comments of equal severity.
func Aggregate(outcomes []Outcome, opts AggregateOptions) Result {
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = DefaultMinConfidence
	}
	if opts.MaxPerFile <= 0 {
		opts.MaxPerFile = DefaultMaxPerFile
	}

	var candidates []Comment
	for _, o := range outcomes {
		if o.Confidence < opts.MinConfidence {
			slog.Info("filtered low-confidence outcome", "file", o.Path, "confidence", o.Confidence)
			continue
		}
		candidates = append(candidates, o.Comments...)
	}

	comments := LimitPerFile(DeduplicateComments(candidates), opts.MaxPerFile)

	counts := CountSeverities(outcomes)
	stats := Stats{TotalFiles: len(outcomes), TotalComments: len(comments)}
	for _, o := range outcomes {
		if len(o.Findings) > 0 {
			stats.FilesWithIssues++
		}
		stats.TotalFindings += len(o.Findings)
	}

	return Result{
		Summary:  FormatSummary(outcomes),
		Comments: comments,
		Stats:    stats,
		Counts:   counts,
	}
}

type commentKey struct {
	path string
	line int
	body [sha256.Size]byte
}

// DeduplicateComments drops comments with the same path, line, and body as
// an earlier one.
func DeduplicateComments(comments []Comment) []Comment {
	seen := make(map[commentKey]bool)
	var result []Comment
	for _, c := range comments {
		k := commentKey{c.Path, c.Line, sha256.Sum256([]byte(c.Body))}
		if !seen[k] {
			seen[k] = true
			result = append(result, c)
		}
	}
	return result
}

// SortComments orders comments most severe first, keeping the existing
// order among equal severities.
func SortComments(comments []Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		return SeverityRank(comments[i].Severity) < SeverityRank(comments[j].Severity)
	})
}

// LimitPerFile sorts comments by severity and keeps at most limit per path.
func LimitPerFile(comments []Comment, limit int) []Comment {
	sorted := append([]Comment(nil), comments...)
	SortComments(sorted)
	perFile := make(map[string]int)
	var result []Comment
	for _, c := range sorted {
		if perFile[c.Path] >= limit {
			slog.Debug("comment limit reached", "file", c.Path)
			continue
		}
		perFile[c.Path]++
		result = append(result, c)
	}
	return result
}

// CountSeverities tallies findings across all outcomes.
func CountSeverities(outcomes []Outcome) SeverityCounts {
	counts := SeverityCounts{}
	for _, o := range outcomes {
		for _, f := range o.Findings {
			counts[f.Severity]++
		}
	}
	return counts
}

var severityLines = []struct {
	sev   Severity
	emoji string
	note  string
}{
	{SeverityCritical, "🔴", "Requires immediate attention"},
	{SeverityHigh, "🟠", "Should be addressed"},
	{SeverityMedium, "🟡", "Consider addressing"},
	{SeverityLow, "🔵", "Minor improvements"},
	{SeverityInfo, "ℹ️", "Educational notes"},
}

// FormatSummary composes the markdown review summary.
func FormatSummary(outcomes []Outcome) string {
	if len(outcomes) == 0 {
		return "No files were analyzed in this review."
	}
	counts := CountSeverities(outcomes)

	var b strings.Builder
	b.WriteString("## 🤖 AI Code Review Summary\n")
	fmt.Fprintf(&b, "*Reviewed %d files*\n\n", len(outcomes))

	if counts.Highest() != "" {
		b.WriteString("### Issues Found\n")
		for _, sl := range severityLines {
			if n := counts[sl.sev]; n > 0 {
				fmt.Fprintf(&b, "%s **%d %s** - %s\n", sl.emoji, n, sl.sev.Label(), sl.note)
			}
		}
	} else {
		b.WriteString("### ✅ No Issues Found\n")
		b.WriteString("Great job! The code changes look good.\n")
	}
	b.WriteString("\n### Files Reviewed\n")
	for _, o := range outcomes {
		if len(o.Findings) == 0 {
			fmt.Fprintf(&b, "✅ `%s` - No issues\n", o.Path)
			continue
		}
		fmt.Fprintf(&b, "%s `%s` - %d issues\n", fileIcon(o.Findings), o.Path, len(o.Findings))
	}
	b.WriteString("\n---\n*This review was generated by NeuraReview AI*")
	return b.String()
}

func fileIcon(findings []Finding) string {
	icon := "🟡"
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			return "🔴"
		case SeverityHigh:
			icon = "🟠"
		}
	}
	return icon
}
