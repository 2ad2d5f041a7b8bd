package review

import (
	"fmt"

	"github.com/dshills/neura/internal/diff"
)

var badgeColors = map[Severity]string{
	SeverityCritical: "red",
	SeverityHigh:     "orange",
	SeverityMedium:   "yellow",
	SeverityLow:      "blue",
	SeverityInfo:     "informational",
}

// Badge returns a shields.io markdown badge for a severity.
func Badge(s Severity) string {
	color, ok := badgeColors[s]
	if !ok {
		color = "lightgrey"
	}
	label := s.Label()
	return fmt.Sprintf("![Severity: %s](https://img.shields.io/badge/Severity-%s-%s)", label, label, color)
}

// CommentBody renders a finding as markdown. The suggestion, if any, is
// reindented to indent and emitted as a GitHub suggestion block.
func CommentBody(f Finding, indent string) string {
	body := fmt.Sprintf("%s\n\n**%s**\n\n%s", Badge(f.Severity), f.Title, f.Description)
	if f.Suggestion != "" {
		if s := FormatSuggestion(f.Suggestion, indent); s != "" {
			body += "\n\n```suggestion\n" + s + "\n```"
		}
	}
	return body
}

// BuildComment places f on h and renders it. It returns false when none of
// the finding's target lines exist in the hunk.
func BuildComment(f Finding, h diff.Hunk) (Comment, bool) {
	targets := f.Targets
	if len(targets) == 0 {
		targets = []int{f.Line}
		if f.StartLine != 0 {
			targets = append(targets, f.StartLine)
		}
	}
	p, ok := Resolve(targets, h)
	if !ok {
		return Comment{}, false
	}
	if f.Side != "" {
		p.Side = f.Side
		if p.IsRange() {
			p.StartSide = f.Side
		}
	}
	return Comment{
		Body:      CommentBody(f, p.Indent),
		Path:      f.Path,
		Line:      p.Line,
		StartLine: p.StartLine,
		Side:      p.Side,
		StartSide: p.StartSide,
		Severity:  f.Severity,
	}, true
}

// BuildComments places every finding on the hunk of fc that contains its
// targets. It returns the placed findings with their comments, index
// aligned, and the findings that could not be placed.
func BuildComments(findings []Finding, fc diff.FileChange) (placed []Finding, comments []Comment, dropped []Finding) {
	for _, f := range findings {
		targets := f.Targets
		if len(targets) == 0 {
			targets = []int{f.Line}
		}
		h, ok := fc.HunkFor(targets)
		if !ok {
			dropped = append(dropped, f)
			continue
		}
		c, ok := BuildComment(f, h)
		if !ok {
			dropped = append(dropped, f)
			continue
		}
		placed = append(placed, f)
		comments = append(comments, c)
	}
	return placed, comments, dropped
}
