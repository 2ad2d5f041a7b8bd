package review

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/kaptinlin/jsonrepair"
)

// AnalysisToolName is the tool the model calls to submit its findings.
const AnalysisToolName = "create_review_analysis"

// IssueRecord is one issue as reported by the model.
type IssueRecord struct {
	Title       string  `json:"title" jsonschema:"required,description=Brief title describing the issue"`
	Description string  `json:"description" jsonschema:"required,description=Detailed description of the issue and why it's problematic"`
	Severity    string  `json:"severity" jsonschema:"required,enum=critical,enum=high,enum=medium,enum=low,enum=info,description=Severity level of the issue"`
	ChangeType  string  `json:"change_type" jsonschema:"required,enum=bug,enum=performance,enum=security,enum=memory,enum=error_handling,description=Type of issue identified"`
	TargetLines []int   `json:"target_lines" jsonschema:"required,description=Line numbers from the diff that this issue applies to"`
	Suggestion  *string `json:"suggestion" jsonschema:"description=Suggested fix or improvement (code only and no explanations)"`
	Side        string  `json:"side,omitempty" jsonschema:"enum=LEFT,enum=RIGHT,description=Which side of the diff this issue applies to. LEFT for deleted/old code and RIGHT for added/new code"`
}

// HunkAnalysis is the payload of a per-hunk analysis call.
type HunkAnalysis struct {
	Issues []IssueRecord `json:"issues" jsonschema:"required,description=List of specific issues found in the code changes"`
}

// FileAnalysis is the payload that ends an agentic review.
type FileAnalysis struct {
	Issues            []IssueRecord `json:"issues" jsonschema:"required,description=List of specific issues found in the code changes"`
	OverallAssessment string        `json:"overall_assessment" jsonschema:"required,description=Overall assessment of the code changes including context-aware insights"`
	ContextSummary    string        `json:"context_summary" jsonschema:"required,description=Summary of what additional context was gathered and how it influenced the review"`
}

// DecodeArguments unmarshals tool call arguments into v, repairing
// malformed JSON once before giving up.
func DecodeArguments(data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err == nil {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(data)
	if err != nil {
		return fmt.Errorf("repairing tool arguments: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("decoding tool arguments: %w", err)
	}
	return nil
}

// FindingsFromRecords converts model issue records into findings for path.
// Records without target lines or with an unknown severity or category are
// skipped.
func FindingsFromRecords(path string, records []IssueRecord) []Finding {
	findings := make([]Finding, 0, len(records))
	for _, r := range records {
		f, err := findingFromRecord(path, r)
		if err != nil {
			slog.Warn("skipping issue", "file", path, "title", r.Title, "reason", err)
			continue
		}
		findings = append(findings, f)
	}
	return findings
}

func findingFromRecord(path string, r IssueRecord) (Finding, error) {
	if len(r.TargetLines) == 0 {
		return Finding{}, fmt.Errorf("no target lines")
	}
	sev := Severity(r.Severity)
	if !sev.Valid() {
		return Finding{}, fmt.Errorf("invalid severity %q", r.Severity)
	}
	cat := Category(r.ChangeType)
	if !cat.Valid() {
		return Finding{}, fmt.Errorf("invalid change type %q", r.ChangeType)
	}
	side := Side(r.Side)
	if side != "" && side != SideLeft && side != SideRight {
		return Finding{}, fmt.Errorf("invalid side %q", r.Side)
	}

	first, last := slices.Min(r.TargetLines), slices.Max(r.TargetLines)
	f := Finding{
		Title:       r.Title,
		Description: r.Description,
		Severity:    sev,
		Category:    cat,
		Path:        path,
		Line:        last,
		Side:        side,
		Targets:     slices.Clone(r.TargetLines),
	}
	if first != last {
		f.StartLine = first
	}
	if r.Suggestion != nil {
		f.Suggestion = *r.Suggestion
	}
	return f, nil
}
