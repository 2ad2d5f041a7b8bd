package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/neura/internal/orchestrator"
	"github.com/dshills/neura/internal/review"
)

// Version is reported as the SARIF tool version. The CLI sets it at
// startup.
var Version = "dev"

// SARIFWriter outputs the review comments in SARIF v2.1.0 format.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *orchestrator.Report) error {
	data, err := json.MarshalIndent(buildSARIF(report), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool       `json:"tool"`
	AutomationDetails sarifAutomation `json:"automationDetails"`
	Results           []sarifResult   `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifAutomation struct {
	ID string `json:"id"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

func buildSARIF(report *orchestrator.Report) sarifLog {
	results := []sarifResult{}
	rules := []sarifRule{}
	seen := make(map[string]bool)

	for _, c := range report.Result.Comments {
		id := ruleID(c.Severity)
		if !seen[id] {
			seen[id] = true
			rules = append(rules, sarifRule{
				ID:               id,
				Name:             c.Severity.Label(),
				ShortDescription: sarifMessage{Text: c.Severity.Label() + " review comment"},
				DefaultConfig:    sarifDefaultConfig{Level: severityToLevel(c.Severity)},
			})
		}

		start := c.Line
		if c.StartLine > 0 && c.StartLine < c.Line {
			start = c.StartLine
		}
		results = append(results, sarifResult{
			RuleID:  id,
			Level:   severityToLevel(c.Severity),
			Message: sarifMessage{Text: c.Body},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: c.Path},
					Region:           sarifRegion{StartLine: start, EndLine: c.Line},
				},
			}},
		})
	}

	run := sarifRun{
		Tool: sarifTool{
			Driver: sarifDriver{
				Name:           "neura",
				Version:        Version,
				InformationURI: "https://github.com/dshills/neura",
				Rules:          rules,
			},
		},
		AutomationDetails: sarifAutomation{ID: "neura/" + report.RunID},
		Results:           results,
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs:    []sarifRun{run},
	}
}

// severityToLevel maps a review severity to a SARIF level.
func severityToLevel(s review.Severity) string {
	switch s {
	case review.SeverityCritical, review.SeverityHigh:
		return "error"
	case review.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

func ruleID(s review.Severity) string {
	return "neura/" + string(s)
}
