package review

import "strings"

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists every severity, most severe first.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// SeverityRank returns the priority of a severity for sorting (lower = more
// severe). Unknown severities sort last.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	case SeverityInfo:
		return 4
	default:
		return 5
	}
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return SeverityRank(s) < 5
}

// Label returns the capitalized severity name.
func (s Severity) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	t := Severity(threshold)
	if !t.Valid() || !s.Valid() {
		return false
	}
	return SeverityRank(s) <= SeverityRank(t)
}

// Category represents the type of finding.
type Category string

const (
	CategoryBug           Category = "bug"
	CategoryPerformance   Category = "performance"
	CategorySecurity      Category = "security"
	CategoryMemory        Category = "memory"
	CategoryErrorHandling Category = "error_handling"
)

// Categories lists every category.
var Categories = []Category{CategoryBug, CategoryPerformance, CategorySecurity, CategoryMemory, CategoryErrorHandling}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Side is the diff side a comment attaches to.
type Side string

const (
	SideLeft  Side = "LEFT"  // old file
	SideRight Side = "RIGHT" // new file
)

// Finding is a single issue reported against a file.
type Finding struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`
	Path        string   `json:"path"`
	Line        int      `json:"line"`
	StartLine   int      `json:"startLine,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
	// Side is the side declared by the analysis step, if any. It wins over
	// the side derived during placement.
	Side    Side  `json:"side,omitempty"`
	Targets []int `json:"targets,omitempty"`
}

// Comment is a placed, rendered finding ready for publishing.
type Comment struct {
	Body      string   `json:"body"`
	Path      string   `json:"path"`
	Line      int      `json:"line"`
	StartLine int      `json:"startLine,omitempty"`
	Side      Side     `json:"side"`
	StartSide Side     `json:"startSide,omitempty"`
	Severity  Severity `json:"severity"`
}

// ContextRecord logs one context-gathering tool call.
type ContextRecord struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args"`
	Result map[string]any `json:"result"`
}

// Outcome is the result of analyzing one file.
type Outcome struct {
	Path       string          `json:"path"`
	Summary    string          `json:"summary"`
	Findings   []Finding       `json:"findings"`
	Comments   []Comment       `json:"comments"`
	Confidence float64         `json:"confidence"`
	Context    []ContextRecord `json:"context,omitempty"`
	// Err is set when the analysis itself failed; the outcome then carries
	// no findings.
	Err error `json:"-"`
}
