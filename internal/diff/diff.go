package diff

import "fmt"

// LineKind classifies a line inside a hunk.
type LineKind int

const (
	Context LineKind = iota
	Added
	Removed
)

func (k LineKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "context"
	}
}

// Line is one line of a hunk body. A zero line number means the line does
// not exist on that side.
type Line struct {
	Kind      LineKind `json:"kind"`
	Text      string   `json:"text"`
	OldNumber int      `json:"oldNumber,omitempty"`
	NewNumber int      `json:"newNumber,omitempty"`
}

// Hunk is a contiguous block of changes.
type Hunk struct {
	OldStart int    `json:"oldStart"`
	OldCount int    `json:"oldCount"`
	NewStart int    `json:"newStart"`
	NewCount int    `json:"newCount"`
	Header   string `json:"header"`
	Lines    []Line `json:"lines"`
}

// Has reports whether l carries n as a line number on a side where the line
// exists: new for added and context lines, old for removed and context
// lines. Non-positive numbers never match.
func (l Line) Has(n int) bool {
	if n <= 0 {
		return false
	}
	return (l.Kind != Removed && l.NewNumber == n) || (l.Kind != Added && l.OldNumber == n)
}

// Contains reports whether any line of the hunk carries n as its old or
// new line number.
func (h Hunk) Contains(n int) bool {
	for _, l := range h.Lines {
		if l.Has(n) {
			return true
		}
	}
	return false
}

// Status is the change status of a file.
type Status string

const (
	StatusAdded    Status = "added"
	StatusModified Status = "modified"
	StatusRemoved  Status = "removed"
	StatusRenamed  Status = "renamed"
)

// FileChange is one file of a change set.
type FileChange struct {
	Path         string `json:"path"`
	PreviousPath string `json:"previousPath,omitempty"`
	Status       Status `json:"status"`
	Hunks        []Hunk `json:"hunks"`
	RawPatch     string `json:"-"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
}

// Changes returns additions plus deletions.
func (fc FileChange) Changes() int {
	return fc.Additions + fc.Deletions
}

// HunkFor returns the first hunk containing any of the given line numbers.
func (fc FileChange) HunkFor(lines []int) (Hunk, bool) {
	for _, h := range fc.Hunks {
		for _, n := range lines {
			if h.Contains(n) {
				return h, true
			}
		}
	}
	return Hunk{}, false
}

func headerFor(oldStart, oldCount, newStart, newCount int, section string) string {
	h := fmt.Sprintf("@@ -%d,%d +%d,%d @@", oldStart, oldCount, newStart, newCount)
	if section != "" {
		h += " " + section
	}
	return h
}
