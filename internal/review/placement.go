package review

import (
	"sort"

	"github.com/dshills/neura/internal/diff"
)

// Placement is where a comment anchors on a hunk.
type Placement struct {
	Line      int
	StartLine int // zero for single-line placements
	Side      Side
	StartSide Side
	// Indent is the literal leading whitespace of the reference line.
	Indent string
}

// IsRange reports whether the placement spans more than one line.
func (p Placement) IsRange() bool {
	return p.StartLine != 0
}

type lineRun struct {
	start, end int
}

func (r lineRun) length() int { return r.end - r.start }

// longestRun returns the longest run of consecutive integers in nums.
// Earlier runs win ties.
func longestRun(nums []int) (lineRun, bool) {
	if len(nums) == 0 {
		return lineRun{}, false
	}
	sorted := append([]int(nil), nums...)
	sort.Ints(sorted)
	best := lineRun{sorted[0], sorted[0]}
	cur := best
	for _, n := range sorted[1:] {
		if n == cur.end+1 {
			cur.end = n
			continue
		}
		if cur.length() > best.length() {
			best = cur
		}
		cur = lineRun{n, n}
	}
	if cur.length() > best.length() {
		best = cur
	}
	return best, true
}

// matchLines returns the hunk lines matched by targets, in hunk order. Each
// target matches the first line carrying it as an old or new number.
func matchLines(targets []int, h diff.Hunk) []diff.Line {
	seen := make(map[int]bool)
	var idx []int
	for _, t := range targets {
		for i, l := range h.Lines {
			if l.Has(t) {
				if !seen[i] {
					seen[i] = true
					idx = append(idx, i)
				}
				break
			}
		}
	}
	sort.Ints(idx)
	out := make([]diff.Line, 0, len(idx))
	for _, i := range idx {
		out = append(out, h.Lines[i])
	}
	return out
}

// Resolve picks the anchor for a set of target line numbers on a hunk.
// Runs of added lines are preferred over runs of removed lines; when no run
// of at least two lines exists, a single line is used, added first. It
// returns false when no target matches the hunk.
func Resolve(targets []int, h diff.Hunk) (Placement, bool) {
	matched := matchLines(targets, h)
	if len(matched) == 0 {
		return Placement{}, false
	}

	var added, removed []diff.Line
	var addedNums, removedNums []int
	for _, l := range matched {
		switch l.Kind {
		case diff.Added:
			added = append(added, l)
			addedNums = append(addedNums, l.NewNumber)
		case diff.Removed:
			removed = append(removed, l)
			removedNums = append(removedNums, l.OldNumber)
		}
	}

	addedRun, hasAdded := longestRun(addedNums)
	removedRun, hasRemoved := longestRun(removedNums)
	removedLen := 0
	if hasRemoved {
		removedLen = removedRun.length()
	}

	switch {
	case hasAdded && addedRun.length() >= max(1, removedLen):
		ref := added[0]
		for _, l := range added {
			if l.NewNumber == addedRun.start {
				ref = l
				break
			}
		}
		return Placement{
			Line:      addedRun.end,
			StartLine: addedRun.start,
			Side:      SideRight,
			StartSide: SideRight,
			Indent:    leadingWhitespace(ref.Text),
		}, true
	case hasRemoved && removedLen >= 1:
		ref := removed[0]
		for _, l := range removed {
			if l.OldNumber == removedRun.start {
				ref = l
				break
			}
		}
		return Placement{
			Line:      removedRun.end,
			StartLine: removedRun.start,
			Side:      SideLeft,
			StartSide: SideLeft,
			Indent:    leadingWhitespace(ref.Text),
		}, true
	}

	primary := matched[0]
	switch {
	case len(added) > 0:
		primary = added[0]
	case len(removed) > 0:
		primary = removed[0]
	}
	p := Placement{Side: SideRight, Line: primary.NewNumber, Indent: leadingWhitespace(primary.Text)}
	if primary.Kind == diff.Removed {
		p.Side = SideLeft
		p.Line = primary.OldNumber
	}
	return p, true
}

func leadingWhitespace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[:i]
}
