package diff

import (
	"fmt"
	"strings"
)

// Render returns the hunk as unified diff text, header first.
func (h Hunk) Render() string {
	var b strings.Builder
	b.WriteString(h.Header)
	for _, l := range h.Lines {
		b.WriteByte('\n')
		switch l.Kind {
		case Added:
			b.WriteByte('+')
		case Removed:
			b.WriteByte('-')
		default:
			b.WriteByte(' ')
		}
		b.WriteString(l.Text)
	}
	return b.String()
}

// Annotated renders every line prefixed with its kind marker and the
// line number a reviewer should refer to: the new number for added and
// context lines, the old number for removed lines.
func (h Hunk) Annotated() string {
	lines := make([]string, 0, len(h.Lines))
	for _, l := range h.Lines {
		switch l.Kind {
		case Added:
			lines = append(lines, fmt.Sprintf("+%4d: %s", l.NewNumber, l.Text))
		case Removed:
			lines = append(lines, fmt.Sprintf("-%4d: %s", l.OldNumber, l.Text))
		default:
			lines = append(lines, fmt.Sprintf(" %4d: %s", l.NewNumber, l.Text))
		}
	}
	return strings.Join(lines, "\n")
}

// Annotated renders all hunks of the file with numbered headings.
func (fc FileChange) Annotated() string {
	parts := make([]string, 0, len(fc.Hunks))
	for i, h := range fc.Hunks {
		parts = append(parts, fmt.Sprintf("Hunk %d:\n%s\n%s", i+1, h.Header, h.Annotated()))
	}
	return strings.Join(parts, "\n")
}
