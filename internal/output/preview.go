package output

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/dshills/neura/internal/review"
)

const previewBodyLimit = 100

// Preview writes the comments a dry run would have posted, followed by
// the review summary.
func Preview(w io.Writer, result review.Result) error {
	ew := &errWriter{w: w}
	ew.printf("Dry run: %d comments would be posted\n", len(result.Comments))
	for i, c := range result.Comments {
		ew.printf("\nComment %d: %s (%s)\n", i+1, location(c), c.Side)
		ew.printf("  Severity: %s\n", c.Severity)
		ew.printf("  %s\n", truncate(c.Body, previewBodyLimit))
	}
	ew.printf("\nSummary:\n%s\n", result.Summary)
	return ew.err
}

// location renders path:line or path:start-line.
func location(c review.Comment) string {
	if c.StartLine > 0 && c.StartLine < c.Line {
		return fmt.Sprintf("%s:%d-%d", c.Path, c.StartLine, c.Line)
	}
	return fmt.Sprintf("%s:%d", c.Path, c.Line)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
