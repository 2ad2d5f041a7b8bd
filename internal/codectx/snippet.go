package codectx

import (
	"fmt"
	"strings"
)

const (
	snippetRadius   = 3
	snippetFallback = 200
)

// ExtractSnippet returns the lines around the first case-insensitive
// occurrence of query in content, numbered from 1 with the matching line
// marked. Without a match it returns the head of the content.
func ExtractSnippet(content, query string) string {
	lines := strings.Split(content, "\n")
	needle := strings.ToLower(query)
	for i, line := range lines {
		if needle == "" || !strings.Contains(strings.ToLower(line), needle) {
			continue
		}
		start := max(0, i-snippetRadius)
		end := min(len(lines), i+snippetRadius+1)
		var b strings.Builder
		for j := start; j < end; j++ {
			prefix := "    "
			if j == i {
				prefix = ">>> "
			}
			if j > start {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%s%4d: %s", prefix, j+1, lines[j])
		}
		return b.String()
	}
	if len(content) > snippetFallback {
		return content[:snippetFallback] + "..."
	}
	return content
}

// sliceLines returns lines [start-1:end] of content with Python-style
// clamping. A zero start or end leaves that side open.
func sliceLines(lines []string, start, end int) []string {
	lo := 0
	if start > 0 {
		lo = start - 1
	}
	hi := len(lines)
	if end > 0 && end < hi {
		hi = end
	}
	if lo > len(lines) {
		lo = len(lines)
	}
	if lo > hi {
		return nil
	}
	return lines[lo:hi]
}
