package review

import "strings"

// CleanSuggestion removes surrounding code fences and blank lines. The
// first code line keeps its indentation so relative nesting survives.
func CleanSuggestion(s string) string {
	lines := trimBlankLines(strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n"))
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		lines = lines[1:]
		if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
			lines = lines[:n-1]
		}
		lines = trimBlankLines(lines)
	}
	return strings.TrimRight(strings.Join(lines, "\n"), " \t")
}

func trimBlankLines(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Reindent strips the common leading whitespace from the non-blank lines of
// code and prefixes each with indent. Lines that end up shallower than
// indent are dropped since they cannot replace code at that depth.
func Reindent(code, indent string) string {
	lines := strings.Split(code, "\n")
	minIndent := -1
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		if n := len(leadingWhitespace(ln)); minIndent < 0 || n < minIndent {
			minIndent = n
		}
	}
	if minIndent < 0 {
		return code
	}

	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			out = append(out, ln)
			continue
		}
		out = append(out, indent+ln[minIndent:])
	}

	normalized := strings.TrimRight(strings.Join(out, "\n"), " \t\r\n")
	filtered := make([]string, 0, len(out))
	for _, ln := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(ln) != "" && len(leadingWhitespace(ln)) < len(indent) {
			continue
		}
		filtered = append(filtered, ln)
	}
	return strings.TrimRight(strings.Join(filtered, "\n"), " \t\r\n")
}

// FormatSuggestion cleans a suggested replacement and reindents it to indent.
func FormatSuggestion(s, indent string) string {
	cleaned := CleanSuggestion(s)
	if cleaned == "" {
		return ""
	}
	return Reindent(cleaned, indent)
}
