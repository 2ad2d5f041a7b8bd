package diff

import (
	"fmt"
	"log/slog"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// Parse populates fc.Hunks from fc.RawPatch. Failures are logged and leave
// fc with the hunks that did parse.
func Parse(fc *FileChange) {
	hunks, err := ParsePatch(fc.RawPatch, fc.Path)
	if err != nil {
		slog.Warn("diff parse failed", "file", fc.Path, "error", err, "hunks_kept", len(hunks))
	}
	fc.Hunks = hunks
}

// ParsePatch parses a single-file patch. Hosting APIs often return only the
// hunk section of a file's diff, so a placeholder file header is added when
// the patch lacks one. On error the hunks parsed so far are still returned.
func ParsePatch(patch, filename string) ([]Hunk, error) {
	if strings.TrimSpace(patch) == "" {
		return nil, nil
	}
	if !strings.HasPrefix(patch, "--- ") && !strings.HasPrefix(patch, "diff --git ") {
		patch = fmt.Sprintf("--- a/%s\n+++ b/%s\n", filename, filename) + patch
	}

	fd, err := godiff.ParseFileDiff([]byte(patch))
	if err == nil {
		return convertHunks(fd.Hunks), nil
	}

	// Retry hunk by hunk so one malformed hunk does not discard the rest.
	var out []Hunk
	for _, section := range splitHunkSections(patch) {
		hs, herr := godiff.ParseHunks([]byte(section))
		out = append(out, convertHunks(hs)...)
		if herr != nil {
			slog.Debug("skipping malformed hunk", "file", filename, "error", herr)
		}
	}
	return out, fmt.Errorf("parsing patch for %s: %w", filename, err)
}

func splitHunkSections(patch string) []string {
	var (
		sections []string
		current  strings.Builder
	)
	for _, line := range strings.SplitAfter(patch, "\n") {
		if strings.HasPrefix(line, "@@") {
			if current.Len() > 0 {
				sections = append(sections, current.String())
				current.Reset()
			}
		} else if current.Len() == 0 {
			// file header or garbage before the first hunk
			continue
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

func convertHunks(in []*godiff.Hunk) []Hunk {
	out := make([]Hunk, 0, len(in))
	for _, h := range in {
		if h == nil {
			continue
		}
		out = append(out, convertHunk(h))
	}
	return out
}

func convertHunk(h *godiff.Hunk) Hunk {
	hunk := Hunk{
		OldStart: int(h.OrigStartLine),
		OldCount: int(h.OrigLines),
		NewStart: int(h.NewStartLine),
		NewCount: int(h.NewLines),
	}
	hunk.Header = headerFor(hunk.OldStart, hunk.OldCount, hunk.NewStart, hunk.NewCount, h.Section)

	oldCur, newCur := hunk.OldStart, hunk.NewStart
	body := strings.TrimSuffix(string(h.Body), "\n")
	if body == "" {
		return hunk
	}
	for _, raw := range strings.Split(body, "\n") {
		var prefix byte = ' '
		text := raw
		if raw != "" {
			prefix, text = raw[0], raw[1:]
		}
		switch prefix {
		case '+':
			hunk.Lines = append(hunk.Lines, Line{Kind: Added, Text: text, NewNumber: newCur})
			newCur++
		case '-':
			hunk.Lines = append(hunk.Lines, Line{Kind: Removed, Text: text, OldNumber: oldCur})
			oldCur++
		case '\\':
			// "\ No newline at end of file"
		default:
			hunk.Lines = append(hunk.Lines, Line{Kind: Context, Text: text, OldNumber: oldCur, NewNumber: newCur})
			oldCur++
			newCur++
		}
	}
	return hunk
}

// ParseMulti splits a multi-file unified diff, as produced by git diff,
// into file changes with parsed hunks and line counts. Binary files come
// back with no hunks.
func ParseMulti(patch string) ([]FileChange, error) {
	if strings.TrimSpace(patch) == "" {
		return nil, nil
	}
	fds, err := godiff.ParseMultiFileDiff([]byte(patch))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}
	out := make([]FileChange, 0, len(fds))
	for _, fd := range fds {
		oldPath, newPath := stripPrefix(fd.OrigName), stripPrefix(fd.NewName)
		fc := FileChange{Path: newPath, Status: StatusModified, Hunks: convertHunks(fd.Hunks)}
		switch {
		case fd.OrigName == "/dev/null":
			fc.Status = StatusAdded
		case fd.NewName == "/dev/null":
			fc.Status = StatusRemoved
			fc.Path = oldPath
		case oldPath != newPath || hasExtended(fd.Extended, "rename from "):
			fc.Status = StatusRenamed
			fc.PreviousPath = oldPath
		}
		if fc.Path == "" {
			fc.Path = pathFromExtended(fd.Extended)
		}
		if body, err := godiff.PrintHunks(fd.Hunks); err == nil {
			fc.RawPatch = string(body)
		}
		fc.Recount()
		out = append(out, fc)
	}
	return out, nil
}

// Recount sets Additions and Deletions from the parsed hunks.
func (fc *FileChange) Recount() {
	fc.Additions, fc.Deletions = 0, 0
	for _, h := range fc.Hunks {
		for _, l := range h.Lines {
			switch l.Kind {
			case Added:
				fc.Additions++
			case Removed:
				fc.Deletions++
			}
		}
	}
}

func stripPrefix(name string) string {
	if name == "/dev/null" {
		return ""
	}
	if len(name) > 2 && (name[:2] == "a/" || name[:2] == "b/") {
		return name[2:]
	}
	return name
}

func hasExtended(ext []string, prefix string) bool {
	for _, e := range ext {
		if strings.HasPrefix(e, prefix) {
			return true
		}
	}
	return false
}

// pathFromExtended recovers the path of a file that has no ---/+++ lines,
// such as a binary file or a mode change.
func pathFromExtended(ext []string) string {
	for _, e := range ext {
		if rest, ok := strings.CutPrefix(e, "diff --git "); ok {
			if i := strings.Index(rest, " b/"); i >= 0 {
				return rest[i+3:]
			}
		}
	}
	return ""
}
