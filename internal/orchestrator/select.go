package orchestrator

import (
	"fmt"
	"strings"

	"github.com/dshills/neura/internal/diff"
	"github.com/dshills/neura/internal/redact"
)

// skippedExtensions are file suffixes never sent for review.
var skippedExtensions = []string{
	".md", ".txt", ".json", ".yml", ".yaml", ".xml", ".lock",
	".gitignore", ".gitattributes", ".env", ".log", ".csv", ".sql",
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico",
	".woff", ".woff2", ".ttf",
}

// Skip records a file left out of the review and why.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// selectFiles applies the skip rules in order and caps the result at
// cfg.MaxFilesPerPR. Selected files keep their change set order.
func selectFiles(files []diff.FileChange, cfg Config) (selected []diff.FileChange, skipped []Skip) {
	for _, fc := range files {
		if reason := skipReason(fc, cfg); reason != "" {
			skipped = append(skipped, Skip{Path: fc.Path, Reason: reason})
			continue
		}
		if len(selected) == cfg.MaxFilesPerPR {
			skipped = append(skipped, Skip{Path: fc.Path, Reason: fmt.Sprintf("over the limit of %d files", cfg.MaxFilesPerPR)})
			continue
		}
		selected = append(selected, fc)
	}
	return selected, skipped
}

func skipReason(fc diff.FileChange, cfg Config) string {
	lower := strings.ToLower(fc.Path)
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(lower, ext) {
			return "non-code file type"
		}
	}
	switch {
	case fc.Status == diff.StatusRemoved:
		return "file removed"
	case fc.Status == diff.StatusRenamed && fc.Changes() == 0:
		return "pure rename"
	case fc.Changes() > cfg.MaxFileChanges:
		return fmt.Sprintf("too many changes (%d > %d)", fc.Changes(), cfg.MaxFileChanges)
	case redact.MatchAny(cfg.Exclude, fc.Path):
		return "excluded by pattern"
	case cfg.Redactor.MatchPath(fc.Path):
		return "redacted by path policy"
	case strings.TrimSpace(fc.RawPatch) == "" && len(fc.Hunks) == 0:
		return "empty patch"
	case len(fc.Hunks) == 0:
		return "no parseable hunks"
	}
	return ""
}

// redactFile returns a copy of fc with secrets removed from line text.
func redactFile(fc diff.FileChange, r *redact.Redactor) diff.FileChange {
	if !r.Enabled() {
		return fc
	}
	out := fc
	out.RawPatch = r.Text(fc.RawPatch)
	out.Hunks = make([]diff.Hunk, len(fc.Hunks))
	for i, h := range fc.Hunks {
		h.Lines = append([]diff.Line(nil), h.Lines...)
		for j := range h.Lines {
			h.Lines[j].Text = r.Text(h.Lines[j].Text)
		}
		out.Hunks[i] = h
	}
	return out
}
