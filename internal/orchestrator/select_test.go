package orchestrator

import (
	"strings"
	"testing"

	"github.com/dshills/neura/internal/diff"
	"github.com/dshills/neura/internal/redact"
)

func TestSkipReason(t *testing.T) {
	cfg := Config{
		MaxFileChanges: 2,
		Exclude:        []string{"vendor/**", "**/*.gen.go"},
		Redactor:       redact.New(true, []string{"**/*secrets*"}),
	}
	tests := []struct {
		name string
		fc   diff.FileChange
		want string
	}{
		{"code", fileChange("main.go", diff.StatusModified, goPatch), ""},
		{"markdown", fileChange("README.MD", diff.StatusModified, goPatch), "non-code file type"},
		{"lockfile", fileChange("go.sum.lock", diff.StatusModified, goPatch), "non-code file type"},
		{"gitignore", fileChange(".gitignore", diff.StatusModified, goPatch), "non-code file type"},
		{"removed", fileChange("old.go", diff.StatusRemoved, "@@ -1 +0,0 @@\n-package old\n"), "file removed"},
		{"pure rename", diff.FileChange{Path: "new.go", PreviousPath: "old.go", Status: diff.StatusRenamed}, "pure rename"},
		{"vendor", fileChange("vendor/x/y.go", diff.StatusModified, goPatch), "excluded by pattern"},
		{"generated", fileChange("api/types.gen.go", diff.StatusModified, goPatch), "excluded by pattern"},
		{"path policy", fileChange("conf/secrets.go", diff.StatusModified, goPatch), "redacted by path policy"},
		{"empty", diff.FileChange{Path: "a.go", Status: diff.StatusModified}, "empty patch"},
		{"unparseable", diff.FileChange{Path: "a.go", Status: diff.StatusModified, RawPatch: "Binary files differ"}, "no parseable hunks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := skipReason(tt.fc, cfg); got != tt.want {
				t.Errorf("skipReason(%s) = %q, want %q", tt.fc.Path, got, tt.want)
			}
		})
	}
}

func TestSkipReason_TooManyChanges(t *testing.T) {
	patch := "@@ -1,1 +1,3 @@\n-a\n+b\n+c\n+d\n"
	got := skipReason(fileChange("big.go", diff.StatusModified, patch), Config{MaxFileChanges: 3})
	if !strings.HasPrefix(got, "too many changes") {
		t.Errorf("skipReason = %q, want too many changes", got)
	}
}

func TestRedactFile_Disabled(t *testing.T) {
	fc := fileChange("main.go", diff.StatusModified, goPatch)
	out := redactFile(fc, nil)
	if out.RawPatch != fc.RawPatch {
		t.Error("nil redactor changed the patch")
	}
}
