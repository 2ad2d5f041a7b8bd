package diff

import (
	"strings"
	"testing"
)

const samplePatch = `@@ -1,4 +1,6 @@ func main() {
 package main
-import "fmt"
+import (
+	"fmt"
+)
 
 func main() {
@@ -20,3 +21,2 @@
 	a := 1
-	b := 2
 	return
`

func TestParsePatchEmpty(t *testing.T) {
	hunks, err := ParsePatch("", "x.go")
	if err != nil {
		t.Fatalf("ParsePatch error: %v", err)
	}
	if len(hunks) != 0 {
		t.Errorf("got %d hunks, want 0", len(hunks))
	}
}

func TestParsePatchSynthesizesHeader(t *testing.T) {
	hunks, err := ParsePatch(samplePatch, "main.go")
	if err != nil {
		t.Fatalf("ParsePatch error: %v", err)
	}
	if len(hunks) != 2 {
		t.Fatalf("got %d hunks, want 2", len(hunks))
	}
	h := hunks[0]
	if h.OldStart != 1 || h.OldCount != 4 || h.NewStart != 1 || h.NewCount != 6 {
		t.Errorf("hunk range = -%d,%d +%d,%d, want -1,4 +1,6", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
	}
	if h.Header != "@@ -1,4 +1,6 @@ func main() {" {
		t.Errorf("Header = %q", h.Header)
	}
}

func TestParsePatchWithFileHeader(t *testing.T) {
	patch := "--- a/main.go\n+++ b/main.go\n" + samplePatch
	hunks, err := ParsePatch(patch, "main.go")
	if err != nil {
		t.Fatalf("ParsePatch error: %v", err)
	}
	if len(hunks) != 2 {
		t.Fatalf("got %d hunks, want 2", len(hunks))
	}
}

func TestParsePatchWithGitHeader(t *testing.T) {
	patch := "diff --git a/main.go b/main.go\nindex 1111111..2222222 100644\n--- a/main.go\n+++ b/main.go\n" + samplePatch
	hunks, err := ParsePatch(patch, "main.go")
	if err != nil {
		t.Fatalf("ParsePatch error: %v", err)
	}
	if len(hunks) != 2 {
		t.Fatalf("got %d hunks, want 2", len(hunks))
	}
	if hunks[1].OldStart != 20 {
		t.Errorf("second hunk OldStart = %d, want 20", hunks[1].OldStart)
	}
}

func TestLineNumbering(t *testing.T) {
	hunks, err := ParsePatch(samplePatch, "main.go")
	if err != nil {
		t.Fatalf("ParsePatch error: %v", err)
	}
	want := []Line{
		{Kind: Context, Text: "package main", OldNumber: 1, NewNumber: 1},
		{Kind: Removed, Text: `import "fmt"`, OldNumber: 2},
		{Kind: Added, Text: "import (", NewNumber: 2},
		{Kind: Added, Text: "\t\"fmt\"", NewNumber: 3},
		{Kind: Added, Text: ")", NewNumber: 4},
		{Kind: Context, Text: "", OldNumber: 3, NewNumber: 5},
		{Kind: Context, Text: "func main() {", OldNumber: 4, NewNumber: 6},
	}
	got := hunks[0].Lines
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	second := hunks[1].Lines
	if second[1].Kind != Removed || second[1].OldNumber != 21 {
		t.Errorf("second hunk removed line = %+v, want old 21", second[1])
	}
	if second[2].OldNumber != 22 || second[2].NewNumber != 22 {
		t.Errorf("trailing context = %+v, want old 22 new 22", second[2])
	}
}

func TestCountsMatchHeader(t *testing.T) {
	hunks, err := ParsePatch(samplePatch, "main.go")
	if err != nil {
		t.Fatalf("ParsePatch error: %v", err)
	}
	for i, h := range hunks {
		var oldN, newN int
		for _, l := range h.Lines {
			switch l.Kind {
			case Added:
				newN++
				if l.OldNumber != 0 {
					t.Errorf("hunk %d: added line has old number %d", i, l.OldNumber)
				}
			case Removed:
				oldN++
				if l.NewNumber != 0 {
					t.Errorf("hunk %d: removed line has new number %d", i, l.NewNumber)
				}
			default:
				oldN++
				newN++
			}
		}
		if oldN != h.OldCount || newN != h.NewCount {
			t.Errorf("hunk %d: counted -%d +%d, header says -%d +%d", i, oldN, newN, h.OldCount, h.NewCount)
		}
	}
}

func TestParseKeepsGoodHunks(t *testing.T) {
	patch := "@@ -1,2 +1,2 @@\n-a\n+b\n c\n@@ garbage @@\n+x\n"
	fc := FileChange{Path: "f.txt", RawPatch: patch}
	Parse(&fc)
	if len(fc.Hunks) != 1 {
		t.Fatalf("got %d hunks, want 1", len(fc.Hunks))
	}
	if fc.Hunks[0].Lines[1].Text != "b" {
		t.Errorf("kept hunk line = %q, want %q", fc.Hunks[0].Lines[1].Text, "b")
	}
}

func TestNoNewlineMarkerIgnored(t *testing.T) {
	patch := "@@ -1 +1 @@\n-old\n\\ No newline at end of file\n+new\n\\ No newline at end of file\n"
	hunks, err := ParsePatch(patch, "f")
	if err != nil {
		t.Fatalf("ParsePatch error: %v", err)
	}
	if len(hunks) != 1 || len(hunks[0].Lines) != 2 {
		t.Fatalf("got %+v, want one hunk with two lines", hunks)
	}
}

func TestHunkFor(t *testing.T) {
	hunks, _ := ParsePatch(samplePatch, "main.go")
	fc := FileChange{Hunks: hunks}
	h, ok := fc.HunkFor([]int{21})
	if !ok || h.OldStart != 20 {
		t.Errorf("HunkFor(21) = %v,%v, want second hunk", h.OldStart, ok)
	}
	if _, ok := fc.HunkFor([]int{99}); ok {
		t.Error("HunkFor(99) should not match")
	}
}

func TestHunkForIgnoresMissingSide(t *testing.T) {
	hunks, _ := ParsePatch(samplePatch, "main.go")
	fc := FileChange{Hunks: hunks}
	if h, ok := fc.HunkFor([]int{0}); ok {
		t.Errorf("HunkFor(0) matched hunk at -%d, want no match", h.OldStart)
	}
	if hunks[0].Contains(-1) {
		t.Error("Contains(-1) = true, want false")
	}
}

func TestLineHas(t *testing.T) {
	tests := []struct {
		line Line
		n    int
		want bool
	}{
		{Line{Kind: Added, NewNumber: 3}, 3, true},
		{Line{Kind: Added, NewNumber: 3}, 0, false},
		{Line{Kind: Removed, OldNumber: 4}, 4, true},
		{Line{Kind: Removed, OldNumber: 4}, 0, false},
		{Line{Kind: Context, OldNumber: 7, NewNumber: 8}, 7, true},
		{Line{Kind: Context, OldNumber: 7, NewNumber: 8}, 8, true},
		{Line{Kind: Context, OldNumber: 7, NewNumber: 8}, 9, false},
	}
	for _, tt := range tests {
		if got := tt.line.Has(tt.n); got != tt.want {
			t.Errorf("%+v.Has(%d) = %v, want %v", tt.line, tt.n, got, tt.want)
		}
	}
}

func TestAnnotated(t *testing.T) {
	hunks, _ := ParsePatch(samplePatch, "main.go")
	fc := FileChange{Hunks: hunks[:1]}
	out := fc.Annotated()
	for _, want := range []string{"Hunk 1:\n@@ -1,4 +1,6 @@", "-   2: import \"fmt\"", "+   2: import (", "    6: func main() {"} {
		if !strings.Contains(out, want) {
			t.Errorf("Annotated missing %q:\n%s", want, out)
		}
	}
}

func TestRender(t *testing.T) {
	hunks, _ := ParsePatch(samplePatch, "main.go")
	out := hunks[1].Render()
	want := "@@ -20,3 +21,2 @@\n \ta := 1\n-\tb := 2\n \treturn"
	if out != want {
		t.Errorf("Render = %q, want %q", out, want)
	}
}

const multiPatch = `diff --git a/main.go b/main.go
index 1111111..2222222 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,3 @@
 package main
-var x = 1
+var x = 2
 func main() {}
diff --git a/new.go b/new.go
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/new.go
@@ -0,0 +1,2 @@
+package main
+var y = 3
diff --git a/old.go b/old.go
deleted file mode 100644
index 4444444..0000000
--- a/old.go
+++ /dev/null
@@ -1 +0,0 @@
-package main
`

func TestParseMulti(t *testing.T) {
	files, err := ParseMulti(multiPatch)
	if err != nil {
		t.Fatalf("ParseMulti error: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3", len(files))
	}

	tests := []struct {
		path       string
		status     Status
		adds, dels int
	}{
		{"main.go", StatusModified, 1, 1},
		{"new.go", StatusAdded, 2, 0},
		{"old.go", StatusRemoved, 0, 1},
	}
	for i, tt := range tests {
		fc := files[i]
		if fc.Path != tt.path || fc.Status != tt.status {
			t.Errorf("file %d = %s (%s), want %s (%s)", i, fc.Path, fc.Status, tt.path, tt.status)
		}
		if fc.Additions != tt.adds || fc.Deletions != tt.dels {
			t.Errorf("%s counts = +%d -%d, want +%d -%d", fc.Path, fc.Additions, fc.Deletions, tt.adds, tt.dels)
		}
		if len(fc.Hunks) != 1 {
			t.Errorf("%s hunks = %d, want 1", fc.Path, len(fc.Hunks))
		}
		if !strings.HasPrefix(fc.RawPatch, "@@ ") {
			t.Errorf("%s RawPatch = %q, want hunk text", fc.Path, fc.RawPatch)
		}
	}

	// the raw patch re-parses to the same hunks
	hunks, err := ParsePatch(files[0].RawPatch, "main.go")
	if err != nil || len(hunks) != 1 || len(hunks[0].Lines) != 4 {
		t.Errorf("re-parsed hunks = %+v, %v", hunks, err)
	}
}

func TestParseMultiEmpty(t *testing.T) {
	files, err := ParseMulti("  \n")
	if err != nil || files != nil {
		t.Errorf("ParseMulti(blank) = %v, %v", files, err)
	}
}

func TestStripPrefix(t *testing.T) {
	for in, want := range map[string]string{"a/x.go": "x.go", "b/dir/y.go": "dir/y.go", "/dev/null": "", "plain": "plain"} {
		if got := stripPrefix(in); got != want {
			t.Errorf("stripPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
