package codectx

import (
	"strings"
	"testing"
)

func TestExtractSnippet(t *testing.T) {
	content := "l1\nl2\nl3\nl4\nl5 NEEDLE\nl6\nl7\nl8\nl9"
	got := ExtractSnippet(content, "needle")
	want := strings.Join([]string{
		"       2: l2",
		"       3: l3",
		"       4: l4",
		">>>    5: l5 NEEDLE",
		"       6: l6",
		"       7: l7",
		"       8: l8",
	}, "\n")
	if got != want {
		t.Errorf("ExtractSnippet =\n%s\nwant\n%s", got, want)
	}
}

func TestExtractSnippet_ClampsAtEdges(t *testing.T) {
	got := ExtractSnippet("match\nb", "MATCH")
	if got != ">>>    1: match\n       2: b" {
		t.Errorf("ExtractSnippet = %q", got)
	}
}

func TestExtractSnippet_NoMatch(t *testing.T) {
	short := "nothing here"
	if got := ExtractSnippet(short, "zzz"); got != short {
		t.Errorf("ExtractSnippet = %q, want %q", got, short)
	}
	long := strings.Repeat("x", 250)
	got := ExtractSnippet(long, "zzz")
	if got != strings.Repeat("x", 200)+"..." {
		t.Errorf("ExtractSnippet len = %d, want 203", len(got))
	}
}

func TestSliceLines(t *testing.T) {
	lines := []string{"a", "b", "c", "d"}
	tests := []struct {
		start, end int
		want       string
	}{
		{0, 0, "abcd"},
		{2, 3, "bc"},
		{3, 0, "cd"},
		{0, 2, "ab"},
		{3, 99, "cd"},
		{9, 0, ""},
		{4, 2, ""},
	}
	for _, tt := range tests {
		if got := strings.Join(sliceLines(lines, tt.start, tt.end), ""); got != tt.want {
			t.Errorf("sliceLines(%d, %d) = %q, want %q", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestDefinitionMatcher(t *testing.T) {
	tests := []struct {
		name, file, line string
		class, want      bool
	}{
		{"Add", "x.go", "func Add(a int) int {", false, true},
		{"Add", "x.go", "func (c *Calc) Add(a int) {", false, true},
		{"Map", "x.go", "func Map[T any](xs []T) {", false, true},
		{"Add", "x.go", "x := Add(1, 2)", false, false},
		{"load", "x.py", "def load(path):", false, true},
		{"load", "x.py", "    async def load(self):", false, true},
		{"load", "x.js", "function load(url) {", false, true},
		{"load", "x.ts", "export const load = async (url: string) => {", false, true},
		{"load", "x.ts", "  load(url) {", false, true},
		{"load", "x.ts", "  this.load(url);", false, false},
		{"load", "x.rb", "def load(path)", false, true},
		{"Calc", "x.go", "type Calc struct {", true, true},
		{"Store", "x.go", "type Store interface {", true, true},
		{"Calc", "x.go", "type Calc int", true, false},
		{"Model", "x.py", "class Model(Base):", true, true},
		{"Model", "x.py", "class Model:", true, true},
		{"Widget", "x.ts", "export class Widget implements View {", true, true},
		{"Widget", "x.ts", "new Widget()", true, false},
	}
	for _, tt := range tests {
		patterns := functionPatterns(tt.name)
		if tt.class {
			patterns = classPatterns(tt.name)
		}
		if got := definitionMatcher(patterns, tt.file).MatchString(tt.line); got != tt.want {
			t.Errorf("%s %q match = %v, want %v", tt.file, tt.line, got, tt.want)
		}
	}
}
