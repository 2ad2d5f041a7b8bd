package agent

import (
	"fmt"
	"strings"

	"github.com/dshills/neura/internal/diff"
)

const (
	steerNoAction = "Please either gather more context using the available tools, " +
		"or provide your final review analysis using create_review_analysis."
	steerNoCalls = "Please either gather more specific context using the available tools, " +
		"or if you have enough information, provide your final review using create_review_analysis."
)

var ruler = strings.Repeat("=", 80)

// InitialPrompt describes the file's changes and asks the model to decide
// whether it needs more context.
func InitialPrompt(fc diff.FileChange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please analyze the following code changes in file: %s\n\n", fc.Path)
	fmt.Fprintf(&b, "File Status: %s\n", fc.Status)
	fmt.Fprintf(&b, "Additions: +%d\n", fc.Additions)
	fmt.Fprintf(&b, "Deletions: -%d\n\n", fc.Deletions)
	b.WriteString("Changes:\n")
	b.WriteString(ruler + "\n")
	b.WriteString(fc.Annotated() + "\n")
	b.WriteString(ruler + "\n\n")
	b.WriteString(`Please analyze these changes and decide if you need additional context to
provide a thorough review. Consider:

1. Do these changes affect public APIs or interfaces?
2. Are there function/class definitions that I should examine?
3. Are there imports or dependencies that might be impacted?
4. Are there related test files I should check?
5. Do I need to understand how these changes integrate with the broader codebase?

You can use the available context tools to gather more information, or if you have
sufficient context from the diff alone, provide your final analysis using
create_review_analysis.`)
	return b.String()
}
