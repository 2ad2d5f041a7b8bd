package review

import (
	"fmt"
	"path"
	"strings"

	"github.com/dshills/neura/internal/diff"
)

const hunkSystemPrompt = `You are an expert code reviewer focused on critical issues only.

Focus on:
- Security vulnerabilities
- Memory issues
- Performance problems
- Critical bugs
- Error handling

Only report issues that could cause real problems in production.`

const agenticSystemPrompt = `You are an expert code reviewer with the ability to gather additional context about the codebase.

Your goal is to provide thorough, context-aware code reviews by:
1. First analyzing the provided code changes
2. Deciding if you need more context to provide a quality review
3. Using available tools to gather additional information
4. Providing comprehensive feedback based on all available information

Available tools:
- get_file_content: Get content of specific files
- search_codebase: Search for patterns, functions, classes across codebase
- find_function_definition: Find complete function definitions
- find_class_definition: Find complete class definitions
- find_import_usages: Find files that import specific modules
- find_test_files: Find test files for source files

When you have gathered enough context, call create_review_analysis with your final assessment.`

// HunkSystemPrompt returns the system prompt for per-hunk review of a file
// written in language.
func HunkSystemPrompt(language string, rules *Rules) string {
	var b strings.Builder
	b.WriteString(hunkSystemPrompt)
	if language != "" {
		fmt.Fprintf(&b, "\n\nThe code under review is written in %s.", language)
	}
	b.WriteString(BuildRulesPromptSection(rules))
	return b.String()
}

// AgenticSystemPrompt returns the system prompt for the context-gathering
// review loop.
func AgenticSystemPrompt(rules *Rules) string {
	return agenticSystemPrompt + BuildRulesPromptSection(rules)
}

// HunkPrompt builds the user prompt asking for a review of one hunk.
func HunkPrompt(filename string, h diff.Hunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please review the following code changes in a hunk from the file `%s`:\n\n", filename)
	fmt.Fprintf(&b, "```diff\n%s\n%s\n```\n\n", h.Header, h.Annotated())
	b.WriteString("**REQUIREMENTS:**\n")
	b.WriteString("1. Analyze EVERY added and removed line.\n")
	b.WriteString("2. For each issue, provide the exact line number from the diff above.\n")
	b.WriteString("3. For suggestions, provide ONLY pure code, no text, no markdown, no explanations in the suggestion field.")
	return b.String()
}

var languages = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".js":    "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript/React",
	".jsx":   "JavaScript/React",
	".rs":    "Rust",
	".java":  "Java",
	".rb":    "Ruby",
	".cpp":   "C++",
	".c":     "C",
	".h":     "C/C++",
	".cs":    "C#",
	".php":   "PHP",
	".swift": "Swift",
	".kt":    "Kotlin",
	".scala": "Scala",
	".sh":    "Shell",
	".bash":  "Bash",
	".html":  "HTML",
	".css":   "CSS",
	".scss":  "SCSS",
	".tf":    "Terraform",
}

// DetectLanguage returns the language of filename from its extension, or
// "Unknown".
func DetectLanguage(filename string) string {
	if lang, ok := languages[strings.ToLower(path.Ext(filename))]; ok {
		return lang
	}
	return "Unknown"
}
