package codectx

import (
	"path"
	"regexp"
	"strings"
)

const (
	functionSpan = 10
	classSpan    = 15
)

type language int

const (
	langOther language = iota
	langGo
	langPython
	langScript
)

func languageOf(p string) language {
	switch strings.ToLower(path.Ext(p)) {
	case ".go":
		return langGo
	case ".py", ".pyi":
		return langPython
	case ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx":
		return langScript
	default:
		return langOther
	}
}

func functionPatterns(name string) map[language]string {
	n := regexp.QuoteMeta(name)
	return map[language]string{
		langGo:     `^\s*func\s+(\([^)]*\)\s*)?` + n + `\s*[\[(]`,
		langPython: `^\s*(async\s+)?def\s+` + n + `\s*\(`,
		langScript: `(function\*?\s+` + n + `\s*\(|\b(const|let|var)\s+` + n + `\s*=\s*(async\s*)?(\(|function\b|[A-Za-z_$][\w$]*\s*=>)|^\s*(async\s+|static\s+)*` + n + `\s*\([^)]*\)\s*\{)`,
	}
}

func classPatterns(name string) map[language]string {
	n := regexp.QuoteMeta(name)
	class := `\bclass\s+` + n + `(\s*[(:{]|\s+(extends|implements)\b|\s*$)`
	return map[language]string{
		langGo:     `^\s*type\s+` + n + `(\[[^\]]*\])?\s+(struct|interface)\b`,
		langPython: class,
		langScript: class,
	}
}

// definitionMatcher builds the regex for a file. Files of unknown
// language are matched against every pattern.
func definitionMatcher(patterns map[language]string, file string) *regexp.Regexp {
	lang := languageOf(file)
	if p, ok := patterns[lang]; ok {
		return regexp.MustCompile(p)
	}
	alts := make([]string, 0, len(patterns))
	for _, l := range []language{langGo, langPython, langScript} {
		alts = append(alts, "(?:"+patterns[l]+")")
	}
	return regexp.MustCompile(strings.Join(alts, "|"))
}

// findDefinition returns span lines starting at the first line matching re,
// and the 1-based line number of the match.
func findDefinition(content string, re *regexp.Regexp, span int) (string, int, bool) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if re.MatchString(line) {
			end := min(len(lines), i+span)
			return strings.Join(lines[i:end], "\n"), i + 1, true
		}
	}
	return "", 0, false
}
