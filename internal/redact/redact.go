package redact

import (
	"path"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

const placeholder = "[REDACTED]"

// PathRedacted replaces the whole content of a file matched by the path policy.
const PathRedacted = placeholder + " (file content redacted by path policy)\n"

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []*regexp.Regexp{
	// API keys after common key names
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	// quoted secrets, tokens and passwords in assignments
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	// JWTs
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`),
	// database URLs with inline credentials
	regexp.MustCompile(`(?i)(postgres(ql)?|mysql|mongodb(\+srv)?|redis|amqp)://[^:/\s]+:[^@\s]+@`),
	// GitHub and GitLab tokens
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`glpat-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	// Google API keys
	regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`),
	// long hex values assigned to key-like names
	regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`),
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllLiteralString(result, placeholder)
	}
	return result
}

// Redactor applies the privacy policy to content leaving the process. The
// zero value and a nil *Redactor pass everything through.
type Redactor struct {
	secrets bool
	paths   []string
}

// New returns a Redactor. secrets enables pattern-based redaction; paths
// are doublestar globs whose files are redacted in full. Invalid patterns
// are dropped.
func New(secrets bool, paths []string) *Redactor {
	r := &Redactor{secrets: secrets}
	for _, p := range paths {
		if doublestar.ValidatePattern(p) {
			r.paths = append(r.paths, p)
		}
	}
	return r
}

// Enabled reports whether the redactor changes anything.
func (r *Redactor) Enabled() bool {
	return r != nil && (r.secrets || len(r.paths) > 0)
}

// MatchPath reports whether p matches any redaction path pattern. Patterns
// starting with "**/" also match at the repository root.
func (r *Redactor) MatchPath(p string) bool {
	if r == nil {
		return false
	}
	return MatchAny(r.paths, p)
}

// Text redacts secrets in s.
func (r *Redactor) Text(s string) string {
	if r == nil || !r.secrets {
		return s
	}
	return Secrets(s)
}

// Content redacts file content, replacing it entirely when the path
// matches the path policy.
func (r *Redactor) Content(p, content string) string {
	if r.MatchPath(p) {
		return PathRedacted
	}
	return r.Text(content)
}

// Map returns a copy of m with every string value redacted. Nested maps
// and slices are walked.
func (r *Redactor) Map(m map[string]any) map[string]any {
	if !r.Enabled() || m == nil {
		return m
	}
	out, _ := r.value(m).(map[string]any)
	return out
}

func (r *Redactor) value(v any) any {
	switch t := v.(type) {
	case string:
		return r.Text(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			if k == "content" || k == "snippet" || k == "definition" {
				if p, ok := t["file_path"].(string); ok && r.MatchPath(p) {
					out[k] = PathRedacted
					continue
				}
			}
			out[k] = r.value(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = r.value(vv)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, vv := range t {
			out[i], _ = r.value(vv).(map[string]any)
		}
		return out
	default:
		return v
	}
}

// MatchAny reports whether p matches any of the doublestar patterns.
func MatchAny(patterns []string, p string) bool {
	p = path.Clean(p)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}
