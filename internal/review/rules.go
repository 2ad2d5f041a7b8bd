package review

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules represents a rules pack loaded from --rules. The file may be YAML
// or JSON.
type Rules struct {
	Focus             []string          `yaml:"focus,omitempty" json:"focus,omitempty"`
	SeverityOverrides map[string]string `yaml:"severityOverrides,omitempty" json:"severityOverrides,omitempty"`
	Required          []RequiredCheck   `yaml:"required,omitempty" json:"required,omitempty"`
}

// RequiredCheck is a policy check that should always be enforced.
type RequiredCheck struct {
	ID   string `yaml:"id" json:"id"`
	Text string `yaml:"text" json:"text"`
}

// LoadRules loads a rules file from disk. Returns nil Rules and nil error if path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	for cat, sev := range rules.SeverityOverrides {
		if !Severity(sev).Valid() {
			return nil, fmt.Errorf("rules file: invalid severity %q for %s", sev, cat)
		}
	}
	return &rules, nil
}

// WithFocus returns rules whose focus list also includes areas. r may be nil.
func (r *Rules) WithFocus(areas []string) *Rules {
	if len(areas) == 0 {
		return r
	}
	out := &Rules{}
	if r != nil {
		*out = *r
		out.Focus = append([]string(nil), r.Focus...)
	}
	for _, a := range areas {
		if !containsFold(out.Focus, a) {
			out.Focus = append(out.Focus, a)
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// BuildRulesPromptSection returns additional prompt instructions derived from rules.
func BuildRulesPromptSection(rules *Rules) string {
	if rules == nil {
		return ""
	}

	var b strings.Builder

	if len(rules.Focus) > 0 {
		fmt.Fprintf(&b, "\nFocus areas: %s. Prioritize findings in these areas.\n",
			strings.Join(rules.Focus, ", "))
	}

	if len(rules.SeverityOverrides) > 0 {
		b.WriteString("\nSeverity policy:\n")
		for _, cat := range Categories {
			if sev, ok := rules.SeverityOverrides[string(cat)]; ok {
				fmt.Fprintf(&b, "- %s findings should be rated as %s severity.\n", cat, sev)
			}
		}
	}

	if len(rules.Required) > 0 {
		b.WriteString("\nRequired checks (always evaluate these):\n")
		for _, req := range rules.Required {
			fmt.Fprintf(&b, "- [%s] %s\n", req.ID, req.Text)
		}
	}

	return b.String()
}

// ApplySeverityOverrides post-processes findings to enforce severity overrides from rules.
func ApplySeverityOverrides(findings []Finding, rules *Rules) []Finding {
	if rules == nil || len(rules.SeverityOverrides) == 0 {
		return findings
	}

	for i := range findings {
		if override, ok := rules.SeverityOverrides[string(findings[i].Category)]; ok {
			findings[i].Severity = Severity(override)
		}
	}
	return findings
}
