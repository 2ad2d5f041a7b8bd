package review

import "testing"

func TestSeverityRank(t *testing.T) {
	tests := []struct {
		severity Severity
		want     int
	}{
		{SeverityCritical, 0},
		{SeverityHigh, 1},
		{SeverityMedium, 2},
		{SeverityLow, 3},
		{SeverityInfo, 4},
		{Severity("unknown"), 5},
	}
	for _, tt := range tests {
		got := SeverityRank(tt.severity)
		if got != tt.want {
			t.Errorf("SeverityRank(%q) = %d, want %d", tt.severity, got, tt.want)
		}
	}
}

func TestMeetsThreshold(t *testing.T) {
	tests := []struct {
		severity  Severity
		threshold string
		want      bool
	}{
		{SeverityHigh, "none", false},
		{SeverityHigh, "", false},
		{SeverityCritical, "high", true},
		{SeverityHigh, "high", true},
		{SeverityHigh, "medium", true},
		{SeverityMedium, "high", false},
		{SeverityMedium, "medium", true},
		{SeverityLow, "medium", false},
		{SeverityInfo, "info", true},
		{SeverityHigh, "bogus", false},
	}
	for _, tt := range tests {
		got := MeetsThreshold(tt.severity, tt.threshold)
		if got != tt.want {
			t.Errorf("MeetsThreshold(%q, %q) = %v, want %v", tt.severity, tt.threshold, got, tt.want)
		}
	}
}

func TestSeverityLabel(t *testing.T) {
	if got := SeverityCritical.Label(); got != "Critical" {
		t.Errorf("Label() = %q, want %q", got, "Critical")
	}
	if got := Severity("").Label(); got != "" {
		t.Errorf("Label() = %q, want empty", got)
	}
}

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("%q should be valid", c)
		}
	}
	if Category("style").Valid() {
		t.Error("style should not be a valid category")
	}
}
