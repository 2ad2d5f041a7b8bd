package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Chdir(t.TempDir())
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.AI.Provider != "openai" {
		t.Errorf("Default provider = %q, want %q", cfg.AI.Provider, "openai")
	}
	if cfg.AI.MaxTokens != 4000 || cfg.AI.Temperature != 0.1 {
		t.Errorf("Default ai = %+v", cfg.AI)
	}
	if !cfg.Agentic.Enabled || cfg.Agentic.MaxIterations != 5 || cfg.Agentic.MaxToolCallsPerIteration != 3 {
		t.Errorf("Default agentic = %+v", cfg.Agentic)
	}
	r := cfg.Review
	if r.MaxFilesPerPR != 50 || r.MinConfidence != 0.8 || r.MaxCommentsPerFile != 5 || r.Concurrency != 5 || r.MaxFileChanges != 1000 {
		t.Errorf("Default review = %+v", r)
	}
	if cfg.FailOn != "none" || cfg.Format != "text" {
		t.Errorf("Default failOn/format = %q/%q", cfg.FailOn, cfg.Format)
	}
	if !cfg.Privacy.RedactSecrets {
		t.Error("Default redact_secrets should be true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default does not validate: %v", err)
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	for _, want := range []string{
		"ai.provider", "ai.base_url", "agentic.max_tool_calls_per_iteration",
		"review.exclude", "review.rules_file", "github.api_url", "gitlab.base_url",
		"privacy.redact_paths", "log.level", "format", "fail_on",
	} {
		if !slices.Contains(keys, want) {
			t.Errorf("Keys() missing %q", want)
		}
	}
	if !slices.IsSorted(keys) {
		t.Error("Keys() not sorted")
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir error: %v", err)
	}
	if dir != "/tmp/xdg-test/neura" {
		t.Errorf("ConfigDir = %q, want %q", dir, "/tmp/xdg-test/neura")
	}
	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath error: %v", err)
	}
	if path != "/tmp/xdg-test/neura/config.yaml" {
		t.Errorf("ConfigPath = %q, want %q", path, "/tmp/xdg-test/neura/config.yaml")
	}
}

func TestLoadFile_NoFile(t *testing.T) {
	isolate(t)
	cfg, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.AI.Provider != "openai" || cfg.Review.Concurrency != 5 {
		t.Errorf("LoadFile without a file = %+v, want defaults", cfg)
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	isolate(t)

	cfg := Default()
	cfg.AI.Provider = "anthropic"
	cfg.AI.Model = "claude-sonnet-4-20250514"
	cfg.Review.MaxCommentsPerFile = 3
	cfg.Agentic.Enabled = false
	cfg.Review.FocusAreas = []string{"security"}

	if err := Save(cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	loaded, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if loaded.AI.Provider != "anthropic" || loaded.AI.Model != "claude-sonnet-4-20250514" {
		t.Errorf("ai = %+v", loaded.AI)
	}
	if loaded.Review.MaxCommentsPerFile != 3 {
		t.Errorf("MaxCommentsPerFile = %d, want 3", loaded.Review.MaxCommentsPerFile)
	}
	if loaded.Agentic.Enabled {
		t.Error("agentic.enabled = true, want false from file")
	}
	if len(loaded.Review.FocusAreas) != 1 || loaded.Review.FocusAreas[0] != "security" {
		t.Errorf("FocusAreas = %v", loaded.Review.FocusAreas)
	}
}

func TestLoadFile_Partial(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "neura", "config.yaml")
	os.MkdirAll(filepath.Dir(path), 0o755)
	os.WriteFile(path, []byte("review:\n  concurrency: 2\n"), 0o644)

	cfg, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.Review.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", cfg.Review.Concurrency)
	}
	if cfg.Review.MaxFilesPerPR != 50 || cfg.AI.Provider != "openai" {
		t.Errorf("unset fields lost their defaults: %+v", cfg)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "neura", "config.yaml")
	os.MkdirAll(filepath.Dir(path), 0o755)
	os.WriteFile(path, []byte("review: [unclosed\n"), 0o644)

	if _, err := LoadFile(); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "neura", "config.yaml")
	os.MkdirAll(filepath.Dir(path), 0o755)
	os.WriteFile(path, []byte("ai:\n  provider: anthropic\n  model: file-model\nreview:\n  concurrency: 2\n"), 0o644)

	t.Setenv("NEURA_AI_MODEL", "env-model")
	t.Setenv("NEURA_REVIEW_EXCLUDE", "gen/**,*.pb.go")

	cfg, err := Load(map[string]string{"review.concurrency": "8", "fail_on": "high", "format": ""})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.AI.Provider != "anthropic" {
		t.Errorf("Provider = %q, want file value", cfg.AI.Provider)
	}
	if cfg.AI.Model != "env-model" {
		t.Errorf("Model = %q, want env value", cfg.AI.Model)
	}
	if cfg.Review.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want override", cfg.Review.Concurrency)
	}
	if cfg.FailOn != "high" || cfg.Format != "text" {
		t.Errorf("FailOn/Format = %q/%q", cfg.FailOn, cfg.Format)
	}
	if strings.Join(cfg.Review.Exclude, "|") != "gen/**|*.pb.go" {
		t.Errorf("Exclude = %v", cfg.Review.Exclude)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	t.Cleanup(func() { os.Unsetenv("NEURA_LOG_LEVEL") })
	os.WriteFile(".env", []byte("NEURA_LOG_LEVEL=debug\nNEURA_AI_PROVIDER=gemini\n"), 0o644)
	t.Setenv("NEURA_AI_PROVIDER", "ollama")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want value from .env", cfg.Log.Level)
	}
	if cfg.AI.Provider != "ollama" {
		t.Errorf("Provider = %q, .env must not override the environment", cfg.AI.Provider)
	}
}

func TestLoad_Errors(t *testing.T) {
	isolate(t)
	if _, err := Load(map[string]string{"nope": "x"}); err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("unknown key error = %v", err)
	}
	if _, err := Load(map[string]string{"review.concurrency": "0"}); err == nil {
		t.Error("expected validation error for zero concurrency")
	}
	if _, err := Load(map[string]string{"format": "xml"}); err == nil {
		t.Error("expected validation error for unknown format")
	}
}

func TestSetField(t *testing.T) {
	cfg := Default()
	tests := []struct {
		key, value string
		check      func(Config) bool
	}{
		{"ai.provider", "anthropic", func(c Config) bool { return c.AI.Provider == "anthropic" }},
		{"ai.temperature", "0.5", func(c Config) bool { return c.AI.Temperature == 0.5 }},
		{"review.max_comments_per_file", "9", func(c Config) bool { return c.Review.MaxCommentsPerFile == 9 }},
		{"agentic.enabled", "false", func(c Config) bool { return !c.Agentic.Enabled }},
		{"review.focus_areas", "security,performance", func(c Config) bool {
			return strings.Join(c.Review.FocusAreas, ",") == "security,performance"
		}},
	}
	for _, tt := range tests {
		if err := SetField(&cfg, tt.key, tt.value); err != nil {
			t.Errorf("SetField(%s) error: %v", tt.key, err)
			continue
		}
		if !tt.check(cfg) {
			t.Errorf("SetField(%s, %s) not applied: %+v", tt.key, tt.value, cfg)
		}
	}
	if cfg.Review.Concurrency != 5 {
		t.Errorf("unrelated field changed: Concurrency = %d", cfg.Review.Concurrency)
	}
}

func TestSetField_Errors(t *testing.T) {
	cfg := Default()
	if err := SetField(&cfg, "unknown", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := SetField(&cfg, "review.concurrency", "many"); err == nil {
		t.Error("expected error for non-integer value")
	}
	if cfg.Review.Concurrency != 5 {
		t.Errorf("failed SetField changed config: %d", cfg.Review.Concurrency)
	}
}
