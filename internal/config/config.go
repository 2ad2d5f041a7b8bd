package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "NEURA"

// Config represents the neura configuration.
type Config struct {
	AI      AIConfig      `mapstructure:"ai" yaml:"ai"`
	Agentic AgenticConfig `mapstructure:"agentic" yaml:"agentic"`
	Review  ReviewConfig  `mapstructure:"review" yaml:"review"`
	GitHub  GitHubConfig  `mapstructure:"github" yaml:"github"`
	GitLab  GitLabConfig  `mapstructure:"gitlab" yaml:"gitlab"`
	Privacy PrivacyConfig `mapstructure:"privacy" yaml:"privacy"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Format  string        `mapstructure:"format" yaml:"format"`
	FailOn  string        `mapstructure:"fail_on" yaml:"fail_on"`
}

// AIConfig selects the model backend.
type AIConfig struct {
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	// BaseURL overrides the provider endpoint (Ollama, LM Studio, proxies).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// AgenticConfig bounds the context-gathering loop.
type AgenticConfig struct {
	Enabled                  bool `mapstructure:"enabled" yaml:"enabled"`
	MaxIterations            int  `mapstructure:"max_iterations" yaml:"max_iterations"`
	MaxToolCallsPerIteration int  `mapstructure:"max_tool_calls_per_iteration" yaml:"max_tool_calls_per_iteration"`
}

// ReviewConfig controls file selection and comment aggregation.
type ReviewConfig struct {
	MaxFilesPerPR      int      `mapstructure:"max_files_per_pr" yaml:"max_files_per_pr"`
	MinConfidence      float64  `mapstructure:"min_confidence" yaml:"min_confidence"`
	MaxCommentsPerFile int      `mapstructure:"max_comments_per_file" yaml:"max_comments_per_file"`
	Concurrency        int      `mapstructure:"concurrency" yaml:"concurrency"`
	MaxFileChanges     int      `mapstructure:"max_file_changes" yaml:"max_file_changes"`
	FocusAreas         []string `mapstructure:"focus_areas" yaml:"focus_areas"`
	Exclude            []string `mapstructure:"exclude" yaml:"exclude"`
	RulesFile          string   `mapstructure:"rules_file" yaml:"rules_file"`
}

type GitHubConfig struct {
	APIURL string `mapstructure:"api_url" yaml:"api_url"`
}

type GitLabConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// PrivacyConfig controls redaction of content sent to providers.
type PrivacyConfig struct {
	RedactSecrets bool     `mapstructure:"redact_secrets" yaml:"redact_secrets"`
	RedactPaths   []string `mapstructure:"redact_paths" yaml:"redact_paths"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		AI: AIConfig{
			Provider:    "openai",
			MaxTokens:   4000,
			Temperature: 0.1,
		},
		Agentic: AgenticConfig{
			Enabled:                  true,
			MaxIterations:            5,
			MaxToolCallsPerIteration: 3,
		},
		Review: ReviewConfig{
			MaxFilesPerPR:      50,
			MinConfidence:      0.8,
			MaxCommentsPerFile: 5,
			Concurrency:        5,
			MaxFileChanges:     1000,
			FocusAreas:         []string{},
			Exclude:            []string{"vendor/**", "**/*.gen.go", "**/dist/**"},
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Format: "text",
		FailOn: "none",
	}
}

// Keys lists every settable key in dotted form.
func Keys() []string {
	return flatKeys("", toMap(Default()))
}

// ConfigDir returns the platform-appropriate config directory for neura.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "neura"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "neura"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "neura"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "neura"), nil
	default:
		return filepath.Join(home, ".config", "neura"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadFile loads the config file on top of the defaults. A missing file
// yields the defaults.
func LoadFile() (Config, error) {
	v, err := newViper()
	if err != nil {
		return Config{}, err
	}
	return decode(v)
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging, lowest first: defaults, the
// config file, a .env file in the working directory, NEURA_* environment
// variables, and overrides. Override keys are dotted ("review.concurrency")
// and typically come from CLI flags.
func Load(overrides map[string]string) (Config, error) {
	// .env never replaces variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	v, err := newViper()
	if err != nil {
		return Config{}, err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	keys := Keys()
	for k, val := range overrides {
		if val == "" {
			continue
		}
		if !slices.Contains(keys, k) {
			return Config{}, fmt.Errorf("unknown config key: %s", k)
		}
		v.Set(k, val)
	}
	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// SetField sets a single config field by dotted key. Values are converted
// to the field's type; lists are comma separated.
func SetField(cfg *Config, key, value string) error {
	if !slices.Contains(Keys(), key) {
		return fmt.Errorf("unknown config key: %s", key)
	}
	v := viper.New()
	if err := v.MergeConfigMap(toMap(*cfg)); err != nil {
		return err
	}
	v.Set(key, value)
	updated, err := decode(v)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*cfg = updated
	return nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.Review.Concurrency < 1 {
		errs = append(errs, errors.New("review.concurrency must be at least 1"))
	}
	if c.Review.MinConfidence < 0 || c.Review.MinConfidence > 1 {
		errs = append(errs, errors.New("review.min_confidence must be between 0 and 1"))
	}
	if c.Agentic.MaxIterations < 1 {
		errs = append(errs, errors.New("agentic.max_iterations must be at least 1"))
	}
	if c.Agentic.MaxToolCallsPerIteration < 1 {
		errs = append(errs, errors.New("agentic.max_tool_calls_per_iteration must be at least 1"))
	}
	if !slices.Contains([]string{"text", "json", "markdown", "sarif"}, c.Format) {
		errs = append(errs, fmt.Errorf("unknown format %q", c.Format))
	}
	if !slices.Contains([]string{"none", "info", "low", "medium", "high", "critical"}, c.FailOn) {
		errs = append(errs, fmt.Errorf("unknown fail_on %q", c.FailOn))
	}
	return errors.Join(errs...)
}

// newViper returns a viper seeded with the defaults and the config file.
func newViper() (*viper.Viper, error) {
	v := viper.New()
	for k, val := range flatten("", toMap(Default())) {
		v.SetDefault(k, val)
	}
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return v, nil
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func toMap(cfg Config) map[string]any {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

func flatten(prefix string, m map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = v
	}
	return out
}

func flatKeys(prefix string, m map[string]any) []string {
	var keys []string
	for k := range flatten(prefix, m) {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
