package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dshills/neura/internal/agent"
	"github.com/dshills/neura/internal/codectx"
	"github.com/dshills/neura/internal/config"
	"github.com/dshills/neura/internal/gitctx"
	"github.com/dshills/neura/internal/github"
	"github.com/dshills/neura/internal/orchestrator"
	"github.com/dshills/neura/internal/output"
	"github.com/dshills/neura/internal/providers"
	"github.com/dshills/neura/internal/redact"
	"github.com/dshills/neura/internal/review"
	"github.com/dshills/neura/internal/source"
)

// Shared review flags
var (
	flagDryRun      bool
	flagFile        string
	flagProvider    string
	flagModel       string
	flagAPIKey      string
	flagOpenAIKey   string
	flagNoAgentic   bool
	flagFormat      string
	flagOut         string
	flagFailOn      string
	flagRules       string
	flagConcurrency int
	flagNoRedact    bool
)

func addReviewFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagProvider, "provider", "", "LLM provider (openai, anthropic, gemini, ollama, lmstudio)")
	fs.StringVar(&flagModel, "model", "", "Model name")
	fs.StringVar(&flagAPIKey, "api-key", "", "API key for the provider (default: provider environment variable)")
	fs.StringVar(&flagOpenAIKey, "openai-api-key", "", "OpenAI API key")
	fs.BoolVar(&flagNoAgentic, "no-agentic", false, "Analyze hunks directly without context tools")
	fs.StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	fs.StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	fs.StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, info, low, medium, high, critical)")
	fs.StringVar(&flagRules, "rules", "", "Rules file path")
	fs.IntVar(&flagConcurrency, "concurrency", 0, "Files analyzed at once")
	fs.BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
}

func addChangeFlags(fs *pflag.FlagSet) {
	addReviewFlags(fs)
	fs.BoolVar(&flagDryRun, "dry-run", false, "Review without posting; print a preview of the comments")
	fs.StringVar(&flagFile, "file", "", "Analyze a single file of the change (implies --dry-run)")
}

// buildOverrides maps flags onto dotted config keys.
func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["ai.provider"] = flagProvider
	}
	if flagModel != "" {
		m["ai.model"] = flagModel
	}
	if flagNoAgentic {
		m["agentic.enabled"] = "false"
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["fail_on"] = flagFailOn
	}
	if flagRules != "" {
		m["review.rules_file"] = flagRules
	}
	if flagConcurrency > 0 {
		m["review.concurrency"] = strconv.Itoa(flagConcurrency)
	}
	if flagNoRedact {
		m["privacy.redact_secrets"] = "false"
	}
	return m
}

// loadConfig loads the effective config and sets up logging. On failure
// the usage exit code is recorded and ok is false.
func loadConfig(cmd *cobra.Command) (cfg config.Config, ok bool) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		fail(cmd, ExitUsageError, err)
		return cfg, false
	}
	if err := setupLogging(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()); err != nil {
		fail(cmd, ExitUsageError, err)
		return cfg, false
	}
	if flagNoRedact {
		fmt.Fprintln(cmd.ErrOrStderr(), "WARNING: secret redaction is disabled")
	}
	return cfg, true
}

// newResponder builds the configured model backend. Tests replace it.
var newResponder = func(cfg config.Config) (providers.Responder, error) {
	model := cfg.AI.Model
	if model == "" {
		model = providers.DefaultModel(cfg.AI.Provider)
	}
	key := flagAPIKey
	if key == "" && cfg.AI.Provider == "openai" {
		key = flagOpenAIKey
	}
	return providers.New(cfg.AI.Provider, model, providers.Options{APIKey: key, BaseURL: cfg.AI.BaseURL})
}

// analyzerFactory returns the per-change analyzer: the agentic loop with
// context tools over src, or the hunk analyzer when agentic mode is off.
func analyzerFactory(r providers.Responder, src source.Provider, cfg config.Config, redactor *redact.Redactor) (orchestrator.AnalyzerFactory, error) {
	rules, err := review.LoadRules(cfg.Review.RulesFile)
	if err != nil {
		return nil, err
	}
	rules = rules.WithFocus(cfg.Review.FocusAreas)

	if !cfg.Agentic.Enabled {
		return orchestrator.Fixed(review.NewAnalyzer(r, review.AnalyzerConfig{
			MaxTokens:   cfg.AI.MaxTokens,
			Temperature: cfg.AI.Temperature,
			Concurrency: cfg.Review.Concurrency,
			Rules:       rules,
		})), nil
	}
	return func(cs source.ChangeSet) (orchestrator.Analyzer, error) {
		loop, err := agent.NewLoop(r, codectx.Toolset(src, cs.HeadRevision, redactor), agent.Config{
			MaxIterations:            cfg.Agentic.MaxIterations,
			MaxToolCallsPerIteration: cfg.Agentic.MaxToolCallsPerIteration,
			MaxTokens:                cfg.AI.MaxTokens,
			Temperature:              cfg.AI.Temperature,
			Rules:                    rules,
		})
		if err != nil {
			return nil, err
		}
		return orchestrator.AnalyzerFunc(loop.Run), nil
	}, nil
}

// runChange reviews ref from src and writes the report. Exit codes are
// recorded on failure and when findings meet the fail-on threshold.
func runChange(cmd *cobra.Command, src source.Provider, ref source.ChangeRef, cfg config.Config, dryRun bool) {
	ctx := cmd.Context()
	r, err := newResponder(cfg)
	if err != nil {
		fail(cmd, ExitAuthError, err)
		return
	}
	// every model call of the run, across files and hunks, shares one limit
	r = providers.Limit(r, cfg.Review.Concurrency)
	redactor := redact.New(cfg.Privacy.RedactSecrets, cfg.Privacy.RedactPaths)
	build, err := analyzerFactory(r, src, cfg, redactor)
	if err != nil {
		fail(cmd, ExitUsageError, err)
		return
	}

	orch := orchestrator.New(src, build, orchestrator.Config{
		MaxFilesPerPR:      cfg.Review.MaxFilesPerPR,
		MaxFileChanges:     cfg.Review.MaxFileChanges,
		Concurrency:        cfg.Review.Concurrency,
		Exclude:            cfg.Review.Exclude,
		MinConfidence:      cfg.Review.MinConfidence,
		MaxCommentsPerFile: cfg.Review.MaxCommentsPerFile,
		DryRun:             dryRun,
		Redactor:           redactor,
	})

	var report *orchestrator.Report
	if flagFile != "" {
		report, err = orch.AnalyzeFile(ctx, ref, flagFile)
	} else {
		report, err = orch.Run(ctx, ref)
	}
	if report != nil {
		if werr := output.WriteReport(report, cfg.Format, flagOut, cmd.OutOrStdout()); werr != nil {
			fail(cmd, ExitSourceError, fmt.Errorf("writing output: %w", werr))
			return
		}
		if report.DryRun {
			if perr := output.Preview(cmd.ErrOrStderr(), report.Result); perr != nil {
				fail(cmd, ExitSourceError, perr)
				return
			}
		}
	}
	if err != nil {
		fail(cmd, exitCodeFor(err), err)
		return
	}

	if review.MeetsThreshold(report.Result.Counts.Highest(), cfg.FailOn) {
		exitCode = ExitFindings
	}
}

// exitCodeFor classifies a run error.
func exitCodeFor(err error) int {
	switch {
	case providers.IsAuthError(err), errors.Is(err, orchestrator.ErrNoOutcome):
		return ExitAuthError
	default:
		return ExitSourceError
	}
}

// resolveRepo returns repo, or owner/name parsed from the origin remote of
// the repository in the working directory.
func resolveRepo(repo string) (string, error) {
	if repo != "" {
		return repo, nil
	}
	local, err := gitctx.Open(".", gitctx.Options{})
	if err != nil {
		return "", err
	}
	url, err := local.RemoteURL("origin")
	if err != nil {
		return "", err
	}
	owner, name, err := github.ParseRemoteURL(url)
	if err != nil {
		return "", err
	}
	return owner + "/" + name, nil
}

func tokenFrom(flag, env string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(env)
}

var (
	flagGHRepo  string
	flagGHPR    int
	flagGHToken string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review a GitHub pull request",
	Long:  "Fetch a pull request from GitHub, review each changed file, and post one review with inline comments.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagGHPR <= 0 {
			return errors.New("--pr is required")
		}
		cfg, ok := loadConfig(cmd)
		if !ok {
			return nil
		}
		repo, err := resolveRepo(flagGHRepo)
		if err != nil {
			fail(cmd, ExitUsageError, fmt.Errorf("%w\nUse --repo owner/name to specify the repository", err))
			return nil
		}
		client, err := github.NewClient(github.Options{
			Token:  tokenFrom(flagGHToken, "GITHUB_TOKEN"),
			Repo:   repo,
			APIURL: cfg.GitHub.APIURL,
		})
		if err != nil {
			fail(cmd, ExitSourceError, err)
			return nil
		}
		runChange(cmd, client, source.ChangeRef{Repo: repo, Number: flagGHPR}, cfg, flagDryRun || flagFile != "")
		return nil
	},
}

func init() {
	addChangeFlags(reviewCmd.Flags())
	reviewCmd.Flags().StringVar(&flagGHRepo, "repo", "", "Repository as owner/name (default: origin remote)")
	reviewCmd.Flags().IntVar(&flagGHPR, "pr", 0, "Pull request number")
	reviewCmd.Flags().StringVar(&flagGHToken, "github-token", "", "GitHub token (default: GITHUB_TOKEN)")
}
