package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/neura/internal/diff"
	"github.com/dshills/neura/internal/logging"
	"github.com/dshills/neura/internal/providers"
)

// AnalyzerConfig configures the per-hunk analyzer.
type AnalyzerConfig struct {
	MaxTokens   int
	Temperature float64
	// Concurrency bounds the hunks of one file analyzed at once. Model calls
	// across files are bounded by the responder (see providers.Limit).
	Concurrency int
	Rules       *Rules
}

// Analyzer reviews a file one hunk at a time with a single forced
// create_review_analysis call per hunk.
type Analyzer struct {
	responder providers.Responder
	cfg       AnalyzerConfig
	tool      providers.Tool
}

// NewAnalyzer returns an analyzer that sends requests to r.
func NewAnalyzer(r providers.Responder, cfg AnalyzerConfig) *Analyzer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	return &Analyzer{
		responder: r,
		cfg:       cfg,
		tool: providers.Tool{
			Name:        AnalysisToolName,
			Description: "Create a structured code review analysis for a hunk",
			Parameters:  providers.SchemaFrom(HunkAnalysis{}),
		},
	}
}

type hunkResult struct {
	findings []Finding
	comments []Comment
	err      error
}

// Analyze reviews every hunk of fc. A hunk whose analysis fails contributes
// nothing; Outcome.Err is set only when every hunk failed.
func (a *Analyzer) Analyze(ctx context.Context, fc diff.FileChange) Outcome {
	sp := logging.StartSpan(ctx, "review.analyze_file",
		attribute.String("file", fc.Path),
		attribute.Int("hunks", len(fc.Hunks)))
	defer sp.End()
	ctx = sp.Context()

	system := HunkSystemPrompt(DetectLanguage(fc.Path), a.cfg.Rules)
	results := make([]hunkResult, len(fc.Hunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for i, h := range fc.Hunks {
		g.Go(func() error {
			findings, comments, err := a.analyzeHunk(gctx, system, fc.Path, h)
			if err != nil {
				slog.ErrorContext(gctx, "hunk analysis failed", "hunk", i, "error", err)
			}
			results[i] = hunkResult{findings, comments, err}
			return nil
		})
	}
	_ = g.Wait()

	out := Outcome{Path: fc.Path, Summary: fmt.Sprintf("Review for %s", fc.Path)}
	var errs []error
	for _, r := range results {
		out.Findings = append(out.Findings, r.findings...)
		out.Comments = append(out.Comments, r.comments...)
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	if len(errs) > 0 && len(errs) == len(fc.Hunks) {
		out.Err = errors.Join(errs...)
		sp.RecordError(out.Err)
	}
	out.Confidence = 1.0
	if len(out.Findings) > 0 {
		out.Confidence = 0.9
	}
	return out
}

func (a *Analyzer) analyzeHunk(ctx context.Context, system, path string, h diff.Hunk) ([]Finding, []Comment, error) {
	resp, err := a.responder.Respond(ctx, providers.Request{
		System:      system,
		Messages:    []providers.Message{{Role: providers.RoleUser, Content: HunkPrompt(path, h)}},
		Tools:       []providers.Tool{a.tool},
		ToolChoice:  providers.Force(AnalysisToolName),
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return nil, nil, err
	}

	var payload HunkAnalysis
	found := false
	for _, tc := range resp.ToolCalls {
		if tc.Name != AnalysisToolName {
			continue
		}
		if err := DecodeArguments(tc.Arguments, &payload); err != nil {
			return nil, nil, err
		}
		found = true
		break
	}
	if !found {
		slog.WarnContext(ctx, "no analysis in response", "file", path)
		return nil, nil, nil
	}

	findings := ApplySeverityOverrides(FindingsFromRecords(path, payload.Issues), a.cfg.Rules)
	var kept []Finding
	var comments []Comment
	for _, f := range findings {
		c, ok := BuildComment(f, h)
		if !ok {
			slog.WarnContext(ctx, "target lines not in hunk", "file", path, "title", f.Title, "targets", f.Targets)
			continue
		}
		kept = append(kept, f)
		comments = append(comments, c)
	}
	return kept, comments, nil
}
