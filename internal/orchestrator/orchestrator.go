package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/neura/internal/diff"
	"github.com/dshills/neura/internal/logging"
	"github.com/dshills/neura/internal/redact"
	"github.com/dshills/neura/internal/review"
	"github.com/dshills/neura/internal/source"
)

var (
	// ErrSourceUnavailable wraps failures talking to the code host.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrNoOutcome is returned when every analyzed file failed.
	ErrNoOutcome = errors.New("no file could be analyzed")
)

// Analyzer reviews one file. It reports failure through Outcome.Err.
type Analyzer interface {
	Analyze(ctx context.Context, fc diff.FileChange) review.Outcome
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(ctx context.Context, fc diff.FileChange) review.Outcome

func (f AnalyzerFunc) Analyze(ctx context.Context, fc diff.FileChange) review.Outcome {
	return f(ctx, fc)
}

// AnalyzerFactory builds the analyzer for one change set, typically so
// that context tools read files at cs.HeadRevision.
type AnalyzerFactory func(cs source.ChangeSet) (Analyzer, error)

// Fixed returns a factory that always yields a.
func Fixed(a Analyzer) AnalyzerFactory {
	return func(source.ChangeSet) (Analyzer, error) { return a, nil }
}

// Config controls file selection, fan-out, and aggregation.
type Config struct {
	MaxFilesPerPR      int
	MaxFileChanges     int
	Concurrency        int
	Exclude            []string
	MinConfidence      float64
	MaxCommentsPerFile int
	DryRun             bool
	Redactor           *redact.Redactor
}

func (c *Config) setDefaults() {
	if c.MaxFilesPerPR <= 0 {
		c.MaxFilesPerPR = 50
	}
	if c.MaxFileChanges <= 0 {
		c.MaxFileChanges = 1000
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 5
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = 0.8
	}
	if c.MaxCommentsPerFile <= 0 {
		c.MaxCommentsPerFile = 5
	}
}

// Timing records when a run started and how long it took.
type Timing struct {
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"durationNs"`
}

// FileError names a file whose analysis failed.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Report is the result of a run.
type Report struct {
	RunID     string           `json:"runId"`
	Repo      string           `json:"repo"`
	Change    source.ChangeRef `json:"change"`
	Title     string           `json:"title,omitempty"`
	Result    review.Result    `json:"result"`
	Outcomes  []review.Outcome `json:"outcomes"`
	Skipped   []Skip           `json:"skipped,omitempty"`
	Failed    []FileError      `json:"failed,omitempty"`
	Published bool             `json:"published"`
	DryRun    bool             `json:"dryRun"`
	Timing    Timing           `json:"timing"`
}

// Orchestrator reviews change sets from one source.
type Orchestrator struct {
	src   source.Provider
	build AnalyzerFactory
	cfg   Config
}

// New returns an orchestrator.
func New(src source.Provider, build AnalyzerFactory, cfg Config) *Orchestrator {
	cfg.setDefaults()
	return &Orchestrator{src: src, build: build, cfg: cfg}
}

// Run reviews the change identified by ref and, unless configured for a
// dry run, publishes the result. The report is returned even when err is
// ErrNoOutcome.
func (o *Orchestrator) Run(ctx context.Context, ref source.ChangeRef) (*Report, error) {
	report := o.newReport(ref)
	ctx = logging.WithFields(ctx, logging.Fields{RunID: report.RunID, Component: "orchestrator"})
	sp := logging.StartSpan(ctx, "orchestrator.run",
		attribute.String("change", ref.String()),
		attribute.String("run_id", report.RunID),
	)
	defer sp.End()
	ctx = sp.Context()
	defer func() { report.Timing.Duration = time.Since(report.Timing.Started) }()

	cs, err := o.fetch(ctx, ref)
	if err != nil {
		sp.RecordError(err)
		return nil, err
	}
	report.Title = cs.Title

	files, skipped := selectFiles(cs.Files, o.cfg)
	report.Skipped = skipped
	for _, s := range skipped {
		slog.InfoContext(ctx, "skipping file", "path", s.Path, "reason", s.Reason)
	}
	slog.InfoContext(ctx, "reviewing change", "change", ref.String(), "files", len(files), "skipped", len(skipped))

	analyzer, err := o.build(cs)
	if err != nil {
		sp.RecordError(err)
		return nil, fmt.Errorf("building analyzer: %w", err)
	}
	o.analyze(ctx, analyzer, files, report)
	if len(files) > 0 && len(report.Failed) == len(files) {
		sp.RecordError(ErrNoOutcome)
		return report, ErrNoOutcome
	}

	if o.cfg.DryRun {
		return report, nil
	}
	if err := o.src.PublishReview(ctx, ref, report.Result.Summary, report.Result.Comments); err != nil {
		sp.RecordError(err)
		return report, fmt.Errorf("%w: publishing review: %w", ErrSourceUnavailable, err)
	}
	report.Published = true
	return report, nil
}

// AnalyzeFile reviews a single file of the change without applying the
// skip rules. Nothing is published.
func (o *Orchestrator) AnalyzeFile(ctx context.Context, ref source.ChangeRef, path string) (*Report, error) {
	report := o.newReport(ref)
	report.DryRun = true
	ctx = logging.WithFields(ctx, logging.Fields{RunID: report.RunID, Component: "orchestrator"})
	defer func() { report.Timing.Duration = time.Since(report.Timing.Started) }()

	cs, err := o.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	report.Title = cs.Title
	for _, fc := range cs.Files {
		if fc.Path != path {
			continue
		}
		analyzer, err := o.build(cs)
		if err != nil {
			return nil, fmt.Errorf("building analyzer: %w", err)
		}
		o.analyze(ctx, analyzer, []diff.FileChange{fc}, report)
		if len(report.Failed) == 1 {
			return report, fmt.Errorf("%w: %s", ErrNoOutcome, report.Failed[0].Error)
		}
		return report, nil
	}
	return nil, fmt.Errorf("file %s is not part of %s", path, ref)
}

func (o *Orchestrator) newReport(ref source.ChangeRef) *Report {
	return &Report{
		RunID:  uuid.NewString(),
		Repo:   ref.Repo,
		Change: ref,
		DryRun: o.cfg.DryRun,
		Timing: Timing{Started: time.Now()},
	}
}

func (o *Orchestrator) fetch(ctx context.Context, ref source.ChangeRef) (source.ChangeSet, error) {
	if err := o.src.ValidateConnection(ctx); err != nil {
		return source.ChangeSet{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	cs, err := o.src.FetchChangeSet(ctx, ref)
	if err != nil {
		return source.ChangeSet{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return cs, nil
}

// analyze reviews files concurrently and fills the report's outcomes,
// failures, and aggregated result. Outcomes keep file order.
func (o *Orchestrator) analyze(ctx context.Context, analyzer Analyzer, files []diff.FileChange, report *Report) {
	outcomes := make([]review.Outcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for i, fc := range files {
		g.Go(func() error {
			fctx := logging.WithFields(gctx, logging.Fields{File: fc.Path})
			start := time.Now()
			out := analyzer.Analyze(fctx, redactFile(fc, o.cfg.Redactor))
			out.Path = fc.Path
			outcomes[i] = out
			if out.Err != nil {
				slog.WarnContext(fctx, "file analysis failed", "error", out.Err, "elapsed", time.Since(start))
			} else {
				slog.InfoContext(fctx, "file analyzed", "findings", len(out.Findings), "comments", len(out.Comments),
					"confidence", out.Confidence, "elapsed", time.Since(start))
			}
			return nil
		})
	}
	_ = g.Wait()

	var ok []review.Outcome
	for _, out := range outcomes {
		if out.Err != nil {
			report.Failed = append(report.Failed, FileError{Path: out.Path, Error: out.Err.Error()})
			continue
		}
		ok = append(ok, out)
	}
	report.Outcomes = outcomes
	report.Result = review.Aggregate(ok, review.AggregateOptions{
		MinConfidence: o.cfg.MinConfidence,
		MaxPerFile:    o.cfg.MaxCommentsPerFile,
	})
}
