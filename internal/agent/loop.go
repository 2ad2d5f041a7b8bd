package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dshills/neura/internal/diff"
	"github.com/dshills/neura/internal/logging"
	"github.com/dshills/neura/internal/providers"
	"github.com/dshills/neura/internal/review"
)

const (
	DefaultMaxIterations            = 5
	DefaultMaxToolCallsPerIteration = 3

	finalConfidence    = 0.95
	fallbackConfidence = 0.5
)

// Config bounds a review session.
type Config struct {
	MaxIterations            int
	MaxToolCallsPerIteration int
	MaxTokens                int
	Temperature              float64
	Rules                    *review.Rules
}

// Toolset returns the context tools for one file's session. It is called
// once per file so each session gets its own state.
type Toolset func(fc diff.FileChange) []Handler

// Loop reviews files by letting the model gather context before it submits
// an analysis.
type Loop struct {
	responder providers.Responder
	toolset   Toolset
	cfg       Config
	system    string
	finalize  providers.Tool
}

// NewLoop returns a loop backed by r. The toolset is validated once here.
func NewLoop(r providers.Responder, toolset Toolset, cfg Config) (*Loop, error) {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.MaxToolCallsPerIteration <= 0 {
		cfg.MaxToolCallsPerIteration = DefaultMaxToolCallsPerIteration
	}
	if _, err := NewRegistry(toolset(diff.FileChange{})...); err != nil {
		return nil, err
	}
	return &Loop{
		responder: r,
		toolset:   toolset,
		cfg:       cfg,
		system:    review.AgenticSystemPrompt(cfg.Rules),
		finalize: providers.Tool{
			Name:        review.AnalysisToolName,
			Description: "Create the final structured code review analysis after gathering all necessary context. Call this when you have sufficient information to provide a comprehensive review.",
			Parameters:  providers.SchemaFrom(review.FileAnalysis{}),
		},
	}, nil
}

// Run reviews fc. It always returns an outcome: when the model never
// submits an analysis the outcome has no findings and a low confidence.
// Outcome.Err is set when the session ended because a model call failed.
func (l *Loop) Run(ctx context.Context, fc diff.FileChange) review.Outcome {
	sp := logging.StartSpan(ctx, "agent.run", attribute.String("file", fc.Path))
	defer sp.End()
	ctx = logging.WithFields(sp.Context(), logging.Fields{File: fc.Path, Component: "agent"})

	reg, err := NewRegistry(l.toolset(fc)...)
	if err != nil {
		sp.RecordError(err)
		out := fallback(fc, 0)
		out.Err = err
		return out
	}

	s := &session{
		loop:     l,
		file:     fc,
		registry: reg,
		messages: []providers.Message{{Role: providers.RoleUser, Content: InitialPrompt(fc)}},
	}
	out, done := s.run(ctx)
	if !done {
		slog.WarnContext(ctx, "no analysis submitted, using fallback",
			"max_iterations", l.cfg.MaxIterations,
			"context_calls", len(s.records))
		out = fallback(fc, len(s.records))
		if s.err != nil {
			out.Err = fmt.Errorf("reviewing %s: %w", fc.Path, s.err)
			sp.RecordError(s.err)
		}
	}
	out.Context = s.records
	sp.SetAttributes(
		attribute.Int("iterations", s.iterations),
		attribute.Int("context_calls", len(s.records)),
		attribute.Bool("finalized", done))
	return out
}

type session struct {
	loop       *Loop
	file       diff.FileChange
	registry   *Registry
	messages   []providers.Message
	records    []review.ContextRecord
	iterations int
	// err is the model error that ended the session, if any.
	err error
}

func (s *session) run(ctx context.Context) (review.Outcome, bool) {
	cfg := s.loop.cfg
	for i := 1; i <= cfg.MaxIterations; i++ {
		s.iterations = i
		ictx := logging.WithFields(ctx, logging.Fields{Iteration: logging.Ptr(i)})

		tools := s.registry.Tools()
		if i > 1 {
			tools = append(tools, s.loop.finalize)
		}
		resp, err := s.respond(ictx, tools)
		if err != nil {
			slog.ErrorContext(ictx, "model call failed", "error", err)
			s.err = err
			return review.Outcome{}, false
		}

		if len(resp.ToolCalls) == 0 {
			if resp.Text != "" {
				s.say(providers.RoleAssistant, resp.Text)
			}
			s.say(providers.RoleUser, steerNoAction)
			continue
		}

		executed := 0
		for _, call := range resp.ToolCalls {
			if call.Name == review.AnalysisToolName {
				out, err := s.finish(ictx, call.Arguments)
				if err != nil {
					slog.ErrorContext(ictx, "invalid analysis payload", "error", err)
					return review.Outcome{}, false
				}
				return out, true
			}
			if executed >= cfg.MaxToolCallsPerIteration {
				slog.WarnContext(ictx, "tool call cap reached, dropping call",
					"tool", call.Name,
					"max", cfg.MaxToolCallsPerIteration)
				continue
			}
			s.execute(ictx, call)
			executed++
		}

		if executed == 0 {
			s.say(providers.RoleUser, steerNoCalls)
		}
	}
	return review.Outcome{}, false
}

func (s *session) respond(ctx context.Context, tools []providers.Tool) (providers.Response, error) {
	sp := logging.StartSpan(ctx, "agent.respond", attribute.Int("messages", len(s.messages)))
	defer sp.End()
	resp, err := s.loop.responder.Respond(sp.Context(), providers.Request{
		System:      s.loop.system,
		Messages:    s.messages,
		Tools:       tools,
		ToolChoice:  providers.Auto(),
		MaxTokens:   s.loop.cfg.MaxTokens,
		Temperature: s.loop.cfg.Temperature,
	})
	sp.RecordError(err)
	return resp, err
}

func (s *session) execute(ctx context.Context, call providers.ToolCall) {
	sp := logging.StartSpan(ctx, "agent.tool_call", attribute.String("tool", call.Name))
	defer sp.End()
	ctx = sp.Context()

	args := map[string]any{}
	var result map[string]any
	if call.Arguments != "" {
		if err := review.DecodeArguments(call.Arguments, &args); err != nil {
			result = failure(fmt.Sprintf("invalid arguments: %v", err))
		}
	}
	if result == nil {
		result = s.registry.Dispatch(ctx, call.Name, args)
	}
	if ok, _ := result["success"].(bool); !ok {
		slog.DebugContext(ctx, "tool call failed", "tool", call.Name, "error", result["error"])
	}

	s.records = append(s.records, review.ContextRecord{Tool: call.Name, Args: args, Result: result})
	s.say(providers.RoleAssistant, fmt.Sprintf("I'm calling %s with arguments: %s", call.Name, mustJSON(args)))
	s.say(providers.RoleUser, "Result: "+mustJSON(result))
}

func (s *session) finish(ctx context.Context, arguments string) (review.Outcome, error) {
	var payload review.FileAnalysis
	if err := review.DecodeArguments(arguments, &payload); err != nil {
		return review.Outcome{}, err
	}

	fc := s.file
	findings := review.ApplySeverityOverrides(review.FindingsFromRecords(fc.Path, payload.Issues), s.loop.cfg.Rules)
	placed, comments, dropped := review.BuildComments(findings, fc)
	for _, f := range dropped {
		slog.WarnContext(ctx, "target lines not in diff", "title", f.Title, "targets", f.Targets)
	}

	summary := payload.OverallAssessment
	if summary == "" {
		summary = fmt.Sprintf("Review for %s", fc.Path)
	}
	if payload.ContextSummary != "" {
		summary += "\n\n**Context Analysis:** " + payload.ContextSummary
	}
	return review.Outcome{
		Path:       fc.Path,
		Summary:    summary,
		Findings:   placed,
		Comments:   comments,
		Confidence: finalConfidence,
	}, nil
}

func (s *session) say(role providers.Role, content string) {
	s.messages = append(s.messages, providers.Message{Role: role, Content: content})
}

func fallback(fc diff.FileChange, calls int) review.Outcome {
	note := "Limited context analysis"
	if calls > 0 {
		note = fmt.Sprintf("Gathered context from %d tool calls", calls)
	}
	return review.Outcome{
		Path:       fc.Path,
		Summary:    fmt.Sprintf("Automated review of %s. %s", fc.Path, note),
		Confidence: fallbackConfidence,
	}
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
