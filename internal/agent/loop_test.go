package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/neura/internal/diff"
	"github.com/dshills/neura/internal/providers"
	"github.com/dshills/neura/internal/review"
)

type scriptedResponder struct {
	requests []providers.Request
	script   []providers.Response
	err      error
}

func (s *scriptedResponder) Respond(_ context.Context, req providers.Request) (providers.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return providers.Response{}, s.err
	}
	if len(s.script) == 0 {
		return providers.Response{ToolCalls: []providers.ToolCall{{Name: "lookup", Arguments: `{"q":"x"}`}}}, nil
	}
	resp := s.script[0]
	s.script = s.script[1:]
	return resp, nil
}

func (s *scriptedResponder) Name() string { return "scripted" }

type stubHandler struct {
	name  string
	calls int
	err   error
}

func (h *stubHandler) Name() string           { return h.name }
func (h *stubHandler) Description() string    { return "stub" }
func (h *stubHandler) Schema() map[string]any { return map[string]any{"type": "object"} }
func (h *stubHandler) Call(_ context.Context, args map[string]any) (map[string]any, error) {
	h.calls++
	if h.err != nil {
		return nil, h.err
	}
	return map[string]any{"success": true, "echo": args["q"]}, nil
}

func testFile() diff.FileChange {
	return diff.FileChange{
		Path:      "svc/handler.go",
		Status:    diff.StatusModified,
		Additions: 2,
		Deletions: 1,
		Hunks: []diff.Hunk{{
			OldStart: 20, OldCount: 2, NewStart: 10, NewCount: 3,
			Header: "@@ -20,2 +10,3 @@",
			Lines: []diff.Line{
				{Kind: diff.Context, Text: "func h() {", OldNumber: 20, NewNumber: 10},
				{Kind: diff.Removed, Text: "\treturn", OldNumber: 21},
				{Kind: diff.Added, Text: "\tx := f()", NewNumber: 11},
				{Kind: diff.Added, Text: "\treturn x", NewNumber: 12},
			},
		}},
	}
}

func newTestLoop(t *testing.T, r providers.Responder, h *stubHandler, cfg Config) *Loop {
	t.Helper()
	l, err := NewLoop(r, func(diff.FileChange) []Handler { return []Handler{h} }, cfg)
	if err != nil {
		t.Fatalf("NewLoop error: %v", err)
	}
	return l
}

func toolNames(tools []providers.Tool) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
}

func TestLoop_ExhaustionFallsBack(t *testing.T) {
	r := &scriptedResponder{}
	h := &stubHandler{name: "lookup"}
	l := newTestLoop(t, r, h, Config{MaxIterations: 2})

	out := l.Run(context.Background(), testFile())

	if len(r.requests) != 2 {
		t.Errorf("model called %d times, want 2", len(r.requests))
	}
	if out.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", out.Confidence)
	}
	if len(out.Findings) != 0 || len(out.Comments) != 0 {
		t.Errorf("fallback outcome has findings: %+v", out.Findings)
	}
	want := "Automated review of svc/handler.go. Gathered context from 2 tool calls"
	if out.Summary != want {
		t.Errorf("Summary = %q, want %q", out.Summary, want)
	}
	if len(out.Context) != 2 || h.calls != 2 {
		t.Errorf("context records = %d, handler calls = %d; want 2, 2", len(out.Context), h.calls)
	}
}

func TestLoop_Finalize(t *testing.T) {
	r := &scriptedResponder{script: []providers.Response{
		{ToolCalls: []providers.ToolCall{{ID: "1", Name: "lookup", Arguments: `{"q":"caller"}`}}},
		{ToolCalls: []providers.ToolCall{{ID: "2", Name: review.AnalysisToolName, Arguments: `{
			"issues": [
				{"title": "Ignored error", "description": "f can fail", "severity": "high", "change_type": "error_handling", "target_lines": [11, 12], "suggestion": null},
				{"title": "Off diff", "description": "d", "severity": "low", "change_type": "bug", "target_lines": [400], "suggestion": null},
				{"title": "No lines", "description": "d", "severity": "low", "change_type": "bug", "target_lines": [], "suggestion": null}
			],
			"overall_assessment": "Mostly fine.",
			"context_summary": "Checked the caller."
		}`}}},
	}}
	h := &stubHandler{name: "lookup"}
	out := newTestLoop(t, r, h, Config{}).Run(context.Background(), testFile())

	if out.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95", out.Confidence)
	}
	if out.Summary != "Mostly fine.\n\n**Context Analysis:** Checked the caller." {
		t.Errorf("Summary = %q", out.Summary)
	}
	if len(out.Findings) != 1 || out.Findings[0].Title != "Ignored error" {
		t.Fatalf("Findings = %+v, want only the placeable finding", out.Findings)
	}
	if len(out.Comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(out.Comments))
	}
	c := out.Comments[0]
	if c.StartLine != 11 || c.Line != 12 || c.Side != review.SideRight {
		t.Errorf("comment = %d-%d %s, want 11-12 RIGHT", c.StartLine, c.Line, c.Side)
	}

	if got := toolNames(r.requests[0].Tools); len(got) != 1 {
		t.Errorf("first iteration tools = %v, want context tools only", got)
	}
	second := toolNames(r.requests[1].Tools)
	if second[len(second)-1] != review.AnalysisToolName {
		t.Errorf("second iteration tools = %v, want %s offered", second, review.AnalysisToolName)
	}
	if r.requests[1].ToolChoice.Forced() {
		t.Error("tool choice should be auto")
	}

	msgs := r.requests[1].Messages
	if len(msgs) != 3 {
		t.Fatalf("second request has %d messages, want 3", len(msgs))
	}
	if msgs[1].Role != providers.RoleAssistant || msgs[1].Content != `I'm calling lookup with arguments: {"q":"caller"}` {
		t.Errorf("call message = %+v", msgs[1])
	}
	if msgs[2].Role != providers.RoleUser || msgs[2].Content != `Result: {"echo":"caller","success":true}` {
		t.Errorf("result message = %+v", msgs[2])
	}
}

func TestLoop_FinalizeIgnoresLaterCalls(t *testing.T) {
	r := &scriptedResponder{script: []providers.Response{
		{ToolCalls: []providers.ToolCall{
			{Name: review.AnalysisToolName, Arguments: `{"issues": [], "overall_assessment": "", "context_summary": ""}`},
			{Name: "lookup", Arguments: `{}`},
		}},
	}}
	h := &stubHandler{name: "lookup"}
	out := newTestLoop(t, r, h, Config{}).Run(context.Background(), testFile())
	if h.calls != 0 {
		t.Errorf("handler called %d times, want 0", h.calls)
	}
	if out.Summary != "Review for svc/handler.go" {
		t.Errorf("Summary = %q, want default", out.Summary)
	}
	if out.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95", out.Confidence)
	}
}

func TestLoop_SteersWhenNoAction(t *testing.T) {
	r := &scriptedResponder{script: []providers.Response{
		{Text: "I think this looks fine."},
		{},
	}}
	h := &stubHandler{name: "lookup"}
	newTestLoop(t, r, h, Config{MaxIterations: 3}).Run(context.Background(), testFile())

	msgs := r.requests[1].Messages
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[1].Content != "I think this looks fine." || msgs[2].Content != steerNoAction {
		t.Errorf("messages = %+v", msgs[1:])
	}
	msgs = r.requests[2].Messages
	if len(msgs) != 4 || msgs[3].Content != steerNoAction {
		t.Errorf("empty response should still be steered, got %+v", msgs)
	}
}

func TestLoop_ToolCallCap(t *testing.T) {
	calls := make([]providers.ToolCall, 5)
	for i := range calls {
		calls[i] = providers.ToolCall{Name: "lookup", Arguments: `{}`}
	}
	r := &scriptedResponder{script: []providers.Response{{ToolCalls: calls}}}
	h := &stubHandler{name: "lookup"}
	out := newTestLoop(t, r, h, Config{MaxIterations: 1, MaxToolCallsPerIteration: 3}).Run(context.Background(), testFile())

	if h.calls != 3 {
		t.Errorf("handler called %d times, want 3", h.calls)
	}
	if len(out.Context) != 3 {
		t.Errorf("context records = %d, want 3", len(out.Context))
	}
}

func TestLoop_UnknownToolAndHandlerError(t *testing.T) {
	r := &scriptedResponder{script: []providers.Response{
		{ToolCalls: []providers.ToolCall{
			{Name: "nope", Arguments: `{}`},
			{Name: "lookup", Arguments: `{"q": 1}`},
		}},
	}}
	h := &stubHandler{name: "lookup", err: errors.New("disk on fire")}
	out := newTestLoop(t, r, h, Config{MaxIterations: 1}).Run(context.Background(), testFile())

	if len(out.Context) != 2 {
		t.Fatalf("context records = %d, want 2", len(out.Context))
	}
	if out.Context[0].Result["error"] != "Unknown function: nope" {
		t.Errorf("unknown tool result = %v", out.Context[0].Result)
	}
	if out.Context[1].Result["success"] != false || out.Context[1].Result["error"] != "disk on fire" {
		t.Errorf("handler error result = %v", out.Context[1].Result)
	}
}

func TestLoop_ResponderError(t *testing.T) {
	r := &scriptedResponder{err: errors.New("unavailable")}
	out := newTestLoop(t, r, &stubHandler{name: "lookup"}, Config{}).Run(context.Background(), testFile())
	if len(r.requests) != 1 {
		t.Errorf("model called %d times, want 1", len(r.requests))
	}
	if out.Summary != "Automated review of svc/handler.go. Limited context analysis" {
		t.Errorf("Summary = %q", out.Summary)
	}
	if out.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", out.Confidence)
	}
	if out.Err == nil || !strings.Contains(out.Err.Error(), "unavailable") {
		t.Errorf("Err = %v, want the model error", out.Err)
	}
}

func TestLoop_ExhaustionIsNotAnError(t *testing.T) {
	r := &scriptedResponder{}
	out := newTestLoop(t, r, &stubHandler{name: "lookup"}, Config{MaxIterations: 2}).Run(context.Background(), testFile())
	if out.Err != nil {
		t.Errorf("Err = %v, want nil when iterations run out", out.Err)
	}
}

func TestLoop_InvalidPayloadFallsBack(t *testing.T) {
	r := &scriptedResponder{script: []providers.Response{
		{ToolCalls: []providers.ToolCall{{Name: review.AnalysisToolName, Arguments: `not json at all`}}},
	}}
	out := newTestLoop(t, r, &stubHandler{name: "lookup"}, Config{}).Run(context.Background(), testFile())
	if out.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", out.Confidence)
	}
	if out.Err != nil {
		t.Errorf("Err = %v, want nil for an unreadable analysis", out.Err)
	}
}

func TestInitialPrompt(t *testing.T) {
	p := InitialPrompt(testFile())
	for _, want := range []string{
		"Please analyze the following code changes in file: svc/handler.go",
		"File Status: modified\nAdditions: +2\nDeletions: -1",
		"Changes:\n" + strings.Repeat("=", 80) + "\nHunk 1:\n@@ -20,2 +10,3 @@\n   10: func h() {\n-  21: \treturn\n+  11: \tx := f()",
		"5. Do I need to understand how these changes integrate with the broader codebase?",
		"create_review_analysis.",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}
