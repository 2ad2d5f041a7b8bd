package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// Gemini implements the Responder interface for Google's Gemini API.
type Gemini struct {
	model   string
	retries int
	client  *genai.Client
}

// NewGemini creates a new Gemini provider.
func NewGemini(model string, opts Options) (*Gemini, error) {
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY or GOOGLE_API_KEY environment variable is not set")
	}
	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{model: model, retries: opts.retries(), client: client}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Respond(ctx context.Context, req Request) (Response, error) {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens(req.MaxTokens)),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, len(req.Tools))
		for i, t := range req.Tools {
			decls[i] = &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: t.Parameters,
			}
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		mode := &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAuto}
		if req.ToolChoice.Forced() {
			mode = &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingConfigModeAny,
				AllowedFunctionNames: []string{req.ToolChoice.Name},
			}
		}
		cfg.ToolConfig = &genai.ToolConfig{FunctionCallingConfig: mode}
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	var resp *genai.GenerateContentResponse
	start := time.Now()
	err := retryWithBackoff(ctx, g.retries, func() error {
		r, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
		if err != nil {
			var apiErr genai.APIError
			if errors.As(err, &apiErr) {
				return classifyStatus("gemini", apiErr.Code, err)
			}
			return fmt.Errorf("gemini request: %w", err)
		}
		resp = r
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	if len(resp.Candidates) == 0 {
		return Response{}, fmt.Errorf("no candidates in gemini response")
	}

	slog.DebugContext(ctx, "chat completed",
		"provider", "gemini",
		"model", g.model,
		"duration_ms", time.Since(start).Milliseconds())

	out := Response{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	for _, fc := range resp.FunctionCalls() {
		args, err := json.Marshal(fc.Args)
		if err != nil {
			return Response{}, fmt.Errorf("encoding gemini function args: %w", err)
		}
		id := fc.ID
		if id == "" {
			id = uuid.NewString()
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{ID: id, Name: fc.Name, Arguments: string(args)})
	}
	return out, nil
}
