package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAI implements the Responder interface for OpenAI's chat completions
// API and compatible servers.
type OpenAI struct {
	name    string
	model   string
	retries int
	client  openai.Client
}

// NewOpenAI creates a new OpenAI provider.
func NewOpenAI(model string, opts Options) (*OpenAI, error) {
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = os.Getenv("NEURA_OPENAI_BASE_URL")
	}
	return newOpenAICompatible("openai", model, opts), nil
}

func newOpenAICompatible(name, model string, opts Options) *OpenAI {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	return &OpenAI{
		name:    name,
		model:   model,
		retries: opts.retries(),
		client:  openai.NewClient(reqOpts...),
	}
}

func (o *OpenAI) Name() string { return o.name }

func (o *OpenAI) Respond(ctx context.Context, req Request) (Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:               o.model,
		Messages:            o.convertMessages(req),
		MaxCompletionTokens: openai.Int(int64(maxTokens(req.MaxTokens))),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if len(req.Tools) > 0 {
		params.Tools = o.convertTools(req.Tools)
		if req.ToolChoice.Forced() {
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
					Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: req.ToolChoice.Name},
				},
			}
		} else {
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("auto")}
		}
	}

	var resp *openai.ChatCompletion
	start := time.Now()
	err := retryWithBackoff(ctx, o.retries, func() error {
		r, err := o.client.Chat.Completions.New(ctx, params)
		if err != nil {
			var apiErr *openai.Error
			if errors.As(err, &apiErr) {
				return classifyStatus(o.name, apiErr.StatusCode, err)
			}
			return fmt.Errorf("%s request: %w", o.name, err)
		}
		resp = r
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("no choices in %s response", o.name)
	}

	slog.DebugContext(ctx, "chat completed",
		"provider", o.name,
		"model", o.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	msg := resp.Choices[0].Message
	out := Response{
		Text:         msg.Content,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func (o *OpenAI) convertMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return msgs
}

func (o *OpenAI) convertTools(tools []Tool) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		out[i] = openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  shared.FunctionParameters(t.Parameters),
			},
		}
	}
	return out
}
