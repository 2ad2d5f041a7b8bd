package providers

import (
	"context"
	"fmt"
	"net/http"
)

// Role is the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// Tool is a function the model may call. Parameters is a JSON schema.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolChoice is the tool-calling policy for a request. The zero value lets
// the model decide.
type ToolChoice struct {
	Name string
}

// Auto lets the model choose whether and which tools to call.
func Auto() ToolChoice { return ToolChoice{} }

// Force requires the model to call the named tool.
func Force(name string) ToolChoice { return ToolChoice{Name: name} }

// Forced reports whether a specific tool is required.
func (c ToolChoice) Forced() bool { return c.Name != "" }

// Request contains the data sent to an LLM.
type Request struct {
	System      string
	Messages    []Message
	Tools       []Tool
	ToolChoice  ToolChoice
	MaxTokens   int
	Temperature float64
}

// ToolCall is a tool invocation requested by the model. Arguments is JSON.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Response contains the model's reply.
type Response struct {
	Text         string
	ToolCalls    []ToolCall
	InputTokens  int
	OutputTokens int
}

// Responder is the provider abstraction interface.
type Responder interface {
	Respond(ctx context.Context, req Request) (Response, error)
	Name() string
}

// Options configures a provider. Empty fields fall back to the provider's
// environment variables and defaults.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
}

const (
	defaultMaxTokens  = 4096
	defaultMaxRetries = 3
)

func (o Options) retries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return defaultMaxRetries
}

// New creates a provider by name.
func New(provider, model string, opts Options) (Responder, error) {
	switch provider {
	case "anthropic":
		return NewAnthropic(model, opts)
	case "openai":
		return NewOpenAI(model, opts)
	case "gemini", "google":
		return NewGemini(model, opts)
	case "ollama", "lmstudio":
		return NewOllama(model, opts)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-sonnet-4-20250514"
	case "gemini", "google":
		return "gemini-2.5-pro"
	case "ollama", "lmstudio":
		return "llama3.1"
	default:
		return "gpt-4o"
	}
}

// KeyEnv returns the environment variable holding the provider's API key,
// or "" when none is needed.
func KeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini", "google":
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

func maxTokens(n int) int {
	if n <= 0 {
		return defaultMaxTokens
	}
	return n
}
