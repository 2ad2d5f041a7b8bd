package providers

import (
	"os"
	"strings"
)

const defaultOllamaURL = "http://localhost:11434"

// NewOllama creates a provider for Ollama and LM Studio through their
// OpenAI-compatible endpoint. No API key is required by default.
func NewOllama(model string, opts Options) (*OpenAI, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	opts.BaseURL = normalizeOllamaURL(baseURL)

	// Optional API key for servers that require it (e.g., LM Studio)
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("NEURA_OLLAMA_API_KEY")
	}
	if opts.APIKey == "" {
		opts.APIKey = "ollama"
	}
	return newOpenAICompatible("ollama", model, opts), nil
}

// normalizeOllamaURL accepts a host, a /v1 base, or a full completions URL
// and returns the /v1/ base the SDK expects.
func normalizeOllamaURL(u string) string {
	u = strings.TrimRight(u, "/")
	u = strings.TrimSuffix(u, "/v1/chat/completions")
	u = strings.TrimSuffix(u, "/v1")
	return u + "/v1/"
}
