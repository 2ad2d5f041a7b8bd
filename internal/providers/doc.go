// Package providers implements the Responder interface for each supported
// LLM provider.
//
// Supported providers: OpenAI (GPT), Anthropic (Claude), Google (Gemini), and
// Ollama / LM Studio through their OpenAI-compatible endpoint. Each wraps the
// vendor SDK, translating a provider-neutral conversation, tool set, and tool
// choice policy into the vendor request and tool calls back out.
//
// All providers share a retry helper with exponential back-off on rate
// limits. SDK-internal retries are disabled so that policy lives in one
// place. Base URLs and HTTP clients are injectable so tests can point a
// provider at an httptest server.
//
// Use [New] to obtain a Responder by provider name and model string.
package providers
