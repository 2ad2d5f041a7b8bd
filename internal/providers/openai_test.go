package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const openAIToolCallResponse = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "gpt-4o",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": "looking",
      "tool_calls": [{
        "id": "call_1",
        "type": "function",
        "function": {"name": "get_file_content", "arguments": "{\"file_path\":\"a.go\"}"}
      }]
    }
  }],
  "usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

func TestOpenAI_Respond(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Missing or wrong Authorization header")
		}
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &body); err != nil {
			t.Errorf("request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(openAIToolCallResponse))
	}))
	defer server.Close()

	o, err := NewOpenAI("gpt-4o", Options{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewOpenAI error: %v", err)
	}
	resp, err := o.Respond(context.Background(), Request{
		System:     "sys",
		Messages:   []Message{{Role: RoleUser, Content: "hello"}},
		Tools:      []Tool{{Name: "get_file_content", Description: "read", Parameters: map[string]any{"type": "object"}}},
		ToolChoice: Force("get_file_content"),
		MaxTokens:  100,
	})
	if err != nil {
		t.Fatalf("Respond error: %v", err)
	}
	if resp.Text != "looking" {
		t.Errorf("Text = %q, want %q", resp.Text, "looking")
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("got %d tool calls, want 1", len(resp.ToolCalls))
	}
	tc := resp.ToolCalls[0]
	if tc.ID != "call_1" || tc.Name != "get_file_content" || tc.Arguments != `{"file_path":"a.go"}` {
		t.Errorf("tool call = %+v", tc)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 5 {
		t.Errorf("tokens = %d/%d, want 12/5", resp.InputTokens, resp.OutputTokens)
	}

	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("sent %d messages, want 2 (system + user)", len(msgs))
	}
	if first, _ := msgs[0].(map[string]any); first["role"] != "system" {
		t.Errorf("first message role = %v, want system", first["role"])
	}
	choice, _ := body["tool_choice"].(map[string]any)
	fn, _ := choice["function"].(map[string]any)
	if fn["name"] != "get_file_content" {
		t.Errorf("tool_choice = %v, want forced get_file_content", body["tool_choice"])
	}
}

func TestOpenAI_AutoToolChoice(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(openAIToolCallResponse))
	}))
	defer server.Close()

	o, _ := NewOpenAI("gpt-4o", Options{APIKey: "k", BaseURL: server.URL})
	_, err := o.Respond(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Tools:    []Tool{{Name: "x", Parameters: map[string]any{"type": "object"}}},
	})
	if err != nil {
		t.Fatalf("Respond error: %v", err)
	}
	if body["tool_choice"] != "auto" {
		t.Errorf("tool_choice = %v, want auto", body["tool_choice"])
	}
}

func TestOpenAI_RateLimit(t *testing.T) {
	backoffBase = time.Millisecond
	defer func() { backoffBase = time.Second }()

	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "application/json")
		if attempts <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
			return
		}
		w.Write([]byte(openAIToolCallResponse))
	}))
	defer server.Close()

	o, _ := NewOpenAI("gpt-4o", Options{APIKey: "k", BaseURL: server.URL})
	if _, err := o.Respond(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}}); err != nil {
		t.Fatalf("Respond error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestOpenAI_AuthError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	o, _ := NewOpenAI("gpt-4o", Options{APIKey: "bad", BaseURL: server.URL})
	_, err := o.Respond(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	if !IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (auth errors are not retried)", attempts)
	}
}

func TestOpenAI_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	o, _ := NewOpenAI("gpt-4o", Options{APIKey: "k", BaseURL: server.URL})
	_, err := o.Respond(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Errorf("expected no choices error, got %v", err)
	}
}

func TestNewOpenAI_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewOpenAI("gpt-4o", Options{}); err == nil {
		t.Error("expected error when no API key is available")
	}
}
