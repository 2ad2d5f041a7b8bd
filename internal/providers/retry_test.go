package providers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryWithBackoff_Success(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 3, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("err = %v, calls = %d; want nil, 1", err, calls)
	}
}

func TestRetryWithBackoff_NonRetryable(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 3, func() error {
		calls++
		return errors.New("boom")
	})
	if err == nil || calls != 1 {
		t.Errorf("err = %v, calls = %d; want error after 1 call", err, calls)
	}
}

func TestRetryWithBackoff_Exhausted(t *testing.T) {
	backoffBase = time.Millisecond
	defer func() { backoffBase = time.Second }()

	calls := 0
	err := retryWithBackoff(context.Background(), 2, func() error {
		calls++
		return &rateLimitError{err: errors.New("429")}
	})
	if !IsRateLimited(err) {
		t.Errorf("expected rate limit error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retryWithBackoff(ctx, 3, func() error {
		return &rateLimitError{err: errors.New("429")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestClassifyStatus(t *testing.T) {
	base := errors.New("api")
	if !IsAuthError(classifyStatus("x", 401, base)) {
		t.Error("401 should be an auth error")
	}
	if !IsAuthError(classifyStatus("x", 403, base)) {
		t.Error("403 should be an auth error")
	}
	if !IsRateLimited(classifyStatus("x", 429, base)) {
		t.Error("429 should be rate limited")
	}
	err := classifyStatus("x", 500, base)
	if IsAuthError(err) || IsRateLimited(err) || !errors.Is(err, base) {
		t.Errorf("500 should wrap the original error, got %v", err)
	}
}

type schemaArgs struct {
	Query string `json:"query" jsonschema:"required,description=What to look for"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Max results"`
}

func TestSchemaFrom(t *testing.T) {
	s := SchemaFrom(schemaArgs{})
	if s["type"] != "object" {
		t.Errorf("type = %v, want object", s["type"])
	}
	props, _ := s["properties"].(map[string]any)
	if _, ok := props["query"]; !ok {
		t.Errorf("properties = %v, want query", props)
	}
	req := schemaRequired(s)
	if len(req) != 1 || req[0] != "query" {
		t.Errorf("required = %v, want [query]", req)
	}
	if _, ok := s["$schema"]; ok {
		t.Error("$schema should be stripped")
	}
}
