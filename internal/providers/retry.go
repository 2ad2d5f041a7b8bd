package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

type rateLimitError struct {
	err error
}

func (e *rateLimitError) Error() string { return "rate limited: " + e.err.Error() }
func (e *rateLimitError) Unwrap() error { return e.err }

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

// IsRateLimited checks if an error is a rate-limit error.
func IsRateLimited(err error) bool {
	var rl *rateLimitError
	return errors.As(err, &rl)
}

// classifyStatus maps an SDK error with an HTTP status onto the retry
// taxonomy.
func classifyStatus(provider string, status int, err error) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &authError{message: fmt.Sprintf("%s returned %d", provider, status)}
	case http.StatusTooManyRequests:
		return &rateLimitError{err: err}
	default:
		return fmt.Errorf("%s request: %w", provider, err)
	}
}

// backoffBase is the first retry delay; it doubles on each attempt.
var backoffBase = time.Second

func retryWithBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		// Only retry rate limit errors
		if !IsRateLimited(lastErr) {
			return lastErr
		}

		if attempt < maxRetries {
			backoff := backoffBase * time.Duration(1<<uint(attempt))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
