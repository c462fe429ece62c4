package http

import (
	"errors"
	"fmt"
)

// AuthError reports a 401/403 response. It is never retried and is fatal for
// the whole process: continuing would only produce more rejected signed calls.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected (status %d): %s", e.StatusCode, e.Body)
}

// ClientError reports a non-auth 4xx response. Fatal for this call only.
type ClientError struct {
	StatusCode int
	Body       string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("request rejected (status %d): %s", e.StatusCode, e.Body)
}

// ServerError reports a retryable response: 5xx or rate-limit 429.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server unavailable (status %d): %s", e.StatusCode, e.Body)
}

// RetryExhaustedError wraps the last transient failure once the retry bound is hit.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsClientError reports whether err is a non-auth 4xx failure.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsRetryExhausted reports whether err means the transient-retry bound was hit.
func IsRetryExhausted(err error) bool {
	var re *RetryExhaustedError
	return errors.As(err, &re)
}
