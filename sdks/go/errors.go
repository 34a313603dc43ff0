package paapigate

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrUnauthorized is returned when the server rejects the API key.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited is returned when the server keeps rejecting requests
	// after all retries.
	ErrRateLimited = errors.New("rate limited")

	// ErrServerUnreachable is returned when the paapi-gate server cannot be contacted.
	ErrServerUnreachable = errors.New("server unreachable")
)

// Error is returned for non-2xx responses.
type Error struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Message is the server's error message, or the raw body when the body
	// is not an error object.
	Message string
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("paapigate [HTTP_%d]: %s", e.StatusCode, e.Message)
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrUnauthorized).
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == 401
}

// RateLimitedError is returned when the server answers 429 and no retries
// remain.
type RateLimitedError struct {
	// RetryAfter is the delay the server asked for.
	RetryAfter time.Duration
}

// Error returns a human-readable description of the rate limit.
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrRateLimited).
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// ServerUnreachableError is returned when the paapi-gate server cannot be contacted.
type ServerUnreachableError struct {
	// Cause is the underlying error that caused the server to be unreachable.
	Cause error
}

// Error returns a human-readable description of the server unreachable error.
func (e *ServerUnreachableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("server unreachable: %v", e.Cause)
	}
	return "server unreachable"
}

// Unwrap returns the underlying error cause.
func (e *ServerUnreachableError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrServerUnreachable).
func (e *ServerUnreachableError) Is(target error) bool {
	return target == ErrServerUnreachable
}
