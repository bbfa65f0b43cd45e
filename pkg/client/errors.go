package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrUnsupportedMethod is returned for methods other than GET and
	// POST, before any transport call is made.
	ErrUnsupportedMethod = errors.New("unsupported HTTP method")

	// ErrRetriesExhausted is returned when all attempts were consumed
	// without a terminal outcome.
	ErrRetriesExhausted = errors.New("retry attempts exhausted")

	// ErrCancelled is returned when the context ends during a throttle
	// wait, a backoff sleep, or a Retry-After sleep.
	ErrCancelled = errors.New("request cancelled")
)

// RequestError reports a transport-level failure that survived all retry
// attempts.
type RequestError struct {
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// HTTPError reports a terminal non-2xx, non-429 response. It is never
// retried.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d: %s", e.StatusCode, e.Body)
}

// ErrorClass represents a classification of request failures for
// logging and metrics.
type ErrorClass string

const (
	// ClassClient represents 4xx client errors (never retried).
	ClassClient ErrorClass = "client"

	// ClassServer represents 5xx server errors.
	ClassServer ErrorClass = "server"

	// ClassRateLimit represents HTTP 429 throttling responses.
	ClassRateLimit ErrorClass = "rate_limit"

	// ClassNetwork represents transport-level failures.
	ClassNetwork ErrorClass = "network"
)

// classify categorizes a failed attempt by status code or transport
// error.
func classify(statusCode int, err error) ErrorClass {
	if err != nil {
		return ClassNetwork
	}

	switch {
	case statusCode == 429:
		return ClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ClassClient
	case statusCode >= 500:
		return ClassServer
	default:
		return ""
	}
}
