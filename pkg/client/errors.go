package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrTransport covers unreachable hosts, timeouts and non-2xx responses.
	ErrTransport = errors.New("search request failed")

	// ErrDecode is returned when a response body does not match the expected schema.
	ErrDecode = errors.New("search response invalid")

	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents malformed response bodies.
	ErrorClassDecode ErrorClass = "decode"
)

// SearchError describes a failed search call.
// errors.Is(err, ErrTransport) or errors.Is(err, ErrDecode) tells the two kinds apart.
type SearchError struct {
	// Kind is ErrTransport or ErrDecode.
	Kind       error
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

func (e *SearchError) kind() error {
	if e.Kind == nil {
		return ErrTransport
	}
	return e.Kind
}

// Error implements the error interface.
func (e *SearchError) Error() string {
	msg := e.kind().Error()
	if e.ErrorClass != "" {
		msg += fmt.Sprintf(" [%s]", e.ErrorClass)
	}
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Is matches the error's kind.
func (e *SearchError) Is(target error) bool {
	return target == e.kind()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *SearchError) Unwrap() error {
	return e.Err
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		// 4xx and malformed bodies will not improve on a second attempt
		return false
	}
}
