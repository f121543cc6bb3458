// Package domain defines core types, interfaces, and errors for the trip dashboard.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// FetchError indicates a failed network request: a transport error,
// a timeout, or a non-success HTTP status.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedError indicates content that could not be parsed: a broken
// archive, an unreadable CSV entry, or invalid JSON.
type MalformedError struct {
	Source string
	Err    error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed content in %s: %v", e.Source, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// SchemaMismatchError indicates that columns a computation needs are absent.
type SchemaMismatchError struct {
	Missing []string
	Message string
}

func (e *SchemaMismatchError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "missing columns: " + strings.Join(e.Missing, ", ")
}

// Feed lookup failures.
var (
	ErrFeedNotFound   = errors.New("feed not found")
	ErrMalformedIndex = errors.New("malformed feed index")
)

// ErrFeatureDisabled is returned by optional features that have no configuration.
var ErrFeatureDisabled = errors.New("feature disabled")

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrMalformed wraps err as a MalformedError for the given source.
func ErrMalformed(source string, err error) *MalformedError {
	return &MalformedError{Source: source, Err: err}
}
