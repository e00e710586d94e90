// Package errors holds the sentinel errors shared across the service and thin
// wrappers over the standard library, so callers import a single package.
// Sentinels are matched with Is; KindOf turns them into stable labels.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
	ErrTimeout           = errors.New("operation timeout")
	ErrUnavailable       = errors.New("service unavailable")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Workflow run failures. Each maps to its own Kind.
var (
	// ErrDataUnavailable: a required source (allocation, indicator, risk profile) returned nothing
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInsufficientHistory: too few observations for the requested lookback
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrSearchUnavailable: the similarity index could not be queried
	ErrSearchUnavailable = errors.New("search unavailable")
	// ErrSynthesis: the completion service failed or returned unusable text
	ErrSynthesis = errors.New("synthesis failed")
	// ErrStorage: a report or failure record could not be written
	ErrStorage       = errors.New("storage failure")
	ErrDuplicateStep = errors.New("duplicate step")
	ErrCancelled     = errors.New("run cancelled")
	// ErrInvalidOutput: a step result failed its validity check
	ErrInvalidOutput = errors.New("invalid step output")
)

// ValidationError names the offending field. It matches ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// MultiError collects independent failures, e.g. every invalid config field at once
type MultiError struct {
	Errors []error
}

// Add ignores nil
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// ToError returns nil when nothing was collected
func (m *MultiError) ToError() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

func (m *MultiError) Error() string {
	switch len(m.Errors) {
	case 0:
		return "no errors"
	case 1:
		return m.Errors[0].Error()
	}
	msgs := make([]string, len(m.Errors))
	for i, err := range m.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("multiple errors (%d): %s", len(m.Errors), strings.Join(msgs, "; "))
}

func (m *MultiError) Unwrap() []error { return m.Errors }

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

func Join(errs ...error) error { return errors.Join(errs...) }

func New(message string) error { return errors.New(message) }

func Newf(format string, args ...interface{}) error { return fmt.Errorf(format, args...) }

// Wrap prefixes err with message. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a format string
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
