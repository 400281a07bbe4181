package tools

import (
	"errors"
	"fmt"
)

// OutcomeKind classifies the result of a tool invocation.
type OutcomeKind int

const (
	// OutcomeSuccess means the tool produced data for the model.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeRetryHint means the tool failed in a way the model can
	// correct itself: the hint is fed back as the tool result so the
	// model can revise and re-issue the call. Never shown to the user.
	OutcomeRetryHint

	// OutcomeFatal means the invocation failed terminally: bad
	// arguments, unknown tool, or an unclassified transport failure.
	OutcomeFatal
)

// Outcome is the tagged result of one tool invocation. Exactly one of
// Value, Hint, or Err is meaningful, selected by Kind.
type Outcome struct {
	Kind  OutcomeKind
	Value string // OutcomeSuccess
	Hint  string // OutcomeRetryHint
	Err   error  // OutcomeFatal
}

// Success builds a successful outcome.
func Success(value string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Value: value}
}

// NewRetryHint builds a retryable outcome carrying a hint for the model.
func NewRetryHint(hint string) Outcome {
	return Outcome{Kind: OutcomeRetryHint, Hint: hint}
}

// Fatal builds a terminal failure outcome.
func Fatal(err error) Outcome {
	return Outcome{Kind: OutcomeFatal, Err: err}
}

// RetryError is returned by tool handlers to classify a failure as
// self-correctable by the model (e.g. "no matching location found").
// The registry converts it into an OutcomeRetryHint.
type RetryError struct {
	Hint string
}

// Error implements the error interface.
func (e *RetryError) Error() string {
	return e.Hint
}

// Retry builds a RetryError with a human-readable hint for the model.
func Retry(format string, args ...any) error {
	return &RetryError{Hint: fmt.Sprintf(format, args...)}
}

// AsRetry extracts a RetryError from an error chain.
func AsRetry(err error) (*RetryError, bool) {
	var re *RetryError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
