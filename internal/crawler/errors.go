package crawler

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind labels the final disposition of a failed task.
type FailureKind string

// Failure kinds recorded in a Result's failure map.
const (
	FailureNetwork   FailureKind = "network"
	FailureNotFound  FailureKind = "not_found"
	FailureParse     FailureKind = "parse"
	FailureExhausted FailureKind = "retry_exhausted"
	FailureCanceled  FailureKind = "canceled"
)

// ErrInvalidRange reports a malformed page range before any task is built.
var ErrInvalidRange = errors.New("invalid page range")

// NetworkError is a transient fetch failure (timeout, connection error,
// 5xx). The retry policy is allowed to retry it.
type NetworkError struct {
	URL   string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Cause)
}

// Unwrap exposes the underlying cause.
func (e *NetworkError) Unwrap() error { return e.Cause }

// NotFoundError is terminal: the page does not exist and retrying cannot
// change that.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.URL)
}

// ParseError is terminal: the page was fetched but its structure did not
// match expectations.
type ParseError struct {
	URL   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.URL, e.Cause)
}

// Unwrap exposes the underlying cause.
func (e *ParseError) Unwrap() error { return e.Cause }

// RetryExhaustedError reports that every allowed attempt failed
// transiently. Attempts counts total attempts made.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

// Unwrap exposes the last transient cause.
func (e *RetryExhaustedError) Unwrap() error { return e.Last }

// IsTerminal reports whether retrying err can never succeed.
func IsTerminal(err error) bool {
	var nf *NotFoundError
	var pe *ParseError
	return errors.As(err, &nf) || errors.As(err, &pe)
}

// Classify maps an error to the failure kind recorded for its task.
func Classify(err error) FailureKind {
	var (
		nf *NotFoundError
		pe *ParseError
		re *RetryExhaustedError
	)
	switch {
	case errors.As(err, &nf):
		return FailureNotFound
	case errors.As(err, &pe):
		return FailureParse
	case errors.As(err, &re):
		return FailureExhausted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCanceled
	default:
		return FailureNetwork
	}
}
