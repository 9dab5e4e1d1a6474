// Package common holds the error types, logging setup and retry policy shared
// by the spicecat packages.
package common

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a deletion or update targets a missing row.
	ErrNotFound = errors.New("not found")

	ErrPlaidConnection = errors.New("plaid connection failed")
	ErrPlaidRateLimit  = errors.New("plaid rate limit exceeded")

	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError is an error whose message is meant for the person at the
// terminal. Hint, when set, suggests how to fix it.
type UserError struct {
	Err     error
	Message string
	Hint    string
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError wraps err with a message and an optional hint.
func NewUserError(message, hint string, err error) error {
	return &UserError{Message: message, Hint: hint, Err: err}
}

// AsUserError returns the first UserError in err's chain.
func AsUserError(err error) (*UserError, bool) {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr, true
	}
	return nil, false
}

// IsRetryable reports whether a remote call that failed with err is worth
// repeating.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrRateLimit), errors.Is(err, ErrPlaidRateLimit), errors.Is(err, context.DeadlineExceeded):
		return true
	}
	var retryableErr *RetryableError
	return errors.As(err, &retryableErr) && retryableErr.Retryable
}
