// Package remote implements the HTTP client for the upstream CRM API,
// the source of truth for leads, users, and reminders, and defines the
// error taxonomy every collaborator call resolves into.
//
// The taxonomy mirrors how failures propagate through the client core:
//   - ErrNotFound: the referenced lead, user, or reminder no longer exists.
//   - *ValidationError: the remote rejected a proposed mutation; surfaced
//     to the user after a guarded rollback.
//   - *NetworkError: transport-level or upstream failure; absorbed during
//     cache validation (converted into a forced refetch), surfaced only
//     when the refetch itself fails.
//
// None of these are fatal: callers stay interactive and may retry.
package remote

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the referenced entity is missing upstream.
var ErrNotFound = errors.New("remote: not found")

// ValidationError is returned when the remote CRM rejects a proposed
// mutation. Code is the stable machine-readable code from the API error
// envelope; Message is safe to show to users.
type ValidationError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Code == "" {
		return "remote: validation failed: " + e.Message
	}
	return fmt.Sprintf("remote: validation failed (%s): %s", e.Code, e.Message)
}

// NetworkError wraps a transport-level failure or an unexpected upstream
// status. Op identifies the attempted call for logs.
type NetworkError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("remote: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *NetworkError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
