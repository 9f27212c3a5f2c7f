// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies command errors so that scripts wrapping
// neutron-reconcile can decide whether to retry, fix input, or page
// someone without parsing error text.
type ErrorCategory string

const (
	// CategoryValidation indicates the caller provided invalid input:
	// unknown flags, bad values, a broken config file. Fix the input
	// and retry.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound indicates a referenced file does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryConflict indicates the database no longer matches what
	// the caller expected, for example a plan fingerprint mismatch.
	CategoryConflict ErrorCategory = "conflict"

	// CategoryTransient indicates a temporary failure: a locked or
	// unreachable database, a timeout. Back off and retry.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal indicates an unexpected error: malformed
	// records, I/O failures, bugs. Report rather than retry.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized error returned by CLI commands. It wraps
// an inner error, preserving the full chain for errors.Is and
// errors.As. Use the category-specific constructors rather than
// constructing ToolError directly.
type ToolError struct {
	// Category classifies the error for programmatic handling.
	Category ErrorCategory

	// Err is the underlying error with the human-readable message.
	Err error
}

// Error returns the underlying error message. The category is not
// included.
func (e *ToolError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *ToolError) Unwrap() error { return e.Err }

// CategoryName returns the category as a string. main prints it
// alongside the message.
func (e *ToolError) CategoryName() string { return string(e.Category) }

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error: a referenced file does not exist.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Conflict creates a conflict error: the state changed under the caller.
func Conflict(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryConflict, Err: fmt.Errorf(format, args...)}
}

// Transient creates a transient error: a temporary failure that may succeed on retry.
func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error: an unexpected failure, bug, or I/O error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}
