// Package domainerrors provides coded errors for the service layer. Handlers
// translate codes into HTTP statuses; services attach codes at the point the
// rule is violated so callers get a single machine-readable diagnostic.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the class of failure. The string form is what the HTTP
// surface returns in the "error" field.
type Code string

const (
	// Administration and evaluation rule violations.
	CodeUnauthorized        Code = "unauthorized"
	CodeInvalidMode         Code = "invalid_mode"
	CodeEmptyPolicy         Code = "empty_policy"
	CodeInvalidAddress      Code = "invalid_address"
	CodeMissingProof        Code = "missing_proof"
	CodePolicyNotConfigured Code = "policy_not_configured"
	CodeInvalidAttestation  Code = "invalid_attestation"

	// General plumbing.
	CodeInvalidInput Code = "invalid_input"
	CodeBadRequest   Code = "bad_request"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal_error"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that were never classified.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// MessageOf extracts the message from err, or the empty string for
// unclassified errors.
func MessageOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Message
	}
	return ""
}
