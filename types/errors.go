package types

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failure so callers can branch without string matching.
type ErrorCode string

const (
	// CodeValidation marks a request rejected before any write (empty title,
	// empty progress report, malformed fields).
	CodeValidation ErrorCode = "validation"
	// CodeNotFound marks a lookup that matched nothing.
	CodeNotFound ErrorCode = "not_found"
	// CodeInvalidCredential marks a secret mismatch on login.
	CodeInvalidCredential ErrorCode = "invalid_credential"
	// CodeUnauthorized marks a caller that is not allowed to perform the
	// operation (non-manager mutation, self-deletion).
	CodeUnauthorized ErrorCode = "unauthorized"
	// CodeTransientStore marks a backing-store failure; the operation may be
	// re-issued by the caller.
	CodeTransientStore ErrorCode = "transient_store"
)

// Error provides structured error information for store and service failures.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError creates a new structured error.
func NewError(code ErrorCode, message string, details map[string]any) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// NewValidationError reports a request rejected before any write.
func NewValidationError(message string, details map[string]any) *Error {
	return NewError(CodeValidation, message, details)
}

// NewNotFound reports a lookup that matched nothing.
func NewNotFound(message string, details map[string]any) *Error {
	return NewError(CodeNotFound, message, details)
}

// NewUnauthorized reports a caller that may not perform the operation.
func NewUnauthorized(message string, details map[string]any) *Error {
	return NewError(CodeUnauthorized, message, details)
}

// NewInvalidCredential reports a secret mismatch.
func NewInvalidCredential(message string) *Error {
	return NewError(CodeInvalidCredential, message, nil)
}

// NewStoreError wraps a backing-store failure as transient.
func NewStoreError(message string, cause error) *Error {
	return &Error{Code: CodeTransientStore, Message: message, Cause: cause}
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
