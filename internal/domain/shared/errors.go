package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError for callers and transport mapping
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"    // Malformed input, never retried
	KindNotFound     ErrorKind = "not_found"     // Unknown or out-of-scope id
	KindPermission   ErrorKind = "permission"    // Caller may not perform the action
	KindTransient    ErrorKind = "transient"     // Storage or network failure, retryable
	KindConfig       ErrorKind = "config"        // Missing or broken configuration
	KindConflict     ErrorKind = "conflict"      // Concurrent modification
	KindInvalidState ErrorKind = "invalid_state" // Operation not allowed in current state
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on code so sentinel comparisons survive wrapping with a cause
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error. The kind is inferred from the code.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Kind:    kindForCode(code),
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error with a specific code
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

// NewNotFoundError creates a not-found error with a specific code
func NewNotFoundError(code, message string) *DomainError {
	return &DomainError{Kind: KindNotFound, Code: code, Message: message}
}

// NewPermissionError creates a permission error
func NewPermissionError(code, message string) *DomainError {
	return &DomainError{Kind: KindPermission, Code: code, Message: message}
}

// NewTransientError wraps a storage or network failure
func NewTransientError(message string, cause error) *DomainError {
	return &DomainError{Kind: KindTransient, Code: "TRANSIENT_FAILURE", Message: message, Err: cause}
}

// NewConfigError reports a missing or invalid configuration entry
func NewConfigError(code, message string) *DomainError {
	return &DomainError{Kind: KindConfig, Code: code, Message: message}
}

// KindOf returns the kind of err, or an empty kind if err is not a DomainError
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err is a DomainError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// AsTransient passes DomainErrors through and wraps anything else as transient
func AsTransient(message string, err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	return NewTransientError(message, err)
}

func kindForCode(code string) ErrorKind {
	switch code {
	case "NOT_FOUND":
		return KindNotFound
	case "UNAUTHORIZED", "FORBIDDEN":
		return KindPermission
	case "CONCURRENCY_CONFLICT", "ALREADY_EXISTS":
		return KindConflict
	case "INVALID_STATE":
		return KindInvalidState
	default:
		return KindValidation
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)
