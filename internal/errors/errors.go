package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Suhba error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrForbidden         ErrorCode = "FORBIDDEN"          // 403
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrFileNotFound      ErrorCode = "FILE_NOT_FOUND"     // 404
	ErrConflict          ErrorCode = "CONFLICT"           // 409
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION" // 409
	ErrInternal          ErrorCode = "INTERNAL"           // 500
	ErrStoreUnavailable  ErrorCode = "STORE_UNAVAILABLE"  // 503
)

// SuhbaError represents a structured error with code, status, and details.
type SuhbaError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *SuhbaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SuhbaError {
	return &SuhbaError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewForbidden creates a 403 error when the actor may not perform an action.
func NewForbidden(msg string) *SuhbaError {
	return &SuhbaError{
		Code:    ErrForbidden,
		Status:  403,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing entity.
func NewNotFound(kind, identifier string) *SuhbaError {
	return &SuhbaError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *SuhbaError {
	return &SuhbaError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *SuhbaError {
	return &SuhbaError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewInvalidTransition creates a 409 error for a connection status change
// that is not allowed from the current status.
func NewInvalidTransition(id, from, to string) *SuhbaError {
	return &SuhbaError{
		Code:    ErrInvalidTransition,
		Status:  409,
		Message: fmt.Sprintf("connection %s cannot move from %s to %s", id, from, to),
		Details: map[string]any{"connection_id": id, "from": from, "to": to},
	}
}

// NewStoreUnavailable creates a 503 error when the store cannot be reached.
func NewStoreUnavailable(err error) *SuhbaError {
	msg := "store unavailable"
	if err != nil {
		msg = fmt.Sprintf("store unavailable: %v", err)
	}
	return &SuhbaError{
		Code:    ErrStoreUnavailable,
		Status:  503,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause is kept in Details for logging.
func NewInternal(err error) *SuhbaError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &SuhbaError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error (or anything it wraps) is a SuhbaError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *SuhbaError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}
