package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a threads error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"  // 404
	ErrIDExists       ErrorCode = "ID_EXISTS"       // 409
	ErrConflict       ErrorCode = "CONFLICT"        // 409
	ErrTitleTooLong   ErrorCode = "TITLE_TOO_LONG"  // 413
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// ThreadsError represents a structured error with code, status, and details.
type ThreadsError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *ThreadsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ThreadsError {
	return &ThreadsError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a thread cannot be found.
func NewNotFound(id string) *ThreadsError {
	return &ThreadsError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("thread not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *ThreadsError {
	return &ThreadsError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewIDExists creates a 409 error when an inserted thread ID is taken.
func NewIDExists(id string) *ThreadsError {
	return &ThreadsError{
		Code:    ErrIDExists,
		Status:  409,
		Message: fmt.Sprintf("thread with id %q already exists", id),
		Details: map[string]any{"id": id},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *ThreadsError {
	return &ThreadsError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewTitleTooLong creates a 413 error when a title exceeds the size limit.
func NewTitleTooLong(max, actual int) *ThreadsError {
	return &ThreadsError{
		Code:    ErrTitleTooLong,
		Status:  413,
		Message: fmt.Sprintf("title exceeds maximum size: %d chars (max %d)", actual, max),
		Details: map[string]any{"max_chars": max, "actual_chars": actual},
	}
}

// NewCancelled creates an error for an operation stopped by its context.
func NewCancelled(op string) *ThreadsError {
	return &ThreadsError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *ThreadsError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ThreadsError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// As returns err as a *ThreadsError, unwrapping if needed.
func As(err error) (*ThreadsError, bool) {
	var tErr *ThreadsError
	if stderrors.As(err, &tErr) {
		return tErr, true
	}
	return nil, false
}

// Is checks if an error is a ThreadsError with the given code.
func Is(err error, code ErrorCode) bool {
	if tErr, ok := As(err); ok {
		return tErr.Code == code
	}
	return false
}
