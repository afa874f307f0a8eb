package apperrors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	ErrorTypeValidation ErrorType = iota
	ErrorTypeNotFound
	ErrorTypeAuthorization
	ErrorTypeState
	ErrorTypeConflict
	ErrorTypeStorage
)

func (et ErrorType) String() string {
	switch et {
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeAuthorization:
		return "authorization"
	case ErrorTypeState:
		return "state"
	case ErrorTypeConflict:
		return "conflict"
	case ErrorTypeStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// AppError is the error returned by every service operation. Its message is
// shown to API clients as-is.
type AppError struct {
	Type    ErrorType
	Message string
	Code    string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Extensions is picked up by graphql-go and rendered under "extensions" of
// the error entry.
func (e *AppError) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code": e.Code,
	}
}

// IsType checks if this error is of the specified type
func (e *AppError) IsType(errorType ErrorType) bool {
	return e.Type == errorType
}

func NewValidationError(message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: message, Code: "VALIDATION_ERROR"}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: fmt.Sprintf("%s not found", resource), Code: "NOT_FOUND"}
}

func NewAuthorizationError(message string) *AppError {
	return &AppError{Type: ErrorTypeAuthorization, Message: message, Code: "UNAUTHORIZED"}
}

func NewStateError(message string) *AppError {
	return &AppError{Type: ErrorTypeState, Message: message, Code: "INVALID_STATE"}
}

func NewConflictError(message string) *AppError {
	return &AppError{Type: ErrorTypeConflict, Message: message, Code: "CONFLICT"}
}

// NewStorageError wraps an underlying failure with a prefix naming the
// operation, e.g. "Failed to fetch tasks".
func NewStorageError(prefix string, cause error) *AppError {
	return &AppError{Type: ErrorTypeStorage, Message: prefix, Code: "STORAGE_ERROR", Cause: cause}
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsErrorType checks if the error is of the specified type
func IsErrorType(err error, errorType ErrorType) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.IsType(errorType)
	}
	return false
}

// IsClientError reports whether the caller can fix the failure by changing
// its input. Only storage failures are server-side.
func IsClientError(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Type != ErrorTypeStorage
	}
	return false
}
