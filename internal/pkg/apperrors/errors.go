package apperrors

import (
	"errors"
	"strings"
)

// Error kinds. Every error returned by the service layer wraps exactly one of these.
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrInvalidState          = errors.New("invalid state")
	ErrValidationFailed      = errors.New("validation failed")

	// Authentication errors
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrInvalidFormat = errors.New("invalid token format")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")
)

// NewResourceNotFoundError creates a not-found error with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewAlreadyExistsError creates an already-exists error with a message
func NewAlreadyExistsError(message string) error {
	return &CustomError{
		Err:     ErrResourceAlreadyExists,
		Message: message,
	}
}

// NewInvalidStateError creates an invalid-state error with a message
func NewInvalidStateError(message string) error {
	return &CustomError{
		Err:     ErrInvalidState,
		Message: message,
	}
}

// NewForbiddenError creates a permission denied error with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewValidationError wraps a list of human-readable validation messages.
// The messages are kept in order under Details["messages"].
func NewValidationError(messages []string) error {
	return (&CustomError{
		Err:     ErrValidationFailed,
		Message: strings.Join(messages, " "),
	}).WithDetails(map[string]interface{}{"messages": messages})
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// ValidationMessages extracts the message list from a validation error, if any.
func ValidationMessages(err error) []string {
	var ce *CustomError
	if !errors.As(err, &ce) || ce.Details == nil {
		return nil
	}
	messages, _ := ce.Details["messages"].([]string)
	return messages
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}
