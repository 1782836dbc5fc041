package apperrors

import "errors"

// Error kinds. Every error that leaves the service layer wraps one of these.
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrValidationFailed      = errors.New("validation failed")
	ErrStoreFailure          = errors.New("store failure")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
)

// User errors
var (
	ErrUserNotFound       = NewCustomError(ErrResourceNotFound, "user not found")
	ErrProfessorNotFound  = NewCustomError(ErrResourceNotFound, "professor not found")
	ErrEmailAlreadyExists = NewCustomError(ErrResourceAlreadyExists, "email already exists")
)

// Notification errors
var (
	ErrNotificationNotFound = NewCustomError(ErrResourceNotFound, "notification not found")
	ErrNotNotificationOwner = NewCustomError(ErrPermissionDenied, "notification belongs to another professor")
	ErrRoleNotAllowed       = NewCustomError(ErrPermissionDenied, "role is not allowed to perform this operation")
)

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) error {
	return NewCustomError(ErrValidationFailed, message).
		WithDetails(map[string]interface{}{"field": field})
}

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return NewCustomError(ErrResourceNotFound, message)
}

// NewStoreError hides the underlying storage error behind ErrStoreFailure.
// The cause stays reachable through Cause for logging.
func NewStoreError(cause error) error {
	return &CustomError{Err: ErrStoreFailure, Message: "store failure", cause: cause}
}

// IsDomainError reports whether err already carries one of the error kinds
func IsDomainError(err error) bool {
	return Is(err, ErrResourceNotFound,
		ErrResourceAlreadyExists,
		ErrPermissionDenied,
		ErrValidationFailed,
		ErrStoreFailure,
		ErrInvalidCredentials,
		ErrTokenExpired,
		ErrTokenInvalid,
	)
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

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}

	cause error
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

// Cause returns the low level error hidden behind a store failure, if any
func (e *CustomError) Cause() error {
	return e.cause
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}
