package dto

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is a single failed binding rule
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// HandleValidationError converts a binding error into an error detail.
// validator.ValidationErrors become one entry per field, anything else
// (malformed JSON, wrong types) is reported as an invalid request body.
func HandleValidationError(err error) *ErrorDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewErrorDetail(ErrorCodeValidationFailed, "Invalid request body").
			WithSeverity(ErrorSeverityWarning).
			WithDetails(err.Error())
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   lowerFirst(fe.Field()),
			Message: formatValidationError(fe),
		})
	}

	if len(fields) == 1 {
		return NewErrorDetail(ValidationErrorCode(fields[0].Field), "Validation failed").
			WithSeverity(ErrorSeverityWarning).
			WithField(fields[0].Field).
			WithDetails(fields)
	}
	return NewErrorDetail(ErrorCodeValidationFailed, "Validation failed").
		WithSeverity(ErrorSeverityWarning).
		WithDetails(fields)
}

// ValidationErrorCode picks the code of a single rejected field.
// Credential fields get their own codes.
func ValidationErrorCode(field string) ErrorCode {
	switch field {
	case "email":
		return ErrorCodeInvalidEmail
	case "password":
		return ErrorCodeInvalidPassword
	}
	return ErrorCodeValidationFailed
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	field := lowerFirst(e.Field())
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + e.Param()
	case "max":
		return field + " must be at most " + e.Param()
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return field + " must be one of: " + e.Param()
	default:
		return field + " validation failed: " + e.Tag()
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
