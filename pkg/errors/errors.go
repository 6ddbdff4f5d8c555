package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeUnauthorized indicates a missing or invalid credential
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeForbidden indicates the caller may not perform the operation
	ErrorTypeForbidden ErrorType = "FORBIDDEN"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeInvalidFilterValue indicates malformed or out-of-domain search input
	ErrorTypeInvalidFilterValue ErrorType = "INVALID_FILTER_VALUE"

	// ErrorTypeInvalidRatingScore indicates a score outside 1..5
	ErrorTypeInvalidRatingScore ErrorType = "INVALID_RATING_SCORE"

	// ErrorTypeSubjectNotFound indicates a rating references a missing listing or agent
	ErrorTypeSubjectNotFound ErrorType = "SUBJECT_NOT_FOUND"

	// ErrorTypeAggregationFailure indicates the rating aggregate recompute failed
	// after the rating itself was written
	ErrorTypeAggregationFailure ErrorType = "AGGREGATION_FAILURE"

	// ErrorTypeStorageUnavailable indicates the backing store could not be reached
	ErrorTypeStorageUnavailable ErrorType = "STORAGE_UNAVAILABLE"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	// Field names the offending input, when there is one.
	Field string
	Err   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s (%s)", e.Message, e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// As extracts the first *AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeForbidden,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// NewInvalidFilterValueError rejects a single search parameter.
func NewInvalidFilterValueError(field, message string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidFilterValue,
		Message: message,
		Field:   field,
	}
}

// NewInvalidRatingScoreError rejects a score outside the accepted range.
func NewInvalidRatingScoreError(score, min, max int) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidRatingScore,
		Message: fmt.Sprintf("rating must be between %d and %d, got %d", min, max, score),
		Field:   "score",
	}
}

// NewNonIntegerRatingScoreError reports a score that is a number but not a
// whole one, e.g. 4.5.
func NewNonIntegerRatingScoreError(raw string, min, max int) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidRatingScore,
		Message: fmt.Sprintf("rating must be a whole number between %d and %d, got %s", min, max, raw),
		Field:   "score",
	}
}

// NewSubjectNotFoundError reports a rating subject that does not exist.
func NewSubjectNotFoundError(subjectType, subjectID string) *AppError {
	return &AppError{
		Type:    ErrorTypeSubjectNotFound,
		Message: fmt.Sprintf("%s with id %s not found", subjectType, subjectID),
		Field:   "subjectId",
	}
}

// NewAggregationFailureError wraps a failed aggregate recompute.
func NewAggregationFailureError(subjectType, subjectID string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeAggregationFailure,
		Message: fmt.Sprintf("failed to recompute rating aggregate for %s %s", subjectType, subjectID),
		Err:     err,
	}
}

// NewStorageUnavailableError wraps a store that could not be reached.
func NewStorageUnavailableError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeStorageUnavailable,
		Message: message,
		Err:     err,
	}
}
