package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a record was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeDuplicateName indicates a test name is already taken
	ErrorTypeDuplicateName ErrorType = "DUPLICATE_NAME"

	// ErrorTypeInvalidInput indicates a validation error
	ErrorTypeInvalidInput ErrorType = "INVALID_INPUT"

	// ErrorTypeInvalidDateRange indicates a date range whose start is after its end
	ErrorTypeInvalidDateRange ErrorType = "INVALID_DATE_RANGE"

	// ErrorTypeUnsupportedReportType indicates an unknown report kind
	ErrorTypeUnsupportedReportType ErrorType = "UNSUPPORTED_REPORT_TYPE"

	// ErrorTypeStorageUnavailable indicates the store failed to open or respond
	ErrorTypeStorageUnavailable ErrorType = "STORAGE_UNAVAILABLE"

	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewDuplicateNameError creates a new duplicate name error
func NewDuplicateNameError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeDuplicateName,
		Message: message,
	}
}

// NewValidationError creates a new invalid input error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidInput,
		Message: message,
	}
}

// NewInvalidDateRangeError creates a new invalid date range error
func NewInvalidDateRangeError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidDateRange,
		Message: message,
	}
}

// NewUnsupportedReportTypeError creates a new unsupported report type error
func NewUnsupportedReportTypeError(kind string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnsupportedReportType,
		Message: fmt.Sprintf("unsupported report type %q", kind),
	}
}

// NewStorageUnavailableError creates a new storage error
func NewStorageUnavailableError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeStorageUnavailable,
		Message: message,
		Err:     err,
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

// TypeOf returns the ErrorType carried by err, or ErrorTypeInternal for
// errors that are not AppErrors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Is reports whether err is an AppError of the given type.
func Is(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsNotFound reports whether err is a not found error.
func IsNotFound(err error) bool {
	return Is(err, ErrorTypeNotFound)
}

// IsDuplicateName reports whether err is a duplicate name error.
func IsDuplicateName(err error) bool {
	return Is(err, ErrorTypeDuplicateName)
}
