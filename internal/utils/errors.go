package utils

import "fmt"

// ValidationError represents a precondition violation, such as pairwise
// series of mismatched length. These indicate a programming error in the
// caller and are surfaced immediately rather than truncated away.
type ValidationError struct {
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError with a specific message.
func NewValidationError(message string) error {
	return &ValidationError{
		Message: message,
	}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
	}
}

// InsufficientDataError signals that a series is shorter than the window or
// lookback a computation requires. Callers receive this instead of a result
// computed on a truncated window.
type InsufficientDataError struct {
	Required int
	Actual   int
	Message  string
}

// Error returns the error message string.
func (e *InsufficientDataError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("insufficient data: need %d points, got %d", e.Required, e.Actual)
}

// NewInsufficientDataError creates an InsufficientDataError carrying the
// required and actual point counts.
func NewInsufficientDataError(required, actual int) error {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
	}
}

// NewInsufficientDataErrorf creates an InsufficientDataError with a
// formatted message.
func NewInsufficientDataErrorf(format string, args ...interface{}) error {
	return &InsufficientDataError{
		Message: fmt.Sprintf(format, args...),
	}
}
