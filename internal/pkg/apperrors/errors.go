package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Student errors
var (
	ErrStudentNotFound = errors.New("student not found")
)

// Allocation errors. These are business outcomes: retrying the same request
// returns the same answer.
var (
	ErrAlreadyAllocated  = errors.New("you have already selected a subject")
	ErrDeadlineClosed    = errors.New("selection deadline has passed")
	ErrSubjectNotFound   = errors.New("subject not found")
	ErrIneligibleBranch  = errors.New("student is not eligible for this subject")
	ErrSubjectFull       = errors.New("subject is full")
	ErrNoEligibleSubject = errors.New("all preferences full or ineligible")
	ErrSelectionClosed   = errors.New("student access is currently disabled")
)

// ErrTransientFailure marks storage failures (lock timeout, serialization
// failure, busy database, lost connection) that may succeed on retry.
var ErrTransientFailure = errors.New("temporary storage failure, please retry")

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewValidationError wraps ErrValidationFailed with a field-level message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// NewTransientError wraps a storage failure so that callers can match it
// with errors.Is(err, ErrTransientFailure) while keeping the cause.
func NewTransientError(cause error) error {
	return &CustomError{
		Err:     ErrTransientFailure,
		Message: ErrTransientFailure.Error(),
		Details: map[string]interface{}{"cause": cause.Error()},
	}
}

// IsRetryable reports whether the caller may retry the operation that
// returned err.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientFailure)
}

// Is returns whether target matches any of the errors in errList
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

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}
