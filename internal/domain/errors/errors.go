package errors

import (
	"net/http"

	"loyalty/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// Is matches any BaseError carrying the same error code, so copies made by WithDetails
// still match the predefined error they came from.
func (e *BaseError) Is(target error) bool {
	other, ok := target.(*BaseError)

	return ok && e.errorCode == other.errorCode
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Loyalty program configuration
	ErrRulesNotFound = NewBaseError(
		http.StatusNotFound,
		"RULES_NOT_FOUND",
		"This business has not configured a loyalty program yet",
		"",
	)

	ErrInvalidRules = NewBaseError(
		http.StatusBadRequest,
		"INVALID_RULES",
		"Loyalty rules are invalid",
		"",
	)

	// Reward catalog
	ErrRewardNotFound = NewBaseError(
		http.StatusNotFound,
		"REWARD_NOT_FOUND",
		"Reward not found",
		"",
	)

	ErrInvalidReward = NewBaseError(
		http.StatusBadRequest,
		"INVALID_REWARD",
		"Reward is invalid",
		"",
	)

	// Profiles and redemptions
	ErrProfileNotFound = NewBaseError(
		http.StatusNotFound,
		"PROFILE_NOT_FOUND",
		"Loyalty profile not found",
		"",
	)

	ErrRedemptionNotFound = NewBaseError(
		http.StatusNotFound,
		"REDEMPTION_NOT_FOUND",
		"Redemption not found",
		"",
	)

	ErrCodeGenerationFailed = NewBaseError(
		http.StatusServiceUnavailable,
		"CODE_GENERATION_FAILED",
		"Could not issue a redemption code, please try again",
		"",
	)

	// Concurrency
	ErrConcurrentUpdate = NewBaseError(
		http.StatusConflict,
		"CONCURRENT_UPDATE",
		"The loyalty profile was modified concurrently, please retry",
		"",
	)

	ErrLockTimeout = NewBaseError(
		http.StatusServiceUnavailable,
		"LOCK_TIMEOUT",
		"The loyalty profile is busy, please retry",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Input validation failed",
		"",
	)

	// Transaction-related errors
	ErrTransactionFailed = NewBaseError(
		http.StatusInternalServerError,
		"TRANSACTION_FAILED",
		"Database transaction failed",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "Database operation failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}

// Unwrap exposes the driver error to errors.Is and errors.As
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}
