// Package errors defines the application error type rendered on the HTTP
// surface and the mapping from domain errors onto it.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// General error codes.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "RESOURCE_NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeBadRequest      = "BAD_REQUEST"
	CodeTimeout         = "TIMEOUT"
)

// Stock conflict error codes. These all map to HTTP 409 but carry
// distinct codes so clients can react to each case.
const (
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeOverRelease            = "OVER_RELEASE"
	CodeReservationMismatch    = "RESERVATION_MISMATCH"
	CodeInvariantViolation     = "INVARIANT_VIOLATION"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// AppError carries an error code, a client-facing message and the HTTP
// status to respond with.
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails attaches structured details, typically field names mapped to
// what is wrong with them.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Wrap records the underlying cause. The cause is logged but never
// serialized to clients.
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// NewAppError creates an AppError with the given code, message and status.
func NewAppError(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// ErrValidation creates a validation error.
func ErrValidation(message string) *AppError {
	return NewAppError(CodeValidationError, message, http.StatusBadRequest)
}

// ErrValidationWithFields creates a validation error with per-field details.
func ErrValidationWithFields(message string, fields map[string]string) *AppError {
	return ErrValidation(message).WithDetails(fields)
}

// ErrNotFound creates a not found error for the named resource.
func ErrNotFound(resource string) *AppError {
	return NewAppError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// ErrConflict creates a generic conflict error.
func ErrConflict(message string) *AppError {
	return NewAppError(CodeConflict, message, http.StatusConflict)
}

// Stock conflict errors.

// ErrInsufficientStock reports a reservation exceeding the available quantity.
func ErrInsufficientStock(message string) *AppError {
	return NewAppError(CodeInsufficientStock, message, http.StatusConflict)
}

// ErrOverRelease reports a release exceeding the reserved quantity.
func ErrOverRelease(message string) *AppError {
	return NewAppError(CodeOverRelease, message, http.StatusConflict)
}

// ErrReservationMismatch reports an issue exceeding the reserved quantity.
func ErrReservationMismatch(message string) *AppError {
	return NewAppError(CodeReservationMismatch, message, http.StatusConflict)
}

// ErrInvariantViolation reports a change that would break a stock balance
// invariant.
func ErrInvariantViolation(message string) *AppError {
	return NewAppError(CodeInvariantViolation, message, http.StatusConflict)
}

// ErrConcurrentModification reports an optimistic concurrency clash.
func ErrConcurrentModification(message string) *AppError {
	return NewAppError(CodeConcurrentModification, message, http.StatusConflict)
}

// ErrInternal creates an internal error. The message defaults to a generic
// one so internals are not leaked by accident.
func ErrInternal(message string) *AppError {
	if message == "" {
		message = "an internal error occurred"
	}
	return NewAppError(CodeInternalError, message, http.StatusInternalServerError)
}

// ErrBadRequest creates a bad request error.
func ErrBadRequest(message string) *AppError {
	return NewAppError(CodeBadRequest, message, http.StatusBadRequest)
}

// ErrTimeout creates a timeout error for the named operation.
func ErrTimeout(operation string) *AppError {
	return NewAppError(CodeTimeout, fmt.Sprintf("%s timed out", operation), http.StatusGatewayTimeout)
}

// AsAppError unwraps err to an AppError when one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// MapDomainError converts an error from the domain or infrastructure layers
// into the AppError rendered to clients. AppErrors pass through unchanged;
// anything else is classified by message, since the domain layer does not
// know about HTTP.
func MapDomainError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "not found"):
		return ErrNotFound("resource").Wrap(err)
	case strings.Contains(lower, "already exists"):
		return ErrConflict(msg).Wrap(err)
	case strings.Contains(lower, "insufficient"):
		return ErrInsufficientStock(msg).Wrap(err)
	case strings.Contains(lower, "release exceeds"):
		return ErrOverRelease(msg).Wrap(err)
	case strings.Contains(lower, "issue exceeds"):
		return ErrReservationMismatch(msg).Wrap(err)
	case strings.Contains(lower, "invariant"):
		return ErrInvariantViolation(msg).Wrap(err)
	case strings.Contains(lower, "concurrent"):
		return ErrConcurrentModification(msg).Wrap(err)
	case strings.Contains(lower, "deactivated"):
		return ErrConflict(msg).Wrap(err)
	case strings.Contains(lower, "invalid"),
		strings.Contains(lower, "require"),
		strings.Contains(lower, "must"),
		strings.Contains(lower, "cannot"):
		return ErrValidation(msg).Wrap(err)
	case strings.Contains(lower, "timeout"),
		strings.Contains(lower, "deadline exceeded"):
		return ErrTimeout("operation").Wrap(err)
	default:
		return ErrInternal("").Wrap(err)
	}
}
