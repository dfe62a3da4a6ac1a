package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	Internal   error       `json:"-"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the internal error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Common error codes
const (
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeDatabase           = "DATABASE_ERROR"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeQuotaExceeded      = "QUOTA_EXCEEDED"
)

// Trial lifecycle error codes
const (
	ErrCodeSnapshotCaptureFailed = "SNAPSHOT_CAPTURE_FAILED"
	ErrCodeNoActiveSnapshot      = "NO_ACTIVE_SNAPSHOT"
	ErrCodeRestoreFailed         = "RESTORE_FAILED"
	ErrCodeUnknownBillingEvent   = "UNKNOWN_BILLING_EVENT"
	ErrCodeTransitionPending     = "TRANSITION_PENDING"
	ErrCodeBillingProvider       = "BILLING_PROVIDER_ERROR"
	ErrCodeInvalidSignature      = "INVALID_SIGNATURE"
)

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with an AppError
func Wrap(err error, code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Internal:   err,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether any AppError in err's chain carries code.
func IsCode(err error, code string) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Internal
	}
	return false
}

// Common error constructors

// Internal creates an internal server error
func Internal(message string, err error) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

// Forbidden creates a forbidden error
func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message, http.StatusForbidden)
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

// ValidationError creates a validation error
func ValidationError(message string, details interface{}) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest).WithDetails(details)
}

// DatabaseError creates a database error
func DatabaseError(message string, err error) *AppError {
	return Wrap(err, ErrCodeDatabase, message, http.StatusInternalServerError)
}

// RateLimited creates a rate limited error
func RateLimited(message string) *AppError {
	return New(ErrCodeRateLimited, message, http.StatusTooManyRequests)
}

// ServiceUnavailable creates a service unavailable error
func ServiceUnavailable(message string) *AppError {
	return New(ErrCodeServiceUnavailable, message, http.StatusServiceUnavailable)
}

// QuotaExceeded creates a quota error
func QuotaExceeded(message string) *AppError {
	return New(ErrCodeQuotaExceeded, message, http.StatusPaymentRequired)
}

// SnapshotCaptureFailed is returned when a snapshot could not be persisted.
// It aborts whatever transition asked for the snapshot.
func SnapshotCaptureFailed(err error) *AppError {
	return Wrap(err, ErrCodeSnapshotCaptureFailed, "Failed to capture snapshot", http.StatusInternalServerError)
}

// NoActiveSnapshot is returned by a restore when the user has nothing to restore.
func NoActiveSnapshot() *AppError {
	return New(ErrCodeNoActiveSnapshot, "No active snapshot to restore", http.StatusNotFound)
}

// RestoreFailed is returned when the restore transaction could not commit.
func RestoreFailed(err error) *AppError {
	return Wrap(err, ErrCodeRestoreFailed, "Failed to restore snapshot", http.StatusInternalServerError)
}

// UnknownBillingEvent marks an event type the lifecycle does not handle
func UnknownBillingEvent(eventType string) *AppError {
	return New(ErrCodeUnknownBillingEvent,
		fmt.Sprintf("Unhandled billing event type %q", eventType),
		http.StatusAccepted)
}

// TransitionPending marks an event that arrived ahead of the event it
// depends on. It is returned to the caller so the delivery is retried.
func TransitionPending(message string) *AppError {
	return New(ErrCodeTransitionPending, message, http.StatusServiceUnavailable)
}

// BillingProviderError creates a billing provider API error
func BillingProviderError(err error) *AppError {
	return Wrap(err, ErrCodeBillingProvider, "Failed to communicate with billing provider", http.StatusBadGateway)
}

// InvalidSignature creates a webhook signature error
func InvalidSignature(err error) *AppError {
	return Wrap(err, ErrCodeInvalidSignature, "Webhook signature verification failed", http.StatusBadRequest)
}
