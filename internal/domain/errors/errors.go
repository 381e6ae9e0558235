package errors

import (
	"errors"
	"fmt"
)

// Error types for different failure domains
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeUpstream    ErrorType = "upstream"
	ErrorTypeModel       ErrorType = "model"
	ErrorTypeInternal    ErrorType = "internal"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeRateLimited ErrorType = "rate_limited"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors

// NewInvalidInputError rejects a request before any model invocation.
func NewInvalidInputError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		Retryable:  false,
		StatusCode: 400,
	}
}

// NewUpstreamError marks a signal source as unreachable. The gateway
// resolves these to feature defaults; they never surface per-feature.
func NewUpstreamError(source, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeUpstream,
		Code:       "UPSTREAM_UNAVAILABLE",
		Message:    fmt.Sprintf("%s: %s", source, message),
		Retryable:  true,
		StatusCode: 502,
		Details:    map[string]interface{}{"source": source},
	}
}

// NewModelUnavailableError is service-fatal: all scoring is rejected
// until the model is loaded.
func NewModelUnavailableError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeModel,
		Code:       "MODEL_UNAVAILABLE",
		Message:    message,
		Retryable:  true,
		StatusCode: 503,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Retryable:  true,
		StatusCode: 500,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       "RESOURCE_NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		Retryable:  false,
		StatusCode: 404,
	}
}

func NewRateLimitError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimited,
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    message,
		Retryable:  true,
		StatusCode: 429,
	}
}

// Predefined common errors
var (
	ErrMissingPaymentID = NewInvalidInputError("MISSING_PAYMENT_ID", "payment_id is required")
	ErrInvalidPayload   = NewInvalidInputError("INVALID_PAYLOAD", "request payload could not be parsed")
	ErrModelNotLoaded   = NewModelUnavailableError("risk model is not loaded")
)

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// GetStatusCode extracts HTTP status code from error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return 500
}
