// Package errors provides standardized error handling for the rating pipeline.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Remote judgment errors.
	ErrCodeRemoteUnavailable ErrorCode = "REMOTE_UNAVAILABLE"
	ErrCodeRateLimited       ErrorCode = "RATE_LIMITED"
	ErrCodeAuthError         ErrorCode = "AUTH_ERROR"
	ErrCodeSchemaInvalid     ErrorCode = "SCHEMA_INVALID"
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"

	// Input errors.
	ErrCodeInsufficientInput ErrorCode = "INSUFFICIENT_INPUT"
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"

	// Cache errors.
	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewRemoteUnavailableError creates a retryable remote endpoint error
// (network failure, timeout or 5xx).
func NewRemoteUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteUnavailable,
		Message:   "Remote judgment endpoint unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitedError creates a retryable rate-limit error. retryAfter holds
// the server-provided backoff hint, zero when the server gave none.
func NewRateLimitedError(retryAfter time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimited,
		Message:   "Remote judgment endpoint rate limit reached",
		Details:   fmt.Sprintf("retryAfter: %s", retryAfter),
		Retryable: true,
		Metadata:  map[string]interface{}{"retryAfter": retryAfter},
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthError creates a non-retryable authentication error. This is a
// deployment configuration fault and should be surfaced to operators.
func NewAuthError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthError,
		Message:   "Remote judgment endpoint rejected credentials",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaInvalidError creates a non-retryable schema validation error
// (required field missing from an otherwise valid JSON payload).
func NewSchemaInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaInvalid,
		Message:   "Remote response missing required fields",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResponseError creates a non-retryable parse error (content is
// not JSON even after fence stripping).
func NewMalformedResponseError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedResponse,
		Message:   "Remote response is not valid JSON",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInsufficientInputError creates a non-retryable input error for text too
// short to analyze.
func NewInsufficientInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInsufficientInput,
		Message:   "Input text too short for analysis",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable structural input error.
func NewInvalidInputError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a retryable cache backend error.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Response cache backend error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the in-request retry budget for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeRemoteUnavailable, ErrCodeRateLimited:
		return 3
	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// TriggersLocalFallback reports whether an error kind moves the pipeline to
// the local heuristic tier.
func TriggersLocalFallback(code ErrorCode) bool {
	switch code {
	case ErrCodeRemoteUnavailable, ErrCodeRateLimited, ErrCodeSchemaInvalid,
		ErrCodeMalformedResponse, ErrCodeAuthError:
		return true
	default:
		return false
	}
}

// CodeOf extracts the error code from any error, defaulting to
// REMOTE_UNAVAILABLE for plain transport errors.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeRemoteUnavailable
}

// AsStandard normalizes any error to a StandardError.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "REMOTE") || strings.Contains(codeStr, "RATE") ||
		strings.Contains(codeStr, "AUTH") || strings.Contains(codeStr, "SCHEMA") ||
		strings.Contains(codeStr, "MALFORMED"):
		return "AI"
	case strings.Contains(codeStr, "INPUT"):
		return "VALIDATION"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	default:
		return "OTHER"
	}
}
