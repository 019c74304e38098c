package errors

import (
	"net/http"
	"strconv"
)

// Error codes are stable, machine-readable identifiers. The client maps them
// to user-facing copy; backend logs stay in English.

// Event error codes.
const (
	CodeEventNotFound     = "EVENT_NOT_FOUND"
	CodeInvalidEventID    = "INVALID_EVENT_ID"
	CodeInvalidTimePeriod = "INVALID_TIME_PERIOD"
)

// User and auth error codes.
const (
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeUserExists         = "USER_ALREADY_EXISTS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenInvalid       = "TOKEN_INVALID"
)

// Request error codes.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeRateLimited      = "RATE_LIMITED"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
)

// Upstream and internal error codes.
const (
	CodeInternal              = "INTERNAL_ERROR"
	CodeVideoProcessingFailed = "VIDEO_PROCESSING_FAILED"
	CodeUnsupportedPlatform   = "UNSUPPORTED_PLATFORM"
	CodeUploadFailed          = "UPLOAD_FAILED"
	CodeServiceUnavailable    = "SERVICE_UNAVAILABLE"
)

// ErrEventNotFoundf creates an event not found error.
func ErrEventNotFoundf(id int64) *AppError {
	return NotFound(CodeEventNotFound, "event not found").
		WithParams(map[string]interface{}{"id": strconv.FormatInt(id, 10)})
}

// ErrValidationf creates a 400 carrying field-level details.
func ErrValidationf(fieldErrors []FieldError) *AppError {
	return BadRequest(CodeValidationFailed, "request validation failed").
		WithFieldErrors(fieldErrors)
}

// ErrVideoProcessingf wraps any failure inside the video ingestion chain.
func ErrVideoProcessingf(err error) *AppError {
	msg := "failed to process video"
	if err != nil {
		msg = err.Error()
	}
	return Wrap(err, CodeVideoProcessingFailed, msg, http.StatusInternalServerError)
}

// ErrRateLimitedf creates a 429 error.
func ErrRateLimitedf() *AppError {
	return New(CodeRateLimited, "too many requests", http.StatusTooManyRequests)
}
