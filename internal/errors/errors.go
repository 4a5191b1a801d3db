package errors

import (
	"fmt"
	"net/http"
)

// APIError is an error with a known HTTP status and problem type
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Type       string      `json:"-"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// ValidationError describes one rejected request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError
func New(statusCode int, errorCode, problemType, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Type:       problemType,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, problemType, message string, details interface{}) *APIError {
	e := New(statusCode, errorCode, problemType, message)
	e.Details = details
	return e
}

var (
	ErrInvalidRequest     = New(http.StatusBadRequest, "INVALID_REQUEST", TypeValidation, "Invalid request format")
	ErrNotFound           = New(http.StatusNotFound, "NOT_FOUND", TypeNotFound, "Resource not found")
	ErrRateLimitExceeded  = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", TypeRateLimit, "Rate limit exceeded")
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", TypeServiceDown, "Service temporarily unavailable")
	ErrInternalServer     = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", TypeInternal, "Internal server error")
)

// InvalidRequestWithError creates an invalid request error carrying the cause
func InvalidRequestWithError(err error) *APIError {
	return New(http.StatusBadRequest, "INVALID_REQUEST", TypeValidation, err.Error())
}

// NewValidationErrors creates a validation error listing every rejected field
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", TypeValidation, "Request validation failed", errs)
}

// NotFoundError creates a not found error for a resource
func NotFoundError(resource, id string) *APIError {
	return New(http.StatusNotFound, "NOT_FOUND", TypeNotFound, fmt.Sprintf("%s %s not found", resource, id))
}

// UnsupportedFileError rejects an upload the ingestion layer cannot read
func UnsupportedFileError(err error) *APIError {
	return New(http.StatusUnprocessableEntity, "UNSUPPORTED_FILE", TypeUnsupportedFile, err.Error())
}

// PayloadTooLargeError rejects an oversized upload
func PayloadTooLargeError(err error) *APIError {
	return New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", TypePayloadTooLarge, err.Error())
}

// IngestionError reports a source that could not be read
func IngestionError(err error) *APIError {
	return New(http.StatusBadGateway, "INGESTION_FAILED", TypeIngestion, err.Error())
}
