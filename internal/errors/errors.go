package errors

import "fmt"

// ErrorCode represents a Buling error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"  // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"        // 404
	ErrUpstreamRequest ErrorCode = "UPSTREAM_REQUEST" // 502: non-2xx from the completion provider
	ErrUpstreamParse   ErrorCode = "UPSTREAM_PARSE"   // 502: unusable payload from the provider
	ErrStreamTransport ErrorCode = "STREAM_TRANSPORT" // 502: failure mid-stream
	ErrInternal        ErrorCode = "INTERNAL"         // 500
)

// BulingError represents a structured error with code, status, and details.
type BulingError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *BulingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *BulingError {
	return &BulingError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing record.
func NewNotFound(identifier string) *BulingError {
	return &BulingError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("record not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewUpstreamRequest creates a 502 error carrying the provider's HTTP status.
func NewUpstreamRequest(status int, statusText string) *BulingError {
	return &BulingError{
		Code:    ErrUpstreamRequest,
		Status:  502,
		Message: fmt.Sprintf("upstream request failed: %d %s", status, statusText),
		Details: map[string]any{"upstream_status": status, "upstream_status_text": statusText},
	}
}

// NewUpstreamParse creates a 502 error for malformed provider payloads.
func NewUpstreamParse(msg string) *BulingError {
	return &BulingError{
		Code:    ErrUpstreamParse,
		Status:  502,
		Message: msg,
	}
}

// NewStreamTransport creates a 502 error for mid-stream read failures.
func NewStreamTransport(err error) *BulingError {
	msg := "stream transport failure"
	if err != nil {
		msg = err.Error()
	}
	return &BulingError{
		Code:    ErrStreamTransport,
		Status:  502,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *BulingError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &BulingError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a BulingError with the given code.
func Is(err error, code ErrorCode) bool {
	if bErr, ok := err.(*BulingError); ok {
		return bErr.Code == code
	}
	return false
}
