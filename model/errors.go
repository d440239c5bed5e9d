package model

import "fmt"

// Standard error codes.
const (
	ErrBadRequest      = "BAD_REQUEST"
	ErrNotFound        = "NOT_FOUND"
	ErrConflict        = "CONFLICT"
	ErrPayloadTooLarge = "PAYLOAD_TOO_LARGE"
	ErrUnprocessable   = "UNPROCESSABLE"
	ErrInternalError   = "INTERNAL_ERROR"
)

// ErrorEnvelope is the standard error response envelope returned by the API.
// It implements the error interface.
type ErrorEnvelope struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Error implements the error interface.
func (e *ErrorEnvelope) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError returns a BAD_REQUEST error.
func NewBadRequestError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrBadRequest, Message: msg}
}

// NewNotFoundError returns a NOT_FOUND error.
func NewNotFoundError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrNotFound, Message: msg}
}

// NewConflictError returns a CONFLICT error.
func NewConflictError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrConflict, Message: msg}
}

// NewPayloadTooLargeError returns a PAYLOAD_TOO_LARGE error.
func NewPayloadTooLargeError(limit int64) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrPayloadTooLarge,
		Message: fmt.Sprintf("Request body exceeds %d bytes", limit),
	}
}

// NewUnprocessableError returns an UNPROCESSABLE error.
func NewUnprocessableError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrUnprocessable, Message: msg}
}

// NewInternalError returns an INTERNAL_ERROR.
func NewInternalError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrInternalError,
		Message: "An unexpected error occurred",
	}
}
