package model

import "fmt"

// Standard error codes.
const (
	ErrBadRequest      = "BAD_REQUEST"
	ErrNotFound        = "NOT_FOUND"
	ErrValidationError = "VALIDATION_ERROR"
	ErrRateLimited     = "RATE_LIMITED"
	ErrInternalError   = "INTERNAL_ERROR"
)

// Comparison-specific error codes.
const (
	ErrSessionNotFound = "SESSION_NOT_FOUND"
	ErrUnknownAction   = "UNKNOWN_ACTION"
	ErrDataNotLoaded   = "DATA_NOT_LOADED"
	ErrSessionLimit    = "SESSION_LIMIT"
)

// ErrorEnvelope is the standard error response envelope returned by the API.
// It implements the error interface.
type ErrorEnvelope struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
	TraceID string       `json:"trace_id"`
}

func (e *ErrorEnvelope) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an envelope with the same code, so that
// errors.Is(err, &ErrorEnvelope{Code: ErrSessionNotFound}) matches any
// missing session.
func (e *ErrorEnvelope) Is(target error) bool {
	t, ok := target.(*ErrorEnvelope)
	return ok && t != nil && e != nil && t.Code == e.Code
}

// FieldError describes a field-level validation error.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewBadRequestError returns a BAD_REQUEST error.
func NewBadRequestError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrBadRequest, Message: msg}
}

// NewNotFoundError returns a NOT_FOUND error.
func NewNotFoundError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrNotFound, Message: msg}
}

// NewValidationError returns a VALIDATION_ERROR with field-level details.
func NewValidationError(details []FieldError) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrValidationError,
		Message: "One or more fields are invalid",
		Details: details,
	}
}

// NewInternalError returns an INTERNAL_ERROR.
func NewInternalError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrInternalError,
		Message: "An unexpected error occurred",
	}
}

// NewRateLimitedError returns a RATE_LIMITED error.
func NewRateLimitedError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrRateLimited,
		Message: "Rate limit exceeded. Please try again later.",
	}
}

// NewSessionNotFoundError returns a SESSION_NOT_FOUND error.
func NewSessionNotFoundError(id string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrSessionNotFound,
		Message: fmt.Sprintf("session %q not found or expired", id),
	}
}

// NewUnknownActionError returns an UNKNOWN_ACTION error.
func NewUnknownActionError(kind string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrUnknownAction,
		Message: fmt.Sprintf("unknown action type %q", kind),
	}
}

// NewDataNotLoadedError returns a DATA_NOT_LOADED error.
func NewDataNotLoadedError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrDataNotLoaded,
		Message: "The comparison data has not been loaded yet",
	}
}

// NewSessionLimitError returns a SESSION_LIMIT error.
func NewSessionLimitError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrSessionLimit,
		Message: "Too many active sessions. Please try again later.",
	}
}
