package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is returned when input has a bad shape or content.
	ErrValidation = errors.New("validation error")
	// ErrAuth is returned for bad credentials or an unusable token.
	ErrAuth = errors.New("authentication error")
	// ErrForbidden is returned when the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on duplicate registration.
	ErrConflict = errors.New("conflict")
	// ErrInvalidTransition is returned for an illegal order status change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUpstream is returned when the database or payment gateway is unavailable.
	ErrUpstream = errors.New("upstream unavailable")
)

// DomainError carries a user-facing message together with its kind.
// errors.Is(err, ErrNotFound) works on any wrapped DomainError.
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

// New creates a DomainError of the given kind.
func New(kind error, message string) error {
	return &DomainError{Kind: kind, Message: message}
}

// Validation creates a validation error.
func Validation(message string) error { return New(ErrValidation, message) }

// Auth creates an authentication error.
func Auth(message string) error { return New(ErrAuth, message) }

// Forbidden creates a forbidden error.
func Forbidden(message string) error { return New(ErrForbidden, message) }

// NotFound creates a not-found error.
func NotFound(message string) error { return New(ErrNotFound, message) }

// Conflict creates a conflict error.
func Conflict(message string) error { return New(ErrConflict, message) }

// InvalidTransition creates an invalid transition error.
func InvalidTransition(message string) error { return New(ErrInvalidTransition, message) }

// Upstream creates an upstream error.
func Upstream(message string) error { return New(ErrUpstream, message) }

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: e.Message,
		Code:    e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
// Errors outside the taxonomy never leak their text to the client.
func MapErrorToHTTP(err error) *HTTPError {
	var de *DomainError
	if !errors.As(err, &de) {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}

	switch de.Kind {
	case ErrValidation:
		return NewHTTPError(http.StatusBadRequest, de.Message, "VALIDATION_ERROR")
	case ErrAuth:
		return NewHTTPError(http.StatusUnauthorized, de.Message, "AUTH_ERROR")
	case ErrForbidden:
		return NewHTTPError(http.StatusForbidden, de.Message, "FORBIDDEN")
	case ErrNotFound:
		return NewHTTPError(http.StatusNotFound, de.Message, "NOT_FOUND")
	case ErrConflict:
		return NewHTTPError(http.StatusConflict, de.Message, "CONFLICT")
	case ErrInvalidTransition:
		return NewHTTPError(http.StatusConflict, de.Message, "INVALID_TRANSITION")
	case ErrUpstream:
		return NewHTTPError(http.StatusBadGateway, de.Message, "UPSTREAM_ERROR")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
