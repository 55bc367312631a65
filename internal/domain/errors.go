package domain

import (
	"errors"
	"net/http"
)

// Error kinds. Every error leaving the service layer wraps exactly one.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("too many requests")
	ErrInternal     = errors.New("internal error")
)

// Error is a classified failure. Message and Details are safe to show to
// clients; Cause is for logs only.
type Error struct {
	Kind    error
	Message string
	Details []string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap yields the kind only. Cause is not part of the errors.Is chain.
func (e *Error) Unwrap() error {
	return e.Kind
}

func NewValidationError(message string, details ...string) error {
	return &Error{Kind: ErrValidation, Message: message, Details: details}
}

func NewUnauthorizedError(message string) error {
	return &Error{Kind: ErrUnauthorized, Message: message}
}

func NewForbiddenError(message string) error {
	return &Error{Kind: ErrForbidden, Message: message}
}

func NewNotFoundError(message string) error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func NewConflictError(message string) error {
	return &Error{Kind: ErrConflict, Message: message}
}

func NewRateLimitedError(message string) error {
	return &Error{Kind: ErrRateLimited, Message: message}
}

func NewInternalError(message string, cause error) error {
	return &Error{Kind: ErrInternal, Message: message, Cause: cause}
}

// HTTPStatus maps err to a response status. Unclassified errors are 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the client-facing message for err.
func PublicMessage(err error) (string, []string) {
	var de *Error
	if errors.As(err, &de) && !errors.Is(de.Kind, ErrInternal) {
		return de.Message, de.Details
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "Resource not found", nil
	case errors.Is(err, ErrConflict):
		return "Resource already exists", nil
	}
	return "Internal server error", nil
}
