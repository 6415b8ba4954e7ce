// Package apperrors defines the error kinds callers of the service layer can
// branch on.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindInsufficientCredits  Kind = "insufficient_credits"
	KindProviderFailure      Kind = "provider_failure"
	KindConfigurationMissing Kind = "configuration_missing"
	KindInvalidInput         Kind = "invalid_input"
	KindUnauthorized         Kind = "unauthorized"
	KindConflict             Kind = "conflict"
	KindInternal             Kind = "internal"
)

// AppError is a typed error with an optional underlying cause.
type AppError struct {
	Kind    Kind
	Message string
	Cause   error
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

// New creates an AppError without a cause.
func New(kind Kind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an AppError around cause.
func Wrap(kind Kind, cause error, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func NotFound(format string, args ...any) *AppError {
	return New(KindNotFound, format, args...)
}

func InsufficientCredits(format string, args ...any) *AppError {
	return New(KindInsufficientCredits, format, args...)
}

func InvalidInput(format string, args ...any) *AppError {
	return New(KindInvalidInput, format, args...)
}

func Unauthorized(format string, args ...any) *AppError {
	return New(KindUnauthorized, format, args...)
}

func Conflict(format string, args ...any) *AppError {
	return New(KindConflict, format, args...)
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries an AppError of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

func IsNotFound(err error) bool            { return Is(err, KindNotFound) }
func IsInsufficientCredits(err error) bool { return Is(err, KindInsufficientCredits) }
func IsInvalidInput(err error) bool        { return Is(err, KindInvalidInput) }
func IsUnauthorized(err error) bool        { return Is(err, KindUnauthorized) }
func IsConflict(err error) bool            { return Is(err, KindConflict) }

// HTTPStatus maps err to the status code the API responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientCredits:
		return http.StatusPaymentRequired
	case KindProviderFailure:
		return http.StatusBadGateway
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
