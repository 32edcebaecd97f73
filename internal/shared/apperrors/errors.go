package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a rejection so controllers can map it to a transport status
// and callers can decide whether to retry, pick different units, or abandon.
type Kind string

const (
	KindNotFound       Kind = "NOT_FOUND"
	KindConflict       Kind = "CONFLICT"
	KindGone           Kind = "GONE"
	KindRateLimited    Kind = "RATE_LIMITED"
	KindPaymentFailed  Kind = "PAYMENT_FAILED"
	KindInvalidRequest Kind = "INVALID_REQUEST"
	KindForbidden      Kind = "FORBIDDEN"
	KindInternal       Kind = "INTERNAL"
)

// Error is a structured rejection. Details carries machine-readable context
// such as the list of unavailable unit labels or seconds remaining on a hold.
type Error struct {
	Kind    Kind                   `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Retryable reports whether the caller may retry the same request unchanged.
func (e *Error) Retryable() bool {
	return e.Kind == KindRateLimited
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause that survives errors.Is/errors.As chains.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithDetails returns the error with the given detail map attached.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

func NotFound(what string) *Error {
	return Newf(KindNotFound, "%s not found", what)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// KindOf extracts the Kind from any error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// From returns the *Error in the chain, or wraps err as an internal error.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(KindInternal, "internal error", err)
}

// HTTPStatus maps a Kind to its transport status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindGone:
		return http.StatusGone
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindPaymentFailed:
		return http.StatusPaymentRequired
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
