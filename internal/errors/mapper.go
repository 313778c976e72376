// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Kind classifies a domain failure. Each kind has one HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnavailable
	KindExpired
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) Status() int {
	switch k {
	case KindValidation, KindUnavailable, KindExpired, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error whose Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	// Details is optional structured context (field errors, flags).
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(k Kind, msg string) *Error { return &Error{Kind: k, Message: msg} }

// InvalidArgument creates a Validation error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error { return newErr(KindValidation, msg) }

// NotFound creates a NotFound error.
func NotFound(msg string) error { return newErr(KindNotFound, msg) }

// Unavailable means the target exists but cannot be acted on.
func Unavailable(msg string) error { return newErr(KindUnavailable, msg) }

// Expired means a time window has passed.
func Expired(msg string) error { return newErr(KindExpired, msg) }

// AlreadyExists creates a Conflict error.
func AlreadyExists(msg string) error { return newErr(KindConflict, msg) }

func Unauthorized(msg string) error { return newErr(KindUnauthorized, msg) }

func Forbidden(msg string, details map[string]any) error {
	e := newErr(KindForbidden, msg)
	e.Details = details
	return e
}

// FieldErrors creates a Validation error carrying per-field messages.
func FieldErrors(msg string, fields []FieldError) error {
	e := newErr(KindValidation, msg)
	e.Details = map[string]any{"errors": fields}
	return e
}

// FieldError is one failed input rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Internal wraps an unexpected failure under a client-safe message.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// IsKind reports whether err is a domain error of kind k.
func IsKind(err error, k Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == k
}

// HTTPError is the boundary view of an error.
type HTTPError struct {
	Status  int
	Message string
	Details map[string]any
}

// Map converts domain/repo/infra errors into an HTTP status and message.
// Keeps the handler layer clean by centralizing error mapping. Internal
// details are only exposed when exposeInternal is set (development).
func Map(err error, exposeInternal bool) HTTPError {
	if err == nil {
		return HTTPError{Status: http.StatusOK}
	}

	var de *Error
	switch {
	case errors.As(err, &de) && de.Kind != KindInternal:
		return HTTPError{Status: de.Kind.Status(), Message: de.Message, Details: de.Details}

	case errors.Is(err, gorm.ErrRecordNotFound):
		return HTTPError{Status: http.StatusNotFound, Message: "record not found"}

	case errors.Is(err, context.DeadlineExceeded):
		return HTTPError{Status: http.StatusGatewayTimeout, Message: "request timed out"}

	case errors.Is(err, context.Canceled):
		return HTTPError{Status: http.StatusRequestTimeout, Message: "request was canceled"}

	default:
		if exposeInternal {
			return HTTPError{Status: http.StatusInternalServerError, Message: err.Error()}
		}
		return HTTPError{Status: http.StatusInternalServerError, Message: "Internal server error"}
	}
}
