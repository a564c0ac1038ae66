package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error codes carried in the API error envelope.
const (
	EINVALID      = "invalid"
	EUNAUTHORIZED = "unauthorized"
	EPAYMENT      = "payment"
	EFORBIDDEN    = "forbidden"
	ENOTFOUND     = "not_found"
	ECONFLICT     = "conflict"
	EGONE         = "gone"
	ERATELIMIT    = "rate_limit"
	EINTERNAL     = "internal"
	ENOTIMPL      = "not_impl"
)

// internalMessage replaces the message of every EINTERNAL error and every
// error that is not an *Error at all.
const internalMessage = "An internal error occurred. Please try again later."

// Error is an application error. Message is safe to show to callers; Op
// and Err are for logs only.
type Error struct {
	Code    string
	Op      string // e.g. "sharing.accept_invitation"
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message}
}

// Errorf creates an Error with a formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return newError(code, op, fmt.Sprintf(format, args...))
}

// asError finds the outermost *Error in err's chain.
func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// ErrorCode returns err's code. Errors from outside the domain are EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the caller-facing message for err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok && e.Code != EINTERNAL {
		return e.Message
	}
	return internalMessage
}

// ErrorOp returns the operation recorded on err, if any.
func ErrorOp(err error) string {
	if e, ok := asError(err); ok {
		return e.Op
	}
	return ""
}

func NotFound(op, resource, id string) *Error {
	return Errorf(ENOTFOUND, op, "%s with ID %q not found", resource, id)
}

func Invalid(op, message string) *Error      { return newError(EINVALID, op, message) }
func Unauthorized(op, message string) *Error { return newError(EUNAUTHORIZED, op, message) }
func Forbidden(op, message string) *Error    { return newError(EFORBIDDEN, op, message) }
func Conflict(op, message string) *Error     { return newError(ECONFLICT, op, message) }
func Gone(op, message string) *Error         { return newError(EGONE, op, message) }

// Internal wraps err; the caller only ever sees the generic message.
func Internal(err error, op, message string) *Error {
	e := newError(EINTERNAL, op, message)
	e.Err = err
	return e
}

func RateLimit(op string) *Error {
	return newError(ERATELIMIT, op, "Too many requests. Please try again later.")
}

// QuotaExceeded reports a tier limit that has been reached.
func QuotaExceeded(op string, kind ResourceKind, count, limit int64) *Error {
	return Errorf(EPAYMENT, op, "%s limit reached (%d of %d). Upgrade your plan to add more.", kind.Label(), count, limit)
}

// CooldownError is a rate limit that knows when it lifts.
type CooldownError struct {
	Err             *Error
	NextAvailableAt time.Time
}

func (e *CooldownError) Error() string { return e.Err.Error() }
func (e *CooldownError) Unwrap() error { return e.Err }

// AnalysisCooldown rejects an AI analysis requested inside the rolling window.
func AnalysisCooldown(op string, next time.Time) *CooldownError {
	return &CooldownError{
		Err: Errorf(ERATELIMIT, op,
			"You already ran an analysis in this period. Next analysis available at %s.",
			next.UTC().Format(time.RFC3339)),
		NextAvailableAt: next,
	}
}

// ValidationError carries per-field messages keyed by JSON field name.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return e.Op + ": validation failed"
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{Op: op, Fields: map[string]string{field: message}}
}
