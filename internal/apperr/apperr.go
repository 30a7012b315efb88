// Package apperr defines the error taxonomy returned by callable operations.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a failure class visible to callers.
type Code string

const (
	CodeUnauthenticated    Code = "unauthenticated"
	CodePermissionDenied   Code = "permission-denied"
	CodeInvalidArgument    Code = "invalid-argument"
	CodeNotFound           Code = "not-found"
	CodeFailedPrecondition Code = "failed-precondition"
	CodeAlreadyExists      Code = "already-exists"
	CodeInternal           Code = "internal"
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func Unauthenticated(message string) *Error    { return New(CodeUnauthenticated, message) }
func PermissionDenied(message string) *Error   { return New(CodePermissionDenied, message) }
func InvalidArgument(message string) *Error    { return New(CodeInvalidArgument, message) }
func NotFound(message string) *Error           { return New(CodeNotFound, message) }
func FailedPrecondition(message string) *Error { return New(CodeFailedPrecondition, message) }
func AlreadyExists(message string) *Error      { return New(CodeAlreadyExists, message) }

// Internal hides the underlying error from the caller-visible message.
func Internal(err error) *Error {
	return Wrap(err, CodeInternal, "internal error")
}

// CodeOf returns the taxonomy code of err; unknown errors are Internal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// PublicMessage is the message safe to return to a caller.
func PublicMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Code != CodeInternal {
		return ae.Message
	}
	return "internal error"
}

// HTTPStatus maps a code to its HTTP status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeFailedPrecondition:
		return http.StatusPreconditionFailed
	case CodeAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
