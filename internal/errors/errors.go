// Package errors defines the coded error type shared by the API adapter, the
// access gate and privileged actions. Codes drive control flow (a rejected
// credential signs the user out) and metric tags.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	ErrCodeUnauthorized ErrorCode = "unauthorized" // bearer credential rejected
	ErrCodeForbidden    ErrorCode = "forbidden"    // session lacks the required role
	ErrCodeNotFound     ErrorCode = "not_found"
	ErrCodeConflict     ErrorCode = "conflict" // overlaps work already in progress
	ErrCodeValidation   ErrorCode = "validation"
	ErrCodeUnavailable  ErrorCode = "unavailable" // remote unreachable or overloaded
	ErrCodeInternal     ErrorCode = "internal"    // any other non-success status
	ErrCodeCanceled     ErrorCode = "canceled"
)

// AppError is an error with a code and, when it came from a response, the
// HTTP status and an excerpt of the body.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Status  int    // zero when no response was received
	Body    string // diagnostic excerpt, may be empty
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func coded(code ErrorCode, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

func Unauthorized(message string) *AppError {
	return coded(ErrCodeUnauthorized, http.StatusUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return coded(ErrCodeForbidden, http.StatusForbidden, message)
}

func NotFound(message string) *AppError {
	return coded(ErrCodeNotFound, http.StatusNotFound, message)
}

func Conflict(message string) *AppError { return coded(ErrCodeConflict, 0, message) }

func Validation(message string) *AppError { return coded(ErrCodeValidation, 0, message) }

func Validationf(format string, args ...any) *AppError {
	return Validation(fmt.Sprintf(format, args...))
}

// statusCodes lists the statuses with a code other than ErrCodeInternal.
var statusCodes = map[int]ErrorCode{
	http.StatusBadRequest:          ErrCodeValidation,
	http.StatusUnauthorized:        ErrCodeUnauthorized,
	http.StatusForbidden:           ErrCodeForbidden,
	http.StatusNotFound:            ErrCodeNotFound,
	http.StatusConflict:            ErrCodeConflict,
	http.StatusUnprocessableEntity: ErrCodeValidation,
	http.StatusBadGateway:          ErrCodeUnavailable,
	http.StatusServiceUnavailable:  ErrCodeUnavailable,
	http.StatusGatewayTimeout:      ErrCodeUnavailable,
}

// FromStatus maps a non-success HTTP status into an AppError.
func FromStatus(status int, body string) *AppError {
	code, ok := statusCodes[status]
	if !ok {
		code = ErrCodeInternal
	}
	err := coded(code, status, fmt.Sprintf("remote returned status %d", status))
	err.Body = body
	return err
}

// Transport wraps an error raised before any response was received.
// Cancellation is coded canceled; everything else is unavailable.
func Transport(err error) *AppError {
	if err == nil {
		return nil
	}
	code := ErrCodeUnavailable
	if errors.Is(err, context.Canceled) {
		code = ErrCodeCanceled
	}
	return &AppError{Code: code, Message: "request failed", Cause: err}
}

// Wrap attaches code and message to err. It returns nil for a nil err.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

func asApp(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// GetCode returns the code of the first AppError in err's chain, or "".
func GetCode(err error) ErrorCode {
	if appErr, ok := asApp(err); ok {
		return appErr.Code
	}
	return ""
}

// StatusOf returns the HTTP status carried by err, or zero.
func StatusOf(err error) int {
	if appErr, ok := asApp(err); ok {
		return appErr.Status
	}
	return 0
}

func IsUnauthorized(err error) bool { return GetCode(err) == ErrCodeUnauthorized }
func IsForbidden(err error) bool    { return GetCode(err) == ErrCodeForbidden }
func IsNotFound(err error) bool     { return GetCode(err) == ErrCodeNotFound }
func IsConflict(err error) bool     { return GetCode(err) == ErrCodeConflict }
func IsValidation(err error) bool   { return GetCode(err) == ErrCodeValidation }
func IsUnavailable(err error) bool  { return GetCode(err) == ErrCodeUnavailable }

// IsCanceled also matches a bare context.Canceled.
func IsCanceled(err error) bool {
	return GetCode(err) == ErrCodeCanceled || errors.Is(err, context.Canceled)
}
