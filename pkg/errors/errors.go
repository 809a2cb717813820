package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Common errors
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrUpstream     = errors.New("upstream failure")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)

// Code classifies an error for callers and for the HTTP boundary.
type Code string

const (
	CodeValidation   Code = "VALIDATION"
	CodeNotFound     Code = "NOT_FOUND"
	CodeRateLimited  Code = "RATE_LIMITED"
	CodeUpstream     Code = "UPSTREAM"
	CodeConflict     Code = "CONFLICT"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeInternal     Code = "INTERNAL"
)

var sentinels = map[Code]error{
	CodeValidation:   ErrValidation,
	CodeNotFound:     ErrNotFound,
	CodeRateLimited:  ErrRateLimited,
	CodeUpstream:     ErrUpstream,
	CodeConflict:     ErrConflict,
	CodeUnauthorized: ErrUnauthorized,
	CodeInternal:     ErrInternal,
}

// Error represents a custom error type
type Error struct {
	Code       Code
	Message    string
	Details    any
	RetryAfter time.Duration
	Err        error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil && !isSentinel(e.Err) {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's code, so a typed error wrapping an
// arbitrary cause still satisfies errors.Is(err, ErrUpstream).
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

func isSentinel(err error) bool {
	for _, s := range sentinels {
		if s == err {
			return true
		}
	}
	return false
}

// New creates a new error with a message
func New(message string) error {
	return &Error{
		Code:    CodeInternal,
		Message: message,
	}
}

// Validation reports malformed input. Not retried.
func Validation(format string, args ...any) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: fmt.Sprintf(format, args...),
		Err:     ErrValidation,
	}
}

// NotFound reports an absent resource. Not retried.
func NotFound(format string, args ...any) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf(format, args...),
		Err:     ErrNotFound,
	}
}

// RateLimited reports a remote 429. retryAfter is zero when the remote gave no hint.
func RateLimited(retryAfter time.Duration, format string, args ...any) *Error {
	return &Error{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf(format, args...),
		RetryAfter: retryAfter,
		Err:        ErrRateLimited,
	}
}

// Upstream reports a network failure, timeout or 5xx.
func Upstream(err error, format string, args ...any) *Error {
	if err == nil {
		err = ErrUpstream
	}
	return &Error{
		Code:    CodeUpstream,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// Conflict reports a uniqueness violation.
func Conflict(format string, args ...any) *Error {
	return &Error{
		Code:    CodeConflict,
		Message: fmt.Sprintf(format, args...),
		Err:     ErrConflict,
	}
}

// Wrap wraps an error with additional message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    CodeOf(err),
		Message: message,
		Err:     err,
	}
}

// WrapWithCode wraps an error with a code and message
func WrapWithCode(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails attaches a details payload rendered at the HTTP boundary.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// CodeOf returns the code of the first typed error in the chain, falling
// back to sentinel matching and finally to CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	for code, s := range sentinels {
		if errors.Is(err, s) {
			return code
		}
	}
	return CodeInternal
}

// GetMessage returns the error message
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

// DetailsOf returns the details payload of the first typed error in the chain.
func DetailsOf(err error) any {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// RetryAfterOf returns the remote retry hint carried by a rate limit error.
func RetryAfterOf(err error) (time.Duration, bool) {
	var e *Error
	if errors.As(err, &e) && e.Code == CodeRateLimited {
		return e.RetryAfter, e.RetryAfter > 0
	}
	return 0, false
}

// IsValidation returns true if the error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRateLimited returns true if the error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsUpstream returns true if the error is an upstream error
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}

// IsUnauthorized returns true if the error is an unauthorized error
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// HTTPStatus maps a code onto the status used by the API layer.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUpstream:
		return http.StatusBadGateway
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
