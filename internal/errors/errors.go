package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode represents a category of client-side error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the backend reported a missing resource.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeUnauthorized indicates the backend rejected the bearer token (401).
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeForbidden indicates the caller lacks permission (403).
	ErrCodeForbidden ErrorCode = "forbidden"
	// ErrCodeConflict indicates a conflict with existing data (409).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input, either caught locally or rejected by the backend.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeUpstream indicates any other non-2xx response.
	ErrCodeUpstream ErrorCode = "upstream"
	// ErrCodeTransport indicates the request never produced a response (DNS, TLS, connection reset).
	ErrCodeTransport ErrorCode = "transport"
	// ErrCodeDecode indicates a response body that could not be decoded.
	ErrCodeDecode ErrorCode = "decode"
	// ErrCodeBusy indicates another mutating call is already in flight on the same instance.
	ErrCodeBusy ErrorCode = "busy"
	// ErrCodeInternal indicates a client bug or unexpected local failure.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError is a structured error with a code, message, and optional cause.
// It supports wrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error (optional)
	Cause error
	// Field is the single offending field (optional, validation only)
	Field string
	// Fields maps every offending field to its message (optional, validation only)
	Fields map[string]string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// HTTPStatusError records a non-2xx response. It is usually the Cause of an AppError.
type HTTPStatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, body)
}

// New creates an AppError with the given code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf(format, args...))
}

// Unauthorized creates a new Unauthorized error.
func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

// Busy creates a new Busy error.
func Busy(message string) *AppError {
	return New(ErrCodeBusy, message)
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
		Fields:  map[string]string{field: message},
	}
}

// ValidationFields turns a field->message map into a single Validation error.
// It returns nil when fields is empty.
func ValidationFields(fields map[string]string) *AppError {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, fields[name])
	}

	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &AppError{
		Code:    ErrCodeValidation,
		Message: strings.Join(msgs, " "),
		Field:   names[0],
		Fields:  copied,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return New(ErrCodeInternal, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsUnauthorized checks if an error is an Unauthorized error.
func IsUnauthorized(err error) bool { return isCode(err, ErrCodeUnauthorized) }

// IsForbidden checks if an error is a Forbidden error.
func IsForbidden(err error) bool { return isCode(err, ErrCodeForbidden) }

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool { return isCode(err, ErrCodeConflict) }

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsBusy checks if an error is a Busy error.
func IsBusy(err error) bool { return isCode(err, ErrCodeBusy) }

// IsTransport checks if an error is a Transport error.
func IsTransport(err error) bool { return isCode(err, ErrCodeTransport) }

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool { return isCode(err, ErrCodeTimeout) }

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool { return isCode(err, ErrCodeCanceled) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// GetFields returns the per-field validation messages carried by err, if any.
func GetFields(err error) map[string]string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

// StatusCode returns the HTTP status carried by err, or 0 when there is none.
func StatusCode(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// UserMessage converts err into the short message shown to an operator.
// fallback is used for codes that carry no user-facing meaning of their own.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	switch GetCode(err) {
	case ErrCodeNotFound:
		return "record not found"
	case ErrCodeUnauthorized:
		return "session expired, please log in again"
	case ErrCodeForbidden:
		return "you do not have permission to perform this action"
	case ErrCodeBusy:
		return "another change is still in progress"
	case ErrCodeValidation:
		var appErr *AppError
		if errors.As(err, &appErr) && appErr.Message != "" {
			return appErr.Message
		}
	case ErrCodeTimeout:
		return fallback + " (request timed out)"
	}
	return fallback
}
