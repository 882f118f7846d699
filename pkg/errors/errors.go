package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness. Only Message is exposed to
// clients; Code is used for logs and metrics labels.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so wrapped clones compare equal to the predefined values.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// WrapAs wraps err keeping the code, status and message of a predefined error.
func WrapAs(err error, kind *Error) *Error {
	return Wrap(err, kind.Code, kind.Status, kind.Message)
}

// Predefined errors. Messages are the exact client-facing strings.
var (
	ErrMissingFilename   = New("MISSING_FILENAME", http.StatusBadRequest, "Missing 'filename' query parameter")
	ErrMissingPageParams = New("MISSING_PARAMETER", http.StatusBadRequest, "Missing 'filename' or 'page' query parameter")
	ErrInvalidFilename   = New("INVALID_FILENAME", http.StatusBadRequest, "Invalid filename")
	ErrPDFNotFound       = New("PDF_NOT_FOUND", http.StatusNotFound, "PDF not found")
	ErrInvalidPage       = New("INVALID_PAGE_NUMBER", http.StatusBadRequest, "Invalid page number")
	ErrFileTooLarge      = New("FILE_TOO_LARGE", http.StatusRequestEntityTooLarge, "PDF too large to extract")
	ErrExtraction        = New("EXTRACTION_FAILED", http.StatusInternalServerError, "Failed to extract page")
	ErrRateLimited       = New("RATE_LIMITED", http.StatusTooManyRequests, "Too many requests")
	ErrNotReady          = New("NOT_READY", http.StatusServiceUnavailable, "Service initializing")
	ErrNotFound          = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUnauthorized      = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation        = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal          = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss         = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
