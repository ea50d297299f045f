package apperror

import (
	"errors"
	"net/http"
)

// AppError carries the HTTP status a failure should surface as, plus the user-facing message.
type AppError struct {
	Code    int    // HTTP status code
	Message string // safe to show to clients
	Err     error  // underlying cause, never exposed
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches two AppErrors by code and message so wrapped sentinels still compare equal.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(err error, code int, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// StoreFailure wraps an unexpected storage error as a 500.
func StoreFailure(err error) *AppError {
	return Wrap(err, http.StatusInternalServerError, "storage failure")
}

// StatusOf returns the HTTP status carried by err, or 500 if err is not an AppError.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
