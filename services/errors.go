package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrorKind classifies service failures for the transport layer.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindValidation   ErrorKind = "VALIDATION_ERROR"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindInternal     ErrorKind = "INTERNAL"
)

// AppError carries a machine-readable kind and a message safe to show the caller.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(what string) *AppError {
	return &AppError{Kind: KindNotFound, Message: what + " not found"}
}

func Validation(format string, args ...any) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func Internal(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for anything that is not an AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// notFoundOr maps gorm's ErrRecordNotFound to NotFound(what) and wraps anything else.
func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(what)
	}
	return Internal("failed to load "+what, err)
}

// passThrough keeps AppErrors raised inside a transaction intact.
func passThrough(err error, message string) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(message, err)
}
