package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")
)

// Extraction errors. Strategy-level errors never escape the pipeline;
// only ErrSourceFileUnreadable is returned to callers of Process.
var (
	ErrRasterization           = errors.New("rasterization failed")
	ErrRecognitionEngine       = errors.New("recognition engine failed")
	ErrAllConfigurationsFailed = errors.New("all recognizer configurations failed")
	ErrNotApplicable           = errors.New("strategy not applicable to source")
	ErrSourceFileUnreadable    = errors.New("source file unreadable")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}
