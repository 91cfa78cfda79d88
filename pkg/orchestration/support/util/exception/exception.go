// Package exception provides the error types shared by the orchestration core.
// Every error surfaced by the facade carries a Code so callers can classify it
// (NotFound, UnknownOperation, InvalidState, ValidationError) without parsing messages.
package exception

import (
	"context"
	"errors"
	"fmt"
	"runtime"
)

// ErrorCode classifies an OrchestrationError.
type ErrorCode string

const (
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeUnknownOperation ErrorCode = "UNKNOWN_OPERATION"
	CodeInvalidState     ErrorCode = "INVALID_STATE"
	CodeValidation       ErrorCode = "VALIDATION_ERROR"
	CodeProcessing       ErrorCode = "PROCESSING_ERROR"
	CodeTimeout          ErrorCode = "TIMEOUT"
)

// Sentinel errors matched by code through errors.Is.
var (
	ErrNotFound         = &OrchestrationError{Code: CodeNotFound, Message: "not found"}
	ErrUnknownOperation = &OrchestrationError{Code: CodeUnknownOperation, Message: "unknown operation"}
	ErrInvalidState     = &OrchestrationError{Code: CodeInvalidState, Message: "invalid state"}
	ErrValidation       = &OrchestrationError{Code: CodeValidation, Message: "validation failed"}
	ErrProcessing       = &OrchestrationError{Code: CodeProcessing, Message: "processing failed"}
	ErrTimeout          = &OrchestrationError{Code: CodeTimeout, Message: "timed out"}
)

// OrchestrationError is the error type returned by the orchestration core.
// It holds the module where the error occurred, a classification code,
// a message and the wrapped original error.
type OrchestrationError struct {
	// Module indicates where the error occurred (e.g., "batch_runner", "workflow_executor", "orchestrator").
	Module string
	// Code classifies the error.
	Code ErrorCode
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// StackTrace is captured at construction time for debugging.
	StackTrace string
}

// NewOrchestrationError creates a new OrchestrationError.
func NewOrchestrationError(module string, code ErrorCode, message string, originalErr error) *OrchestrationError {
	return &OrchestrationError{
		Module:      module,
		Code:        code,
		Message:     message,
		OriginalErr: originalErr,
		StackTrace:  captureStack(),
	}
}

// NewOrchestrationErrorf creates a new OrchestrationError using a format string.
// If the last argument is an error it is used as the wrapped original error and
// removed from the format arguments.
//
// Example:
//
//	NewOrchestrationErrorf("orchestrator", CodeNotFound, "batch job '%s' not found", id, repository.ErrBatchJobNotFound)
func NewOrchestrationErrorf(module string, code ErrorCode, format string, a ...interface{}) *OrchestrationError {
	var originalErr error
	args := a
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}
	return &OrchestrationError{
		Module:      module,
		Code:        code,
		Message:     fmt.Sprintf(format, args...),
		OriginalErr: originalErr,
		StackTrace:  captureStack(),
	}
}

func captureStack() string {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// Error implements the error interface.
func (e *OrchestrationError) Error() string {
	if e.Module == "" {
		return e.Message
	}
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *OrchestrationError) Unwrap() error {
	return e.OriginalErr
}

// Is reports whether target is an OrchestrationError with the same code.
// This lets errors.Is(err, ErrNotFound) match any not-found error.
func (e *OrchestrationError) Is(target error) bool {
	var t *OrchestrationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// IsOrchestrationError determines if the given error is an OrchestrationError.
func IsOrchestrationError(err error) bool {
	var oe *OrchestrationError
	return errors.As(err, &oe)
}

// CodeOf returns the code of the first OrchestrationError in the chain.
// Context deadlines map to CodeTimeout; anything else is CodeProcessing.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var oe *OrchestrationError
	if errors.As(err, &oe) && oe.Code != "" {
		return oe.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	return CodeProcessing
}

// ExtractErrorMessage extracts the error message string from an error.
// For OrchestrationError, it returns the cleaner Message field.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var oe *OrchestrationError
	if errors.As(err, &oe) {
		if oe.OriginalErr != nil && oe.Code == CodeProcessing {
			return fmt.Sprintf("%s: %v", oe.Message, oe.OriginalErr)
		}
		return oe.Message
	}
	return err.Error()
}
