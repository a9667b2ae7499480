package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/scry-batch/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrBatchNotFound indicates the batch does not exist or belongs to another user.
	// API layer should map this to HTTP 404 Not Found.
	ErrBatchNotFound = errors.New("batch not found")
)

// BatchServiceError wraps errors from the batch service with context.
type BatchServiceError struct {
	// Operation is the operation that failed (e.g., "run_batch", "get_batch")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for BatchServiceError.
func (e *BatchServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("batch service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("batch service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *BatchServiceError) Unwrap() error {
	return e.Err
}

// NewBatchServiceError creates a new BatchServiceError.
// It returns known sentinel errors directly without wrapping.
func NewBatchServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrBatchNotFound) || errors.Is(err, store.ErrBatchNotFound) {
		return ErrBatchNotFound
	}

	return &BatchServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
