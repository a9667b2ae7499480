package retry

import (
	"errors"
	"fmt"
)

// ErrQuotaExhausted matches every terminal quota failure returned by Run.
var ErrQuotaExhausted = errors.New("provider quota exhausted")

// QuotaExhaustedError is returned when an attempt still fails with a quota
// error after the last allowed attempt.
type QuotaExhaustedError struct {
	// Attempts is the number of attempts made.
	Attempts int

	// Err is the quota error returned by the last attempt.
	Err error
}

// Error implements the error interface.
func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrQuotaExhausted, e.Attempts, e.Err)
}

// Unwrap returns the last attempt's error.
func (e *QuotaExhaustedError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrQuotaExhausted) match.
func (e *QuotaExhaustedError) Is(target error) bool {
	return target == ErrQuotaExhausted
}
