package generation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate text")

	// ErrInvalidResponse is returned when the LLM response is empty or malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrEmptyContent is returned when there is nothing to generate from
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidOptions is returned when generation options are not usable
	ErrInvalidOptions = errors.New("invalid generation options")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

// statusResourceExhausted is the canonical gRPC/Google API status for quota errors.
const statusResourceExhausted = "RESOURCE_EXHAUSTED"

// quotaKeywords are lower-case message fragments that providers use when
// throttling. Keep this in sync with whichever provider is bound.
var quotaKeywords = []string{
	"quota",
	"rate limit",
	"rate-limit",
	"ratelimit",
	"too many requests",
	"resource_exhausted",
	"resource exhausted",
}

// ProviderError describes a failure reported by the generation provider.
type ProviderError struct {
	// Code is the HTTP status code returned by the provider, if any.
	Code int

	// Status is the provider's symbolic status, e.g. "RESOURCE_EXHAUSTED".
	Status string

	// Message is the provider's error message.
	Message string

	// RetryAfter is the provider-supplied delay before retrying.
	// Zero means no hint was given.
	RetryAfter time.Duration

	// Err is the underlying client error.
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString("provider error")
	if e.Code != 0 {
		fmt.Fprintf(&b, " %d", e.Code)
	}
	if e.Status != "" {
		fmt.Fprintf(&b, " (%s)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap returns the underlying client error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsQuotaError reports whether err signals that the provider is throttling
// the caller: an HTTP 429, a RESOURCE_EXHAUSTED status, or a message that
// mentions quota or rate limiting.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		if perr.Code == http.StatusTooManyRequests || strings.EqualFold(perr.Status, statusResourceExhausted) {
			return true
		}
		if containsQuotaKeyword(perr.Message) {
			return true
		}
	}

	return containsQuotaKeyword(err.Error())
}

// RetryAfter returns the provider-supplied retry hint carried by err.
func RetryAfter(err error) (time.Duration, bool) {
	var perr *ProviderError
	if errors.As(err, &perr) && perr.RetryAfter > 0 {
		return perr.RetryAfter, true
	}
	return 0, false
}

func containsQuotaKeyword(msg string) bool {
	msg = strings.ToLower(msg)
	for _, kw := range quotaKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}
