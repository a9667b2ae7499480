package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phrazzld/scry-batch/internal/generation"
)

// retryInfoType is the detail type Google APIs use to carry a retry delay.
const retryInfoType = "type.googleapis.com/google.rpc.RetryInfo"

// mapError translates a client error into the generation package's vocabulary.
// Context errors pass through untouched so cancellation stays recognizable.
func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if apiErr, ok := isAPIError(err); ok {
		return &generation.ProviderError{
			Code:       apiErr.Code,
			Status:     apiErr.Status,
			Message:    apiErr.Message,
			RetryAfter: retryDelay(apiErr.Details),
			Err:        err,
		}
	}

	return fmt.Errorf("%w: %w", generation.ErrGenerationFailed, err)
}

// retryDelay returns the RetryInfo delay from error details, or zero.
func retryDelay(details []map[string]any) time.Duration {
	for _, detail := range details {
		if t, _ := detail["@type"].(string); t != retryInfoType {
			continue
		}
		raw, ok := detail["retryDelay"].(string)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err == nil && d > 0 {
			return d
		}
	}
	return 0
}
