package batch

import (
	"errors"
	"fmt"
)

// ErrValidation is returned when a batch request is rejected before any
// item is processed.
var ErrValidation = errors.New("invalid batch request")

// ValidateItems checks the item count against maxItems.
func ValidateItems(items []WorkItem, maxItems int) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	if maxItems > 0 && len(items) > maxItems {
		return fmt.Errorf("%w: %d items exceeds the maximum of %d", ErrValidation, len(items), maxItems)
	}
	return nil
}
