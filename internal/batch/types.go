// Package batch drives a list of independent work items through the
// throttled, retrying generation pipeline and assembles a report.
//
// Items are processed one at a time in input order. A failure on one item
// never aborts the batch; only a terminal quota failure stops further
// generation calls, after which every remaining item is recorded as skipped.
// A batch that passes validation always yields a complete Report.
package batch

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a batch.
type Status string

// Batch states. A batch moves from running to exactly one of the completed
// states; there is no failed state for the batch as a whole.
const (
	StatusRunning             Status = "running"
	StatusCompleted           Status = "completed"
	StatusCompletedWithErrors Status = "completed_with_errors"
)

// ItemStatus is the result state of a single item.
type ItemStatus string

// Item states.
const (
	ItemCompleted ItemStatus = "completed"
	ItemError     ItemStatus = "error"
)

// Fixed reasons recorded on items that were never attempted or that hit
// the provider's quota.
const (
	SkipReason          = "batch processing stopped due to quota limits"
	QuotaFailureMessage = "generation quota exceeded after retries, please try again later"
	CancelledReason     = "batch processing cancelled"

	// GenericFailureMessage stands in for errors that carry no message.
	GenericFailureMessage = "generation failed"
)

// WorkItem is one unit of work. Items are supplied by the caller and are
// not modified during processing.
type WorkItem struct {
	ID      string
	Title   string
	Content string
}

// ItemOutcome is the result for one WorkItem. Result and ResultID are set
// only when Status is ItemCompleted; Error only when Status is ItemError.
type ItemOutcome struct {
	ItemID    string
	ItemTitle string
	ResultID  uuid.UUID
	Status    ItemStatus
	Result    string
	Error     string
}

// Succeeded reports whether the item completed.
func (o ItemOutcome) Succeeded() bool {
	return o.Status == ItemCompleted
}

// Report is the aggregate result of a batch. Succeeded + Failed always
// equals TotalItems, and Outcomes holds one entry per input item in input
// order.
type Report struct {
	BatchID    uuid.UUID
	Status     Status
	Outcomes   []ItemOutcome
	TotalItems int
	Succeeded  int
	Failed     int
	StartedAt  time.Time
	Elapsed    time.Duration
}

func completedOutcome(item WorkItem, resultID uuid.UUID, result string) ItemOutcome {
	return ItemOutcome{
		ItemID:    item.ID,
		ItemTitle: item.Title,
		ResultID:  resultID,
		Status:    ItemCompleted,
		Result:    result,
	}
}

// failedOutcome never leaves Error empty: an error outcome must say why.
func failedOutcome(item WorkItem, reason string) ItemOutcome {
	if strings.TrimSpace(reason) == "" {
		reason = GenericFailureMessage
	}
	return ItemOutcome{
		ItemID:    item.ID,
		ItemTitle: item.Title,
		Status:    ItemError,
		Error:     reason,
	}
}
