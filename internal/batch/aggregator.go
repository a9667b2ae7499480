package batch

import (
	"time"

	"github.com/google/uuid"
)

// Finalize assembles a Report from per-item outcomes. It is a pure function
// of its arguments: the outcome slice is copied, counts are derived from the
// outcome states and Elapsed is finishedAt - startedAt.
func Finalize(batchID uuid.UUID, outcomes []ItemOutcome, startedAt, finishedAt time.Time) Report {
	report := Report{
		BatchID:    batchID,
		Outcomes:   make([]ItemOutcome, len(outcomes)),
		TotalItems: len(outcomes),
		StartedAt:  startedAt,
		Elapsed:    finishedAt.Sub(startedAt),
	}
	copy(report.Outcomes, outcomes)

	for _, o := range outcomes {
		if o.Succeeded() {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	report.Status = StatusCompleted
	if report.Failed > 0 {
		report.Status = StatusCompletedWithErrors
	}

	return report
}
