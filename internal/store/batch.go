package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-batch/internal/batch"
	"github.com/phrazzld/scry-batch/internal/generation"
)

// Batch is the header row of a persisted batch.
type Batch struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Status     batch.Status
	Options    generation.Options
	TotalItems int
	StartedAt  time.Time
}

// BatchStore defines the interface for batch persistence.
type BatchStore interface {
	// Create saves the header of a batch that is about to run.
	// Returns ErrBatchExists if a batch with the same ID already exists.
	Create(ctx context.Context, b *Batch) error

	// SaveReport stores the finished report of a batch created with Create:
	// it updates the header with status, counters and elapsed time and
	// inserts one row per outcome, in input order.
	// Returns ErrBatchNotFound if the batch header does not exist.
	SaveReport(ctx context.Context, report *batch.Report) error

	// GetReport loads the report of a batch owned by userID.
	// Returns ErrBatchNotFound if the batch does not exist or belongs to
	// another user.
	GetReport(ctx context.Context, batchID, userID uuid.UUID) (*batch.Report, error)

	// WithTx returns a new BatchStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) BatchStore
}
