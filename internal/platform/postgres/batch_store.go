package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-batch/internal/batch"
	"github.com/phrazzld/scry-batch/internal/platform/logger"
	"github.com/phrazzld/scry-batch/internal/store"
)

// PostgresBatchStore implements the store.BatchStore interface
// using a PostgreSQL database as the storage backend.
type PostgresBatchStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBatchStore creates a new PostgreSQL implementation of the BatchStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresBatchStore(db store.DBTX, logger *slog.Logger) *PostgresBatchStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBatchStore{
		db:     db,
		logger: logger.With(slog.String("component", "batch_store")),
	}
}

// Ensure PostgresBatchStore implements store.BatchStore interface
var _ store.BatchStore = (*PostgresBatchStore)(nil)

// Create implements store.BatchStore.Create.
func (s *PostgresBatchStore) Create(ctx context.Context, b *store.Batch) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	options, err := json.Marshal(b.Options)
	if err != nil {
		return fmt.Errorf("%w: cannot encode options: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO batches (id, user_id, status, options, total_items, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, query,
		b.ID,
		b.UserID,
		string(b.Status),
		options,
		b.TotalItems,
		b.StartedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to create batch",
			slog.String("error", err.Error()),
			slog.String("batch_id", b.ID.String()))
		return store.NewStoreError("batch", "create", "insert failed",
			MapError(err, store.ErrBatchNotFound, store.ErrBatchExists))
	}

	log.Debug("batch created",
		slog.String("batch_id", b.ID.String()),
		slog.Int("total_items", b.TotalItems))
	return nil
}

// SaveReport implements store.BatchStore.SaveReport.
// Callers that need atomicity run it on a store obtained from WithTx.
func (s *PostgresBatchStore) SaveReport(ctx context.Context, report *batch.Report) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE batches
		SET status = $2, succeeded = $3, failed = $4, elapsed_ms = $5, finished_at = $6
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		report.BatchID,
		string(report.Status),
		report.Succeeded,
		report.Failed,
		report.Elapsed.Milliseconds(),
		report.StartedAt.Add(report.Elapsed).UTC(),
	)
	if err != nil {
		log.Error("failed to update batch",
			slog.String("error", err.Error()),
			slog.String("batch_id", report.BatchID.String()))
		return store.NewStoreError("batch", "update", "update failed", MapError(err, store.ErrBatchNotFound, nil))
	}
	if err := CheckRowsAffected(result, store.ErrBatchNotFound); err != nil {
		return err
	}

	itemQuery := `
		INSERT INTO batch_items (batch_id, position, item_id, item_title, result_id, status, result, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i, o := range report.Outcomes {
		_, err := s.db.ExecContext(ctx, itemQuery,
			report.BatchID,
			i,
			o.ItemID,
			o.ItemTitle,
			uuid.NullUUID{UUID: o.ResultID, Valid: o.ResultID != uuid.Nil},
			string(o.Status),
			nullString(o.Result),
			nullString(o.Error),
		)
		if err != nil {
			log.Error("failed to insert batch item",
				slog.String("error", err.Error()),
				slog.String("batch_id", report.BatchID.String()),
				slog.Int("position", i))
			return store.NewStoreError("batch_item", "create", "insert failed", MapError(err, nil, nil))
		}
	}

	log.Info("batch report saved",
		slog.String("batch_id", report.BatchID.String()),
		slog.String("status", string(report.Status)),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed))
	return nil
}

// GetReport implements store.BatchStore.GetReport.
func (s *PostgresBatchStore) GetReport(ctx context.Context, batchID, userID uuid.UUID) (*batch.Report, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT status, total_items, succeeded, failed, started_at, elapsed_ms
		FROM batches
		WHERE id = $1 AND user_id = $2
	`
	report := &batch.Report{BatchID: batchID}
	var (
		status    string
		elapsedMs int64
	)
	err := s.db.QueryRowContext(ctx, query, batchID, userID).Scan(
		&status,
		&report.TotalItems,
		&report.Succeeded,
		&report.Failed,
		&report.StartedAt,
		&elapsedMs,
	)
	if err != nil {
		mapped := MapError(err, store.ErrBatchNotFound, nil)
		if store.IsNotFoundError(mapped) {
			log.Debug("batch not found", slog.String("batch_id", batchID.String()))
			return nil, mapped
		}
		log.Error("failed to get batch",
			slog.String("error", err.Error()),
			slog.String("batch_id", batchID.String()))
		return nil, store.NewStoreError("batch", "get", "query failed", mapped)
	}
	report.Status = batch.Status(status)
	report.Elapsed = time.Duration(elapsedMs) * time.Millisecond

	outcomes, err := s.getOutcomes(ctx, batchID)
	if err != nil {
		log.Error("failed to get batch items",
			slog.String("error", err.Error()),
			slog.String("batch_id", batchID.String()))
		return nil, store.NewStoreError("batch_item", "get", "query failed", err)
	}
	report.Outcomes = outcomes

	return report, nil
}

func (s *PostgresBatchStore) getOutcomes(ctx context.Context, batchID uuid.UUID) ([]batch.ItemOutcome, error) {
	query := `
		SELECT item_id, item_title, result_id, status, result, error
		FROM batch_items
		WHERE batch_id = $1
		ORDER BY position
	`
	rows, err := s.db.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	outcomes := []batch.ItemOutcome{}
	for rows.Next() {
		var (
			o        batch.ItemOutcome
			resultID uuid.NullUUID
			status   string
			result   sql.NullString
			errMsg   sql.NullString
		)
		if err := rows.Scan(&o.ItemID, &o.ItemTitle, &resultID, &status, &result, &errMsg); err != nil {
			return nil, err
		}
		if resultID.Valid {
			o.ResultID = resultID.UUID
		}
		o.Status = batch.ItemStatus(status)
		o.Result = result.String
		o.Error = errMsg.String
		outcomes = append(outcomes, o)
	}

	return outcomes, rows.Err()
}

// WithTx implements store.BatchStore.WithTx.
// It returns a new BatchStore instance that uses the provided transaction.
func (s *PostgresBatchStore) WithTx(tx *sql.Tx) store.BatchStore {
	return &PostgresBatchStore{
		db:     tx,
		logger: s.logger,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
