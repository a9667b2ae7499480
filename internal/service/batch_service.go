package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-batch/internal/batch"
	"github.com/phrazzld/scry-batch/internal/generation"
	"github.com/phrazzld/scry-batch/internal/platform/clock"
	"github.com/phrazzld/scry-batch/internal/platform/logger"
	"github.com/phrazzld/scry-batch/internal/store"
)

// BatchProcessor runs a validated batch and returns its report.
// *batch.Processor implements it.
type BatchProcessor interface {
	Process(
		ctx context.Context,
		batchID uuid.UUID,
		items []batch.WorkItem,
		generate batch.GenerateFunc,
		maxItems int,
	) (*batch.Report, error)
	MaxItems() int
}

// BatchRequest is a caller's request to run a batch.
type BatchRequest struct {
	UserID  uuid.UUID
	Items   []batch.WorkItem
	Options generation.Options

	// MaxItems optionally lowers the configured item ceiling; values <= 0
	// use the configured ceiling.
	MaxItems int
}

// BatchService runs batches and retrieves their stored reports.
type BatchService interface {
	// RunBatch validates the request, processes every item and stores the
	// report. Validation failures wrap batch.ErrValidation or
	// generation.ErrInvalidOptions and happen before any generation call.
	RunBatch(ctx context.Context, req BatchRequest) (*batch.Report, error)

	// GetBatch returns the stored report of a batch owned by userID.
	// Returns ErrBatchNotFound when no such batch is visible to the user.
	GetBatch(ctx context.Context, userID, batchID uuid.UUID) (*batch.Report, error)
}

// batchServiceImpl implements the BatchService interface
type batchServiceImpl struct {
	batchStore store.BatchStore
	db         *sql.DB
	processor  BatchProcessor
	generator  generation.Generator
	clock      clock.Clock
	logger     *slog.Logger
}

// NewBatchService creates a new BatchService.
// db may be nil, in which case reports are saved without a transaction.
// It returns an error if any other required dependency is nil.
func NewBatchService(
	batchStore store.BatchStore,
	db *sql.DB,
	processor BatchProcessor,
	generator generation.Generator,
	clk clock.Clock,
	logger *slog.Logger,
) (BatchService, error) {
	if batchStore == nil {
		return nil, &BatchServiceError{Operation: "create_service", Message: "batchStore cannot be nil"}
	}
	if processor == nil {
		return nil, &BatchServiceError{Operation: "create_service", Message: "processor cannot be nil"}
	}
	if generator == nil {
		return nil, &BatchServiceError{Operation: "create_service", Message: "generator cannot be nil"}
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &batchServiceImpl{
		batchStore: batchStore,
		db:         db,
		processor:  processor,
		generator:  generator,
		clock:      clk,
		logger:     logger.With("component", "batch_service"),
	}, nil
}

// EffectiveMaxItems returns the item ceiling for a request: the requested
// value when it is positive and below the configured one, else the
// configured one.
func EffectiveMaxItems(requested, configured int) int {
	if requested > 0 && requested < configured {
		return requested
	}
	return configured
}

// RunBatch implements BatchService.
func (s *batchServiceImpl) RunBatch(ctx context.Context, req BatchRequest) (*batch.Report, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := req.Options.Validate(); err != nil {
		return nil, err
	}
	opts := req.Options.WithDefaults()

	maxItems := EffectiveMaxItems(req.MaxItems, s.processor.MaxItems())
	if err := batch.ValidateItems(req.Items, maxItems); err != nil {
		return nil, err
	}

	batchID := uuid.New()
	header := &store.Batch{
		ID:         batchID,
		UserID:     req.UserID,
		Status:     batch.StatusRunning,
		Options:    opts,
		TotalItems: len(req.Items),
		StartedAt:  s.clock.Now(),
	}
	if err := s.batchStore.Create(ctx, header); err != nil {
		log.Error("failed to record batch", "error", err, "batch_id", batchID)
		return nil, NewBatchServiceError("run_batch", "failed to record batch", err)
	}

	log.Info("batch started",
		"batch_id", batchID,
		"user_id", req.UserID,
		"items", len(req.Items),
		"kind", opts.Kind,
		"max_items", maxItems)

	generate := func(ctx context.Context, item batch.WorkItem) (string, error) {
		return s.generator.Generate(ctx, item.Content, opts)
	}

	report, err := s.processor.Process(ctx, batchID, req.Items, generate, maxItems)
	if err != nil {
		return nil, NewBatchServiceError("run_batch", "batch processing failed", err)
	}

	// The report is stored even if the request was cancelled mid-batch.
	if err := s.saveReport(context.WithoutCancel(ctx), report); err != nil {
		log.Error("failed to store batch report",
			"error", err,
			"batch_id", batchID,
			"status", report.Status)
	}

	log.Info("batch finished",
		"batch_id", batchID,
		"status", report.Status,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"elapsed_ms", report.Elapsed.Milliseconds())

	return report, nil
}

func (s *batchServiceImpl) saveReport(ctx context.Context, report *batch.Report) error {
	if s.db == nil {
		return s.batchStore.SaveReport(ctx, report)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.batchStore.WithTx(tx).SaveReport(ctx, report)
	},
		slog.String("operation", "save_report"),
		slog.String("batch_id", report.BatchID.String()),
		slog.String("batch_status", string(report.Status)))
}

// GetBatch implements BatchService.
func (s *batchServiceImpl) GetBatch(ctx context.Context, userID, batchID uuid.UUID) (*batch.Report, error) {
	report, err := s.batchStore.GetReport(ctx, batchID, userID)
	if err != nil {
		if !errors.Is(err, store.ErrBatchNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to load batch",
				"error", err,
				"batch_id", batchID)
		}
		return nil, NewBatchServiceError("get_batch", fmt.Sprintf("failed to load batch %s", batchID), err)
	}
	return report, nil
}
