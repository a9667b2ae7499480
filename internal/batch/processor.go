package batch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-batch/internal/platform/clock"
	"github.com/phrazzld/scry-batch/internal/redact"
	"github.com/phrazzld/scry-batch/internal/retry"
)

// DefaultMaxItems is the largest batch accepted when no limit is configured.
const DefaultMaxItems = 20

// Runner executes one unit of work under a retry policy.
// *retry.Executor implements it.
type Runner interface {
	Run(ctx context.Context, attempt func(ctx context.Context) error) error
}

// GenerateFunc produces the result payload for one item.
type GenerateFunc func(ctx context.Context, item WorkItem) (string, error)

// Processor runs batches through a Runner, one item at a time.
type Processor struct {
	runner   Runner
	clock    clock.Clock
	logger   *slog.Logger
	maxItems int
	newID    func() uuid.UUID
}

// NewProcessor creates a Processor. maxItems is the default ceiling used
// when Process is called without one; a nil clock uses the real clock and a
// nil logger uses slog.Default().
func NewProcessor(runner Runner, maxItems int, clk clock.Clock, logger *slog.Logger) *Processor {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Processor{
		runner:   runner,
		clock:    clk,
		logger:   logger.With("component", "batch_processor"),
		maxItems: maxItems,
		newID:    uuid.New,
	}
}

// MaxItems returns the processor's default item ceiling.
func (p *Processor) MaxItems() int {
	return p.maxItems
}

// Process runs every item through generate and returns the batch report.
//
// The item count is validated against maxItems (the processor default when
// maxItems <= 0) before any work starts; that is the only error Process
// returns. After a terminal quota failure no further generate calls are
// made and the remaining items are recorded with SkipReason. If ctx ends
// mid-batch the remaining items are recorded with CancelledReason.
func (p *Processor) Process(
	ctx context.Context,
	batchID uuid.UUID,
	items []WorkItem,
	generate GenerateFunc,
	maxItems int,
) (*Report, error) {
	if maxItems <= 0 {
		maxItems = p.maxItems
	}
	if err := ValidateItems(items, maxItems); err != nil {
		return nil, err
	}

	log := p.logger.With("batch_id", batchID.String())
	startedAt := p.clock.Now()
	log.InfoContext(ctx, "batch processing started",
		"status", StatusRunning,
		"item_count", len(items))

	outcomes := make([]ItemOutcome, 0, len(items))
	stopReason := ""

	for i, item := range items {
		if stopReason == "" && ctx.Err() != nil {
			stopReason = CancelledReason
		}
		if stopReason != "" {
			outcomes = append(outcomes, failedOutcome(item, stopReason))
			continue
		}

		var result string
		err := p.runner.Run(ctx, func(ctx context.Context) error {
			var genErr error
			result, genErr = generate(ctx, item)
			return genErr
		})

		switch {
		case err == nil:
			outcomes = append(outcomes, completedOutcome(item, p.newID(), result))
			log.DebugContext(ctx, "item completed",
				"index", i,
				"item_id", item.ID,
				"result_length", len(result))

		case errors.Is(err, retry.ErrQuotaExhausted):
			outcomes = append(outcomes, failedOutcome(item, QuotaFailureMessage))
			stopReason = SkipReason
			log.WarnContext(ctx, "quota exhausted, skipping remaining items",
				"index", i,
				"item_id", item.ID,
				"remaining", len(items)-i-1,
				"error", redact.Error(err))

		case ctx.Err() != nil:
			outcomes = append(outcomes, failedOutcome(item, CancelledReason))
			stopReason = CancelledReason
			log.WarnContext(ctx, "batch cancelled",
				"index", i,
				"item_id", item.ID)

		default:
			msg := redact.Error(err)
			outcomes = append(outcomes, failedOutcome(item, msg))
			log.WarnContext(ctx, "item failed",
				"index", i,
				"item_id", item.ID,
				"error", msg)
		}
	}

	report := Finalize(batchID, outcomes, startedAt, p.clock.Now())
	log.InfoContext(ctx, "batch processing finished",
		"status", report.Status,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"elapsed_ms", report.Elapsed.Milliseconds())

	return &report, nil
}
