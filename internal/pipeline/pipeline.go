// Package pipeline assembles the throttled, retrying batch processor from
// configuration.
package pipeline

import (
	"log/slog"

	"github.com/phrazzld/scry-batch/internal/batch"
	"github.com/phrazzld/scry-batch/internal/config"
	"github.com/phrazzld/scry-batch/internal/platform/clock"
	"github.com/phrazzld/scry-batch/internal/ratelimit"
	"github.com/phrazzld/scry-batch/internal/retry"
)

// New builds a processor whose generation calls all pass through one
// shared limiter and retry executor. A nil clock uses real time.
func New(cfg config.PipelineConfig, clk clock.Clock, logger *slog.Logger) *batch.Processor {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	limiter := ratelimit.NewLimiter(LimiterConfig(cfg), clk, logger)
	executor := retry.NewExecutor(limiter, RetryConfig(cfg), clk, logger)
	return batch.NewProcessor(executor, cfg.MaxItemsPerBatch, clk, logger)
}

// LimiterConfig maps the pipeline settings onto the limiter's.
func LimiterConfig(cfg config.PipelineConfig) ratelimit.Config {
	return ratelimit.Config{
		MaxCalls:   cfg.MaxCallsPerWindow,
		Window:     cfg.Window(),
		MinSpacing: cfg.MinSpacing(),
	}
}

// RetryConfig maps the pipeline settings onto the executor's.
func RetryConfig(cfg config.PipelineConfig) retry.Config {
	return retry.Config{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay(),
		MaxDelay:    cfg.MaxDelay(),
	}
}
