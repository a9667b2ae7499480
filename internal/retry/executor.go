// Package retry runs a single outbound call with bounded retries.
//
// Before every attempt the Executor acquires a slot from the shared rate
// limiter. Quota errors are retried with exponential backoff, stretched to
// the provider's retry hint when one is given; any other error is returned
// at once. A quota error that survives the last attempt becomes a
// QuotaExhaustedError.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-batch/internal/generation"
	"github.com/phrazzld/scry-batch/internal/platform/clock"
)

// Defaults used when Config fields are unset.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
	DefaultMaxDelay    = time.Minute
)

// maxShift bounds the exponent so the backoff never overflows.
const maxShift = 30

// Acquirer hands out permission for one outbound call.
// *ratelimit.Limiter implements it.
type Acquirer interface {
	Acquire(ctx context.Context) error
}

// Config holds the retry policy.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	// If zero or negative, DefaultMaxAttempts is used.
	MaxAttempts int

	// BaseDelay is the delay after the first failed attempt; it doubles
	// after every further failure. If zero or negative, DefaultBaseDelay
	// is used.
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff. Provider hints may exceed it.
	// Zero disables the cap.
	MaxDelay time.Duration
}

// DefaultConfig returns the default retry policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Attempt is the state of one try: its 1-based number, the error it
// returned and the delay chosen before the next try.
type Attempt struct {
	Number int
	Err    error
	Delay  time.Duration
}

// Executor runs attempt functions under the retry policy.
type Executor struct {
	limiter Acquirer
	config  Config
	clock   clock.Clock
	logger  *slog.Logger

	// IsQuotaError decides which errors are retried.
	// Defaults to generation.IsQuotaError.
	IsQuotaError func(error) bool

	// RetryAfter extracts a provider retry hint from an error.
	// Defaults to generation.RetryAfter.
	RetryAfter func(error) (time.Duration, bool)
}

// NewExecutor creates an Executor. The limiter may be nil for unthrottled
// use; a nil clock uses the real clock and a nil logger uses slog.Default().
func NewExecutor(limiter Acquirer, cfg Config, clk clock.Clock, logger *slog.Logger) *Executor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay < 0 {
		cfg.MaxDelay = 0
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		limiter:      limiter,
		config:       cfg,
		clock:        clk,
		logger:       logger.With("component", "retry_executor"),
		IsQuotaError: generation.IsQuotaError,
		RetryAfter:   generation.RetryAfter,
	}
}

// MaxAttempts returns the configured attempt budget.
func (e *Executor) MaxAttempts() int {
	return e.config.MaxAttempts
}

// Run calls attempt until it succeeds, fails with a non-quota error, or the
// attempt budget is spent.
//
// The limiter is acquired before every attempt. A non-quota error is
// returned unchanged. A quota error on the last attempt is returned as a
// *QuotaExhaustedError. Context cancellation while waiting is returned
// wrapped, together with the attempt it interrupted.
func (e *Executor) Run(ctx context.Context, attempt func(ctx context.Context) error) error {
	state := Attempt{}

	for n := 1; n <= e.config.MaxAttempts; n++ {
		state = Attempt{Number: n}

		if e.limiter != nil {
			if err := e.limiter.Acquire(ctx); err != nil {
				return fmt.Errorf("waiting for rate limiter before attempt %d: %w", n, err)
			}
		}

		state.Err = attempt(ctx)
		if state.Err == nil {
			if n > 1 {
				e.logger.InfoContext(ctx, "attempt succeeded after retry", "attempt", n)
			}
			return nil
		}

		if !e.IsQuotaError(state.Err) {
			e.logger.WarnContext(ctx, "non-retryable error, not retrying",
				"attempt", n,
				"error", state.Err)
			return state.Err
		}

		if n == e.config.MaxAttempts {
			break
		}

		hint, _ := e.RetryAfter(state.Err)
		state.Delay = Backoff(n, e.config.BaseDelay, e.config.MaxDelay, hint)

		e.logger.WarnContext(ctx, "quota error, retrying after delay",
			"attempt", n,
			"max_attempts", e.config.MaxAttempts,
			"delay_ms", state.Delay.Milliseconds(),
			"retry_hint_ms", hint.Milliseconds(),
			"error", state.Err)

		if err := e.clock.Sleep(ctx, state.Delay); err != nil {
			return fmt.Errorf("retry cancelled after attempt %d: %w", n, err)
		}
	}

	e.logger.ErrorContext(ctx, "maximum retry attempts reached",
		"attempts", state.Number,
		"error", state.Err)
	return &QuotaExhaustedError{Attempts: state.Number, Err: state.Err}
}

// Backoff returns the delay after the given failed attempt (1-based):
// base × 2^(attempt-1), capped at maxDelay when maxDelay > 0, and raised to
// hint when the provider asked for a longer wait.
func Backoff(attempt int, base, maxDelay, hint time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	shift := attempt - 1
	if shift > maxShift {
		shift = maxShift
	}

	delay := base * time.Duration(1<<shift)
	if delay < 0 || (maxDelay > 0 && delay > maxDelay) {
		delay = maxDelay
	}

	if hint > delay {
		return hint
	}
	return delay
}
