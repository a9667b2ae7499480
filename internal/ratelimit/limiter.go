// Package ratelimit throttles outbound calls to a quota-bounded provider.
//
// Limiter keeps a sliding window of call timestamps and blocks callers until
// a call is permitted under a fixed per-window ceiling, then enforces a fixed
// spacing before every call. A single Limiter is meant to be shared by every
// batch in the process so they all count against the same provider quota.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-batch/internal/platform/clock"
)

// Default limits match the free tier of the Gemini API.
const (
	DefaultMaxCalls   = 15
	DefaultWindow     = time.Minute
	DefaultMinSpacing = 4 * time.Second
)

// Config holds the limiter settings.
type Config struct {
	// MaxCalls is the number of calls allowed in any trailing Window.
	// If zero or negative, DefaultMaxCalls is used.
	MaxCalls int

	// Window is the length of the sliding window.
	// If zero or negative, DefaultWindow is used.
	Window time.Duration

	// MinSpacing is slept before every permitted call.
	// Negative values are treated as zero.
	MinSpacing time.Duration
}

// DefaultConfig returns a Config with the default limits.
func DefaultConfig() Config {
	return Config{
		MaxCalls:   DefaultMaxCalls,
		Window:     DefaultWindow,
		MinSpacing: DefaultMinSpacing,
	}
}

// Limiter enforces a sliding-window call ceiling plus a minimum spacing.
type Limiter struct {
	maxCalls   int
	window     time.Duration
	minSpacing time.Duration
	clock      clock.Clock
	logger     *slog.Logger

	// slot serializes Acquire; a channel rather than a mutex so waiting
	// callers can give up when their context ends.
	slot chan struct{}

	// calls is only touched while holding slot.
	calls []time.Time
}

// NewLimiter creates a Limiter. A nil clock uses the real clock and a nil
// logger uses slog.Default().
func NewLimiter(cfg Config, clk clock.Clock, logger *slog.Logger) *Limiter {
	if cfg.MaxCalls <= 0 {
		cfg.MaxCalls = DefaultMaxCalls
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MinSpacing < 0 {
		cfg.MinSpacing = 0
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Limiter{
		maxCalls:   cfg.MaxCalls,
		window:     cfg.Window,
		minSpacing: cfg.MinSpacing,
		clock:      clk,
		logger:     logger.With("component", "rate_limiter"),
		slot:       make(chan struct{}, 1),
		calls:      make([]time.Time, 0, cfg.MaxCalls),
	}
}

// Acquire blocks until the caller may make exactly one outbound call.
//
// It prunes call records older than the window, waits for the oldest record
// to age out when the window is full, always waits the minimum spacing, and
// finally records the call. The whole sequence runs under the limiter's slot
// so concurrent callers never observe a window that permits more than
// MaxCalls calls. The only error is the context ending while waiting, in
// which case no call is recorded.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.slot }()

	now := l.clock.Now()
	l.prune(now)

	for len(l.calls) >= l.maxCalls {
		wait := l.calls[0].Add(l.window).Sub(now)
		l.logger.InfoContext(ctx, "rate limit window full, waiting",
			"calls_in_window", len(l.calls),
			"max_calls", l.maxCalls,
			"wait_ms", wait.Milliseconds())

		if err := l.clock.Sleep(ctx, wait); err != nil {
			return err
		}
		now = l.clock.Now()
		l.prune(now)
	}

	if err := l.clock.Sleep(ctx, l.minSpacing); err != nil {
		return err
	}

	l.calls = append(l.calls, l.clock.Now())
	l.logger.DebugContext(ctx, "rate limit slot acquired",
		"calls_in_window", len(l.calls))
	return nil
}

// InWindow reports how many recorded calls are still inside the window.
func (l *Limiter) InWindow() int {
	l.slot <- struct{}{}
	defer func() { <-l.slot }()

	l.prune(l.clock.Now())
	return len(l.calls)
}

// prune drops records that are at least one window old.
func (l *Limiter) prune(now time.Time) {
	cutoff := 0
	for cutoff < len(l.calls) && now.Sub(l.calls[cutoff]) >= l.window {
		cutoff++
	}
	if cutoff > 0 {
		l.calls = append(l.calls[:0], l.calls[cutoff:]...)
	}
}
