package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/scry-batch/internal/platform/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewLimiter_AppliesDefaults(t *testing.T) {
	t.Parallel()

	l := NewLimiter(Config{MaxCalls: 0, Window: -1, MinSpacing: -time.Second}, nil, nil)

	assert.Equal(t, DefaultMaxCalls, l.maxCalls)
	assert.Equal(t, DefaultWindow, l.window)
	assert.Equal(t, time.Duration(0), l.minSpacing)
	assert.IsType(t, clock.Real{}, l.clock)
}

func TestAcquire_AlwaysWaitsMinSpacing(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(epoch)
	l := NewLimiter(Config{MaxCalls: 15, Window: time.Minute, MinSpacing: 4 * time.Second}, fake, testLogger())

	require.NoError(t, l.Acquire(context.Background()))
	require.NoError(t, l.Acquire(context.Background()))

	assert.Equal(t, []time.Duration{4 * time.Second, 4 * time.Second}, fake.Sleeps())
	assert.Equal(t, epoch.Add(8*time.Second), fake.Now())
	assert.Equal(t, 2, l.InWindow())
}

func TestAcquire_WaitsForOldestRecordWhenWindowFull(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(epoch)
	l := NewLimiter(Config{MaxCalls: 3, Window: time.Minute, MinSpacing: 4 * time.Second}, fake, testLogger())

	// Records land at +4s, +8s and +12s.
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(context.Background()))
	}
	oldest := epoch.Add(4 * time.Second)
	fake.ResetSleeps()

	require.NoError(t, l.Acquire(context.Background()))

	// The fourth call may not happen before the oldest record leaves the
	// window, plus the fixed spacing.
	assert.False(t, fake.Now().Before(oldest.Add(time.Minute).Add(4*time.Second)))
	assert.Equal(t, []time.Duration{52 * time.Second, 4 * time.Second}, fake.Sleeps())
	// At +68s the +8s record has aged out too.
	assert.Equal(t, 2, l.InWindow())
}

func TestAcquire_PrunesExpiredRecords(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(epoch)
	l := NewLimiter(Config{MaxCalls: 2, Window: time.Minute, MinSpacing: 0}, fake, testLogger())

	require.NoError(t, l.Acquire(context.Background()))
	require.NoError(t, l.Acquire(context.Background()))
	fake.Advance(2 * time.Minute)
	fake.ResetSleeps()

	require.NoError(t, l.Acquire(context.Background()))

	assert.Equal(t, []time.Duration{0}, fake.Sleeps(), "no window wait once old records expired")
	assert.Equal(t, 1, l.InWindow())
}

func TestAcquire_CancelledContextRecordsNothing(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(epoch)
	l := NewLimiter(Config{MaxCalls: 1, Window: time.Minute, MinSpacing: time.Second}, fake, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Acquire(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, l.InWindow())
}

func TestAcquire_ConcurrentCallersShareOneWindow(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(epoch)
	l := NewLimiter(Config{MaxCalls: 5, Window: time.Minute, MinSpacing: time.Second}, fake, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Acquire(context.Background()))
		}()
	}
	wg.Wait()

	// Calls land at +1..+5s, +62..+66s and +123..+124s no matter which
	// goroutine wins each slot.
	assert.Equal(t, epoch.Add(124*time.Second), fake.Now())
	assert.Equal(t, 4, l.InWindow())
}
