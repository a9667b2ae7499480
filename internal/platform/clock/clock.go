// Package clock abstracts wall-clock time and suspension so that throttling
// and backoff code can be tested without sleeping in real time.
package clock

import (
	"context"
	"time"
)

// Clock reports the current time and suspends the caller.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep suspends the caller for d or until ctx is done, whichever
	// comes first. It returns ctx.Err() if the context ended the wait.
	Sleep(ctx context.Context, d time.Duration) error
}

// Real is a Clock backed by the time package.
type Real struct{}

// Now implements Clock. The result keeps its monotonic reading so window
// and elapsed arithmetic is immune to wall-clock steps; convert with UTC()
// only where a time is stored or serialized.
func (Real) Now() time.Time {
	return time.Now()
}

// Sleep implements Clock. A non-positive duration returns immediately.
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
