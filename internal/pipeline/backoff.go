package pipeline

import (
	"context"
	"time"
)

// backoff doubles the retry delay after every failed wait, up to max.
type backoff struct {
	initial, max, current time.Duration
}

func newBackoff(initial, limit time.Duration) *backoff {
	return &backoff{initial: initial, max: limit, current: initial}
}

func (b *backoff) reset() { b.current = b.initial }

// wait sleeps for the current delay and advances it. It returns false if ctx
// ended first.
func (b *backoff) wait(ctx context.Context) bool {
	timer := time.NewTimer(b.current)
	defer timer.Stop()

	b.current = min(b.current*2, b.max)

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
