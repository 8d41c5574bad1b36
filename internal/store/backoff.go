package store

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	backoffBase = time.Millisecond
	backoffCap  = 50 * time.Millisecond
)

// conflictBackoff grows exponentially per attempt:
// attempt=0 => 1ms, attempt=1 => 2ms, attempt=2 => 4ms, capped at 50ms.
func conflictBackoff(attempt int) time.Duration {
	delay := backoffBase << min(attempt, 16)

	if delay > backoffCap || delay <= 0 {
		delay = backoffCap
	}

	// jitter up to half the delay so retrying writers spread out
	return delay + rand.N(delay/2+1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
