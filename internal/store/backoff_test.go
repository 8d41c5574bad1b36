package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConflictBackoff_GrowsAndCaps(t *testing.T) {
	tests := []struct {
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{0, time.Millisecond, 1500 * time.Microsecond},
		{1, 2 * time.Millisecond, 3 * time.Millisecond},
		{3, 8 * time.Millisecond, 12 * time.Millisecond},
		{10, backoffCap, backoffCap + backoffCap/2},
		{100, backoffCap, backoffCap + backoffCap/2},
	}

	for _, tt := range tests {
		for i := 0; i < 50; i++ {
			got := conflictBackoff(tt.attempt)
			if got < tt.min || got > tt.max {
				t.Fatalf("attempt %d: %v outside [%v, %v]", tt.attempt, got, tt.min, tt.max)
			}
		}
	}
}

func TestSleepCtx_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sleepCtx(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
