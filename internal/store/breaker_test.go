package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

// flaky is a Store whose Get returns whatever err is set to.
type flaky struct {
	err   error
	calls int
}

func (f *flaky) Get(context.Context, string) (Document, error) {
	f.calls++
	return Document{}, f.err
}
func (f *flaky) Put(context.Context, string, []byte) (int64, error) { return 1, f.err }
func (f *flaky) CompareAndSwap(context.Context, string, int64, []byte) (int64, error) {
	return 1, f.err
}
func (f *flaky) Ping(context.Context) error { return nil }
func (f *flaky) Close() error { return nil }

func TestBreaker_OpensAndRecovers(t *testing.T) {
	ctx := context.Background()
	down := errors.New("connection refused")
	inner := &flaky{err: down}

	now := time.Unix(0, 0)
	b := NewBreaker(inner, BreakerConfig{FailureThreshold: 2, Cooldown: time.Minute})
	b.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if _, err := b.Get(ctx, "k"); !errors.Is(err, down) {
			t.Fatalf("call %d: expected backend error, got %v", i, err)
		}
	}

	if _, err := b.Get(ctx, "k"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("open circuit must not reach the backend, calls=%d", inner.calls)
	}

	// cooldown passes, backend recovers: the trial call closes the circuit
	now = now.Add(2 * time.Minute)
	inner.err = nil

	if _, err := b.Get(ctx, "k"); err != nil {
		t.Fatalf("expected trial call to pass, got %v", err)
	}
	if _, err := b.Get(ctx, "k"); err != nil {
		t.Fatalf("expected closed circuit, got %v", err)
	}
}

func TestBreaker_FailedTrialReopens(t *testing.T) {
	ctx := context.Background()
	inner := &flaky{err: errors.New("timeout")}

	now := time.Unix(0, 0)
	b := NewBreaker(inner, BreakerConfig{FailureThreshold: 1, Cooldown: time.Minute})
	b.now = func() time.Time { return now }

	_, _ = b.Get(ctx, "k")
	now = now.Add(2 * time.Minute)
	_, _ = b.Get(ctx, "k") // trial fails

	if _, err := b.Get(ctx, "k"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected reopened circuit, got %v", err)
	}
}

func TestBreaker_MissesAndConflictsAreHealthy(t *testing.T) {
	ctx := context.Background()
	inner := &flaky{err: ErrNotFound}
	b := NewBreaker(inner, BreakerConfig{FailureThreshold: 1})

	for i := 0; i < 3; i++ {
		if _, err := b.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}

	inner.err = ErrVersionConflict
	for i := 0; i < 3; i++ {
		if _, err := b.CompareAndSwap(ctx, "k", 1, nil); !errors.Is(err, ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
	}
}
