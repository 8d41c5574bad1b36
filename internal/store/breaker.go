package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("store circuit breaker open")

type BreakerConfig struct {
	Timeout          time.Duration // hard timeout per operation
	FailureThreshold int           // consecutive failures to open the circuit
	Cooldown         time.Duration // how long to stay open before half-open
	HalfOpenMaxCalls int           // trial calls allowed while half-open
}

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// Breaker guards a remote backend: after repeated failures it fails fast
// instead of letting every caller wait out the timeout. Misses and version
// conflicts are normal answers and do not count as failures.
type Breaker struct {
	inner Store
	cfg   BreakerConfig
	now   func() time.Time

	mu                  sync.Mutex
	state               breakerState
	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
}

func NewBreaker(inner Store, cfg BreakerConfig) *Breaker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &Breaker{inner: inner, cfg: cfg, now: time.Now}
}

func (b *Breaker) Get(ctx context.Context, key string) (Document, error) {
	var doc Document
	err := b.do(ctx, func(ctx context.Context) error {
		var err error
		doc, err = b.inner.Get(ctx, key)
		return err
	})
	return doc, err
}

func (b *Breaker) Put(ctx context.Context, key string, data []byte) (int64, error) {
	var version int64
	err := b.do(ctx, func(ctx context.Context) error {
		var err error
		version, err = b.inner.Put(ctx, key, data)
		return err
	})
	return version, err
}

func (b *Breaker) CompareAndSwap(ctx context.Context, key string, expected int64, data []byte) (int64, error) {
	var version int64
	err := b.do(ctx, func(ctx context.Context) error {
		var err error
		version, err = b.inner.CompareAndSwap(ctx, key, expected, data)
		return err
	})
	return version, err
}

// Ping bypasses the breaker so readiness checks always reach the backend.
func (b *Breaker) Ping(ctx context.Context) error {
	return b.inner.Ping(ctx)
}

func (b *Breaker) Close() error {
	return b.inner.Close()
}

func (b *Breaker) do(ctx context.Context, fn func(ctx context.Context) error) error {
	// fail-fast gate
	if !b.allow() {
		return ErrCircuitOpen
	}

	opCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	err := fn(opCtx)
	b.after(err)

	return err
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return false
		}
		b.state = stateHalfOpen
		b.halfOpenInFlight = 1
		return true

	case stateHalfOpen:
		if b.halfOpenInFlight >= b.cfg.HalfOpenMaxCalls {
			return false
		}
		b.halfOpenInFlight++
		return true

	default:
		return true
	}
}

func (b *Breaker) after(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateHalfOpen && b.halfOpenInFlight > 0 {
		b.halfOpenInFlight--
	}

	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrVersionConflict) {
		b.consecutiveFailures = 0
		b.state = stateClosed
		return
	}

	b.consecutiveFailures++

	// a failed trial reopens immediately
	if b.state == stateHalfOpen || b.consecutiveFailures >= b.cfg.FailureThreshold {
		b.state = stateOpen
		b.openedAt = b.now()
	}
}
