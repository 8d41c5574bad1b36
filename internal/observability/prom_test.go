package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/geocoder89/homehub/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveStore_NilIsSafe(t *testing.T) {
	var p *Prom

	called := false
	err := p.ObserveStore("memory", "get", func() error {
		called = true
		return nil
	})

	if err != nil || !called {
		t.Fatalf("expected fn to run, err=%v called=%v", err, called)
	}

	p.IncTransition("created")
	p.IncChatMessage("client")
	p.IncAutoReply("scheduled")
	p.AddPendingReplies(1)
}

func TestObserveStore_MissIsNotAnError(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	err := p.ObserveStore("sqlite", "get", func() error { return store.ErrNotFound })
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected error passed through, got %v", err)
	}

	if n := testutil.CollectAndCount(p.StoreErrorsTotal); n != 0 {
		t.Fatalf("expected no error series, got %d", n)
	}
	if n := testutil.CollectAndCount(p.StoreOpDuration); n != 1 {
		t.Fatalf("expected one latency series, got %d", n)
	}
}

func TestObserveStore_CountsConflicts(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveStore("postgres", "cas", func() error {
		return fmt.Errorf("write: %w", store.ErrVersionConflict)
	})

	got := testutil.ToFloat64(p.StoreErrorsTotal.WithLabelValues("postgres", "cas", "conflict"))
	if got != 1 {
		t.Fatalf("expected 1 conflict, got %v", got)
	}
}

func TestClassifyStoreErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{store.ErrVersionConflict, "conflict"},
		{context.DeadlineExceeded, "timeout"},
		{&pgconn.PgError{Code: "23505"}, "unique_violation"},
		{&pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{errors.New("database is locked"), "busy"},
		{errors.New("dial tcp: connection refused"), "connection"},
		{errors.New("something else"), "unknown"},
	}

	for _, tt := range tests {
		if got := classifyStoreErr(tt.err); got != tt.want {
			t.Fatalf("classifyStoreErr(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
