package chat

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerScheduler_Fires(t *testing.T) {
	s := NewTimerScheduler()
	done := make(chan struct{})

	s.Schedule("r1", time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("callback never fired")
	}

	if p := s.Pending(); p != 0 {
		t.Fatalf("expected nothing pending, got %d", p)
	}
}

func TestTimerScheduler_CancelByKey(t *testing.T) {
	s := NewTimerScheduler()
	var fired atomic.Int32

	s.Schedule("r1", time.Hour, func() { fired.Add(1) })
	s.Schedule("r1", time.Hour, func() { fired.Add(1) })
	s.Schedule("r2", time.Hour, func() { fired.Add(1) })

	if p := s.Pending(); p != 3 {
		t.Fatalf("expected 3 pending, got %d", p)
	}

	if n := s.Cancel("r1"); n != 2 {
		t.Fatalf("expected 2 cancelled, got %d", n)
	}
	if n := s.Cancel("r1"); n != 0 {
		t.Fatalf("second cancel should find nothing, got %d", n)
	}
	if p := s.Pending(); p != 1 {
		t.Fatalf("expected 1 pending, got %d", p)
	}

	if n := s.Stop(); n != 1 {
		t.Fatalf("expected stop to drop 1, got %d", n)
	}

	if s.Schedule("r3", time.Millisecond, func() { fired.Add(1) }) {
		t.Fatalf("expected a stopped scheduler to refuse work")
	}
	time.Sleep(20 * time.Millisecond)

	if fired.Load() != 0 {
		t.Fatalf("expected no callbacks to run, got %d", fired.Load())
	}
}
