package chat

import (
	"sync"
	"time"
)

// Scheduler runs deferred callbacks grouped by key so that everything pending
// for one reservation can be cancelled together.
type Scheduler interface {
	// Schedule reports false when the callback was refused and will never run.
	Schedule(key string, delay time.Duration, fn func()) bool
	// Cancel drops every pending callback for key and reports how many were dropped.
	Cancel(key string) int
}

type TimerScheduler struct {
	mu      sync.Mutex
	nextID  uint64
	timers  map[string]map[uint64]*time.Timer
	stopped bool
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{timers: make(map[string]map[uint64]*time.Timer)}
}

func (s *TimerScheduler) Schedule(key string, delay time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}

	id := s.nextID
	s.nextID++

	if s.timers[key] == nil {
		s.timers[key] = make(map[uint64]*time.Timer)
	}

	// registered under the lock, so the callback always finds its own entry
	s.timers[key][id] = time.AfterFunc(delay, func() {
		if s.take(key, id) {
			fn()
		}
	})

	return true
}

func (s *TimerScheduler) Cancel(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancelLocked(key)
}

func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, byID := range s.timers {
		n += len(byID)
	}
	return n
}

// Stop cancels everything and refuses new work. It returns the number of callbacks dropped.
func (s *TimerScheduler) Stop() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true

	n := 0
	for key := range s.timers {
		n += s.cancelLocked(key)
	}
	return n
}

func (s *TimerScheduler) cancelLocked(key string) int {
	byID := s.timers[key]
	for _, t := range byID {
		t.Stop()
	}
	delete(s.timers, key)

	return len(byID)
}

// take removes the entry and reports whether it was still pending.
func (s *TimerScheduler) take(key string, id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.timers[key]
	if !ok {
		return false
	}

	if _, ok := byID[id]; !ok {
		return false
	}

	delete(byID, id)
	if len(byID) == 0 {
		delete(s.timers, key)
	}

	return true
}
