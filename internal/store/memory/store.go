package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/homehub/internal/store"
)

type Store struct {
	mu    sync.RWMutex
	items map[string]store.Document
}

func NewStore() *Store {
	return &Store{
		items: make(map[string]store.Document),
	}
}

func (s *Store) Get(_ context.Context, key string) (store.Document, error) {
	s.mu.RLock()
	doc, ok := s.items[key]
	s.mu.RUnlock()

	if !ok {
		return store.Document{}, store.ErrNotFound
	}

	doc.Data = clone(doc.Data)
	return doc, nil
}

func (s *Store) Put(_ context.Context, key string, data []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.items[key].Version + 1
	s.items[key] = store.Document{Key: key, Data: clone(data), Version: next}

	return next, nil
}

func (s *Store) CompareAndSwap(_ context.Context, key string, expected int64, data []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// a missing key has version 0
	current := s.items[key].Version

	if current != expected {
		return current, store.ErrVersionConflict
	}

	next := current + 1
	s.items[key] = store.Document{Key: key, Data: clone(data), Version: next}

	return next, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
