package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrVersionConflict = errors.New("document version conflict")
)

// Document is a whole serialized value stored under one key.
// Version 0 means the key has never been written.
type Document struct {
	Key     string
	Data    []byte
	Version int64
}

// Store is key-keyed document storage. A write always replaces the whole document.
//
// Put is the naive last-writer-wins path: two callers that both read, mutate and Put
// the same key can silently lose one of the updates. CompareAndSwap is the guarded path
// and only writes when the stored version still equals expected.
type Store interface {
	Get(ctx context.Context, key string) (Document, error)
	Put(ctx context.Context, key string, data []byte) (int64, error)
	CompareAndSwap(ctx context.Context, key string, expected int64, data []byte) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// GetOr returns the stored bytes for key, or def when the key is missing.
// A miss never writes def back.
func GetOr(ctx context.Context, s Store, key string, def []byte) ([]byte, int64, error) {
	doc, err := s.Get(ctx, key)

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return def, 0, nil
		}

		return nil, 0, err
	}

	return doc.Data, doc.Version, nil
}
