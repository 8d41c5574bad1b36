package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// SchemaVersion tags every document this package writes.
// Version 0 is the untagged bare-array layout used before the envelope existed.
const SchemaVersion = 1

const defaultMaxAttempts = 8

var (
	ErrUnsupportedSchema = errors.New("unsupported document schema version")
	ErrTooManyConflicts  = errors.New("too many concurrent update conflicts")
)

type envelope[T any] struct {
	SchemaVersion int `json:"schemaVersion"`
	Items         []T `json:"items"`
}

// Collection is a whole-collection document: every write serializes and replaces all items.
type Collection[T any] struct {
	store       Store
	key         string
	maxAttempts int
}

func NewCollection[T any](s Store, key string) *Collection[T] {
	return &Collection[T]{
		store:       s,
		key:         key,
		maxAttempts: defaultMaxAttempts,
	}
}

// WithMaxAttempts bounds the optimistic retry loop in Update.
func (c *Collection[T]) WithMaxAttempts(n int) *Collection[T] {
	if n > 0 {
		c.maxAttempts = n
	}
	return c
}

func (c *Collection[T]) Key() string {
	return c.key
}

// Load returns the items and the version they were read at.
// A missing collection is an empty slice at version 0.
func (c *Collection[T]) Load(ctx context.Context) ([]T, int64, error) {
	raw, version, err := GetOr(ctx, c.store, c.key, nil)

	if err != nil {
		return nil, 0, err
	}

	items, err := decodeItems[T](raw)

	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", c.key, err)
	}

	return items, version, nil
}

// Replace writes items unconditionally. Concurrent read-modify-write through Replace
// is last-writer-wins on the whole collection.
func (c *Collection[T]) Replace(ctx context.Context, items []T) error {
	data, err := encodeItems(items)

	if err != nil {
		return err
	}

	_, err = c.store.Put(ctx, c.key, data)
	return err
}

// Init writes items only if the collection does not exist yet and reports whether it did.
func (c *Collection[T]) Init(ctx context.Context, items []T) (bool, error) {
	data, err := encodeItems(items)

	if err != nil {
		return false, err
	}

	_, err = c.store.CompareAndSwap(ctx, c.key, 0, data)

	if errors.Is(err, ErrVersionConflict) {
		return false, nil
	}

	return err == nil, err
}

// Update reads the collection, applies fn and writes the result only if nobody else
// wrote in between, retrying on conflict. An error from fn aborts without writing.
// fn may run more than once and must only depend on the items it is given.
func (c *Collection[T]) Update(ctx context.Context, fn func(items []T) ([]T, error)) ([]T, error) {
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		items, version, err := c.Load(ctx)

		if err != nil {
			return nil, err
		}

		next, err := fn(items)

		if err != nil {
			return nil, err
		}

		data, err := encodeItems(next)

		if err != nil {
			return nil, err
		}

		_, err = c.store.CompareAndSwap(ctx, c.key, version, data)

		if err == nil {
			return next, nil
		}

		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}

		if attempt+1 < c.maxAttempts {
			if err := sleepCtx(ctx, conflictBackoff(attempt)); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%s: %w", c.key, ErrTooManyConflicts)
}

func decodeItems[T any](raw []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)

	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	// legacy layout: a bare JSON array with no schema tag
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		if items == nil {
			items = []T{}
		}
		return items, nil
	}

	var env envelope[T]

	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}

	if env.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSchema, env.SchemaVersion)
	}

	if env.Items == nil {
		env.Items = []T{}
	}

	return env.Items, nil
}

func encodeItems[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}

	return json.Marshal(envelope[T]{SchemaVersion: SchemaVersion, Items: items})
}
