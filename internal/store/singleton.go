package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

type singletonEnvelope[T any] struct {
	SchemaVersion int `json:"schemaVersion"`
	Value         *T  `json:"value"`
}

// Singleton is a one-value document, e.g. the current session.
type Singleton[T any] struct {
	store Store
	key   string
}

func NewSingleton[T any](s Store, key string) *Singleton[T] {
	return &Singleton[T]{store: s, key: key}
}

// Load reports ok=false when the document is missing or has been cleared.
func (s *Singleton[T]) Load(ctx context.Context) (value T, ok bool, err error) {
	raw, _, err := GetOr(ctx, s.store, s.key, nil)

	if err != nil {
		return
	}

	trimmed := bytes.TrimSpace(raw)

	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return
	}

	var env singletonEnvelope[T]

	if err = json.Unmarshal(trimmed, &env); err != nil {
		err = fmt.Errorf("decode %s: %w", s.key, err)
		return
	}

	if env.SchemaVersion > SchemaVersion {
		err = fmt.Errorf("%w: %d", ErrUnsupportedSchema, env.SchemaVersion)
		return
	}

	if env.Value == nil {
		return
	}

	return *env.Value, true, nil
}

func (s *Singleton[T]) Save(ctx context.Context, value T) error {
	return s.write(ctx, &value)
}

// Clear stores an empty value; the store contract has no delete.
func (s *Singleton[T]) Clear(ctx context.Context) error {
	return s.write(ctx, nil)
}

func (s *Singleton[T]) write(ctx context.Context, value *T) error {
	data, err := json.Marshal(singletonEnvelope[T]{SchemaVersion: SchemaVersion, Value: value})

	if err != nil {
		return err
	}

	_, err = s.store.Put(ctx, s.key, data)
	return err
}
