// Package storetest is a conformance suite every store backend runs in its own tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/geocoder89/homehub/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises s with keys unique to this run, so shared databases need no reset.
func Run(t *testing.T, s store.Store) {
	t.Helper()

	ns := "storetest:" + uuid.NewString() + ":"
	ctx := context.Background()

	t.Run("get_missing", func(t *testing.T) {
		_, err := s.Get(ctx, ns+"missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("get_or_default_does_not_write", func(t *testing.T) {
		key := ns + "default"

		data, version, err := store.GetOr(ctx, s, key, []byte(`[]`))
		require.NoError(t, err)
		assert.Equal(t, []byte(`[]`), data)
		assert.Zero(t, version)

		_, err = s.Get(ctx, key)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("put_replaces_and_bumps_version", func(t *testing.T) {
		key := ns + "put"

		v1, err := s.Put(ctx, key, []byte(`{"a":1}`))
		require.NoError(t, err)
		v2, err := s.Put(ctx, key, []byte(`{"a":2}`))
		require.NoError(t, err)
		assert.Greater(t, v2, v1)

		doc, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":2}`, string(doc.Data))
		assert.Equal(t, v2, doc.Version)
	})

	t.Run("cas_create_only_once", func(t *testing.T) {
		key := ns + "create"

		v, err := s.CompareAndSwap(ctx, key, 0, []byte(`{"n":1}`))
		require.NoError(t, err)
		assert.EqualValues(t, 1, v)

		_, err = s.CompareAndSwap(ctx, key, 0, []byte(`{"n":2}`))
		require.ErrorIs(t, err, store.ErrVersionConflict)

		doc, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"n":1}`, string(doc.Data))
	})

	t.Run("cas_stale_version_leaves_data", func(t *testing.T) {
		key := ns + "stale"

		v1, err := s.CompareAndSwap(ctx, key, 0, []byte(`{"n":1}`))
		require.NoError(t, err)

		v2, err := s.CompareAndSwap(ctx, key, v1, []byte(`{"n":2}`))
		require.NoError(t, err)
		assert.Equal(t, v1+1, v2)

		_, err = s.CompareAndSwap(ctx, key, v1, []byte(`{"n":3}`))
		require.ErrorIs(t, err, store.ErrVersionConflict)

		doc, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"n":2}`, string(doc.Data))
		assert.Equal(t, v2, doc.Version)
	})

	t.Run("collection_update_loses_nothing_under_contention", func(t *testing.T) {
		col := store.NewCollection[string](s, ns+"contended").WithMaxAttempts(100)

		const writers = 8
		var wg sync.WaitGroup
		errs := make(chan error, writers)

		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := col.Update(ctx, func(items []string) ([]string, error) {
					return append(items, fmt.Sprintf("w%d", i)), nil
				})
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		items, _, err := col.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, items, writers)
	})
}
