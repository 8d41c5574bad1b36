package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/geocoder89/homehub/internal/observability"
	"github.com/geocoder89/homehub/internal/store"
	"github.com/geocoder89/homehub/internal/store/storetest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, prom *observability.Prom) *Store {
	t.Helper()
	s, err := Open(":memory:", prom)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreConformance(t *testing.T) {
	storetest.Run(t, newTestStore(t, nil))
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "homehub.db")
	ctx := context.Background()

	s, err := Open(dsn, nil)
	require.NoError(t, err)
	_, err = s.Put(ctx, "reservations", []byte(`{"schemaVersion":1,"items":[]}`))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(dsn, nil)
	require.NoError(t, err)
	defer reopened.Close()

	doc, err := reopened.Get(ctx, "reservations")
	require.NoError(t, err)
	assert.EqualValues(t, 1, doc.Version)
}

func TestSQLiteStoreRecordsConflictMetric(t *testing.T) {
	prom := observability.NewProm(prometheus.NewRegistry())
	s := newTestStore(t, prom)
	ctx := context.Background()

	_, err := s.CompareAndSwap(ctx, "k", 0, []byte(`1`))
	require.NoError(t, err)
	_, err = s.CompareAndSwap(ctx, "k", 0, []byte(`2`))
	require.ErrorIs(t, err, store.ErrVersionConflict)

	assert.Equal(t, 1.0, testutil.ToFloat64(prom.StoreErrorsTotal.WithLabelValues(backend, "cas", "conflict")))
}
