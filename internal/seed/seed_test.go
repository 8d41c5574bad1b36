package seed_test

import (
	"context"
	"testing"

	"github.com/geocoder89/homehub/internal/domain/worker"
	"github.com/geocoder89/homehub/internal/repo"
	"github.com/geocoder89/homehub/internal/seed"
	"github.com/geocoder89/homehub/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDefaults(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	res, err := seed.EnsureDefaults(ctx, s, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{repo.KeyServices, repo.KeyWorkers, repo.KeyUsers, repo.KeyReservations}, res.Created)
	assert.Empty(t, res.Skipped)

	services, err := repo.NewServicesRepo(s).List(ctx)
	require.NoError(t, err)
	require.Len(t, services, 4)
	assert.Equal(t, "s1", services[0].ID)
	assert.Equal(t, 25000, services[0].Price)

	workers, err := repo.NewWorkersRepo(s).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, worker.Defaults(), workers)

	users, err := repo.NewUsersRepo(s).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestEnsureDefaults_KeepsExistingData(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	workers := repo.NewWorkersRepo(s)

	require.NoError(t, workers.Add(ctx, worker.Worker{ID: "u9", Name: "Sofía"}))

	res, err := seed.EnsureDefaults(ctx, s, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{repo.KeyWorkers}, res.Skipped)

	all, err := workers.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "u9", all[0].ID)

	// second run is a no-op
	res, err = seed.EnsureDefaults(ctx, s, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Len(t, res.Skipped, 4)
}
