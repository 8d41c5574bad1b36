// Package seed writes the default catalog and demo workers on first start.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/homehub/internal/domain/reservation"
	"github.com/geocoder89/homehub/internal/domain/service"
	"github.com/geocoder89/homehub/internal/domain/user"
	"github.com/geocoder89/homehub/internal/domain/worker"
	"github.com/geocoder89/homehub/internal/observability"
	"github.com/geocoder89/homehub/internal/repo"
	"github.com/geocoder89/homehub/internal/store"
)

type Result struct {
	Created []string
	Skipped []string
}

func (r *Result) record(key string, created bool) {
	if created {
		r.Created = append(r.Created, key)
		return
	}
	r.Skipped = append(r.Skipped, key)
}

// EnsureDefaults creates each collection that does not exist yet. Existing
// documents, even empty ones, are never overwritten, so it runs on every start.
func EnsureDefaults(ctx context.Context, s store.Store, log *slog.Logger) (Result, error) {
	log = observability.OrDefault(log)

	steps := []struct {
		key  string
		init func() (bool, error)
	}{
		{repo.KeyServices, func() (bool, error) {
			return store.NewCollection[service.Service](s, repo.KeyServices).Init(ctx, service.Defaults())
		}},
		{repo.KeyWorkers, func() (bool, error) {
			return store.NewCollection[worker.Worker](s, repo.KeyWorkers).Init(ctx, worker.Defaults())
		}},
		{repo.KeyUsers, func() (bool, error) {
			return store.NewCollection[user.User](s, repo.KeyUsers).Init(ctx, nil)
		}},
		{repo.KeyReservations, func() (bool, error) {
			return store.NewCollection[reservation.Reservation](s, repo.KeyReservations).Init(ctx, nil)
		}},
	}

	var res Result

	for _, step := range steps {
		created, err := step.init()
		if err != nil {
			return res, fmt.Errorf("seed %s: %w", step.key, err)
		}

		res.record(step.key, created)
		if created {
			log.InfoContext(ctx, "seeded collection", "key", step.key)
		}
	}

	return res, nil
}
