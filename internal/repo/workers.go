package repo

import (
	"context"

	"github.com/geocoder89/homehub/internal/domain/worker"
	"github.com/geocoder89/homehub/internal/store"
)

type WorkersRepo struct {
	col *store.Collection[worker.Worker]
}

func NewWorkersRepo(s store.Store) *WorkersRepo {
	return &WorkersRepo{col: store.NewCollection[worker.Worker](s, KeyWorkers)}
}

func (r *WorkersRepo) List(ctx context.Context) ([]worker.Worker, error) {
	workers, _, err := r.col.Load(ctx)
	return workers, err
}

// Remove drops the worker with id; a missing id is not an error.
func (r *WorkersRepo) Remove(ctx context.Context, id string) error {
	_, err := r.col.Update(ctx, func(workers []worker.Worker) ([]worker.Worker, error) {
		out := make([]worker.Worker, 0, len(workers))
		for _, w := range workers {
			if w.ID != id {
				out = append(out, w)
			}
		}
		return out, nil
	})
	return err
}

func (r *WorkersRepo) Add(ctx context.Context, w worker.Worker) error {
	_, err := r.col.Update(ctx, func(workers []worker.Worker) ([]worker.Worker, error) {
		return append(workers, w), nil
	})
	return err
}
