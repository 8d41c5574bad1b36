package repo

import (
	"context"

	"github.com/geocoder89/homehub/internal/domain/service"
	"github.com/geocoder89/homehub/internal/store"
)

// ServicesRepo is read-only: the catalog is reference data written by seeding.
type ServicesRepo struct {
	col *store.Collection[service.Service]
}

func NewServicesRepo(s store.Store) *ServicesRepo {
	return &ServicesRepo{col: store.NewCollection[service.Service](s, KeyServices)}
}

func (r *ServicesRepo) List(ctx context.Context) ([]service.Service, error) {
	services, _, err := r.col.Load(ctx)
	return services, err
}

func (r *ServicesRepo) GetByID(ctx context.Context, id string) (service.Service, error) {
	services, err := r.List(ctx)
	if err != nil {
		return service.Service{}, err
	}

	for _, s := range services {
		if s.ID == id {
			return s, nil
		}
	}

	return service.Service{}, service.ErrNotFound
}
