package repo

import (
	"context"

	"github.com/geocoder89/homehub/internal/domain/reservation"
	"github.com/geocoder89/homehub/internal/store"
)

type ReservationsRepo struct {
	col *store.Collection[reservation.Reservation]
}

func NewReservationsRepo(s store.Store) *ReservationsRepo {
	return &ReservationsRepo{col: store.NewCollection[reservation.Reservation](s, KeyReservations)}
}

// WithMaxAttempts bounds how often a contended mutation is retried.
func (r *ReservationsRepo) WithMaxAttempts(n int) *ReservationsRepo {
	r.col.WithMaxAttempts(n)
	return r
}

func (r *ReservationsRepo) Create(ctx context.Context, res reservation.Reservation) error {
	_, err := r.col.Update(ctx, func(items []reservation.Reservation) ([]reservation.Reservation, error) {
		return append(items, res), nil
	})
	return err
}

func (r *ReservationsRepo) GetByID(ctx context.Context, id string) (reservation.Reservation, error) {
	items, _, err := r.col.Load(ctx)
	if err != nil {
		return reservation.Reservation{}, err
	}

	for _, res := range items {
		if res.ID == id {
			return res, nil
		}
	}

	return reservation.Reservation{}, reservation.ErrNotFound
}

func (r *ReservationsRepo) List(ctx context.Context) ([]reservation.Reservation, error) {
	items, _, err := r.col.Load(ctx)
	return items, err
}

// ListByClient keeps insertion order.
func (r *ReservationsRepo) ListByClient(ctx context.Context, email string) ([]reservation.Reservation, error) {
	return r.filter(ctx, func(res reservation.Reservation) bool {
		return res.ClientEmail == email
	})
}

func (r *ReservationsRepo) ListByWorker(ctx context.Context, workerID string) ([]reservation.Reservation, error) {
	return r.filter(ctx, func(res reservation.Reservation) bool {
		return res.AssignedWorker.ID == workerID
	})
}

// Mutate applies fn to the reservation with the given id and writes the whole
// collection back only if it was not changed concurrently. fn may run more than
// once; an error from it leaves the stored state untouched.
func (r *ReservationsRepo) Mutate(ctx context.Context, id string, fn func(res *reservation.Reservation) error) (reservation.Reservation, error) {
	var updated reservation.Reservation

	_, err := r.col.Update(ctx, func(items []reservation.Reservation) ([]reservation.Reservation, error) {
		for i := range items {
			if items[i].ID != id {
				continue
			}

			res := items[i].Clone()
			if err := fn(&res); err != nil {
				return nil, err
			}

			items[i] = res
			updated = res
			return items, nil
		}

		return nil, reservation.ErrNotFound
	})

	if err != nil {
		return reservation.Reservation{}, err
	}

	return updated.Clone(), nil
}

func (r *ReservationsRepo) filter(ctx context.Context, keep func(reservation.Reservation) bool) ([]reservation.Reservation, error) {
	items, _, err := r.col.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]reservation.Reservation, 0, len(items))
	for _, res := range items {
		if keep(res) {
			out = append(out, res)
		}
	}

	return out, nil
}
