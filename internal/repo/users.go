package repo

import (
	"context"

	"github.com/geocoder89/homehub/internal/domain/user"
	"github.com/geocoder89/homehub/internal/store"
)

type UsersRepo struct {
	col *store.Collection[user.User]
}

func NewUsersRepo(s store.Store) *UsersRepo {
	return &UsersRepo{col: store.NewCollection[user.User](s, KeyUsers)}
}

// Create appends u unless a user with the same email (exact match) already exists.
func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	_, err := r.col.Update(ctx, func(users []user.User) ([]user.User, error) {
		for _, existing := range users {
			if existing.Email == u.Email {
				return nil, user.ErrDuplicateEmail
			}
		}
		return append(users, u), nil
	})

	return err
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	users, _, err := r.col.Load(ctx)
	if err != nil {
		return user.User{}, err
	}

	for _, u := range users {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	users, _, err := r.col.Load(ctx)
	return users, err
}
