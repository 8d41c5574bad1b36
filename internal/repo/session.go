package repo

import (
	"context"
	"time"

	"github.com/geocoder89/homehub/internal/store"
)

// Session is the persisted "current session actor" document.
type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type SessionsRepo struct {
	doc *store.Singleton[Session]
}

func NewSessionsRepo(s store.Store) *SessionsRepo {
	return &SessionsRepo{doc: store.NewSingleton[Session](s, KeySession)}
}

func (r *SessionsRepo) Save(ctx context.Context, s Session) error {
	return r.doc.Save(ctx, s)
}

// Load reports ok=false when nobody is signed in.
func (r *SessionsRepo) Load(ctx context.Context) (Session, bool, error) {
	return r.doc.Load(ctx)
}

func (r *SessionsRepo) Clear(ctx context.Context) error {
	return r.doc.Clear(ctx)
}
