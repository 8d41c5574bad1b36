// Package auth is the authentication collaborator: registration, login and
// the persisted current-session actor.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/homehub/internal/domain/user"
	"github.com/geocoder89/homehub/internal/domain/worker"
	"github.com/geocoder89/homehub/internal/observability"
	"github.com/geocoder89/homehub/internal/repo"
	"github.com/geocoder89/homehub/internal/security"
	"github.com/geocoder89/homehub/internal/validate"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("homehub/auth")

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type UsersRepository interface {
	Create(ctx context.Context, u user.User) error
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type WorkersRepository interface {
	Add(ctx context.Context, w worker.Worker) error
	Remove(ctx context.Context, id string) error
}

type SessionsRepository interface {
	Save(ctx context.Context, s repo.Session) error
	Load(ctx context.Context) (repo.Session, bool, error)
	Clear(ctx context.Context) error
}

type Service struct {
	users    UsersRepository
	workers  WorkersRepository
	sessions SessionsRepository
	tokens   *Manager
	hasher   security.PasswordHasher
	log      *slog.Logger
}

func NewService(users UsersRepository, workers WorkersRepository, sessions SessionsRepository, tokens *Manager, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		workers:  workers,
		sessions: sessions,
		tokens:   tokens,
		hasher:   security.NewPasswordHasher(0),
		log:      observability.OrDefault(log),
	}
}

// WithPasswordHasher overrides the bcrypt cost, e.g. bcrypt.MinCost in tests.
func (s *Service) WithPasswordHasher(h security.PasswordHasher) *Service {
	s.hasher = h
	return s
}

// Register creates a user; role defaults to client. A worker also gets a
// worker projection with the same id so reservations can be assigned to them.
// The projection is written before the user and removed again if the user
// cannot be created, so a failed registration leaves nothing behind.
func (s *Service) Register(ctx context.Context, req user.RegisterRequest) (actor user.Actor, err error) {
	ctx, span := tracer.Start(ctx, "auth.Register")
	defer func() { observability.EndSpan(span, err) }()

	if err = validate.Struct(req); err != nil {
		return user.Actor{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return user.Actor{}, fmt.Errorf("hash password: %w", err)
	}

	u := user.NewFromRegisterRequest(req, hash)

	_, err = s.users.GetByEmail(ctx, u.Email)
	switch {
	case err == nil:
		return user.Actor{}, user.ErrDuplicateEmail
	case !errors.Is(err, user.ErrNotFound):
		return user.Actor{}, err
	}

	if u.Role == user.RoleWorker {
		if err = s.workers.Add(ctx, worker.Worker{ID: u.ID, Name: u.Name}); err != nil {
			return user.Actor{}, fmt.Errorf("register worker: %w", err)
		}
	}

	if err = s.users.Create(ctx, u); err != nil {
		if u.Role == user.RoleWorker {
			if rmErr := s.workers.Remove(ctx, u.ID); rmErr != nil {
				s.log.ErrorContext(ctx, "failed to roll back worker projection", "worker_id", u.ID, "err", rmErr)
			}
		}
		return user.Actor{}, err
	}

	span.SetAttributes(attribute.String("user.role", string(u.Role)))
	s.log.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)

	return u.Actor(), nil
}

// Login succeeds only for an exact email and password pair and persists the session.
func (s *Service) Login(ctx context.Context, email, password string) (actor user.Actor, err error) {
	ctx, span := tracer.Start(ctx, "auth.Login")
	defer func() { observability.EndSpan(span, err) }()

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return user.Actor{}, ErrInvalidCredentials
	}
	if err != nil {
		return user.Actor{}, err
	}

	if err := s.hasher.Check(u.PasswordHash, password); err != nil {
		s.log.WarnContext(ctx, "login rejected", "user_id", u.ID)
		return user.Actor{}, ErrInvalidCredentials
	}

	token, _, err := s.tokens.GenerateSessionToken(u.Actor())
	if err != nil {
		return user.Actor{}, fmt.Errorf("issue session token: %w", err)
	}

	if err = s.sessions.Save(ctx, repo.Session{Token: token, Email: u.Email, CreatedAt: time.Now().UTC()}); err != nil {
		return user.Actor{}, fmt.Errorf("save session: %w", err)
	}

	s.log.InfoContext(ctx, "user logged in", "user_id", u.ID)

	return u.Actor(), nil
}

// CurrentActor resolves the persisted session. Missing, expired or forged
// sessions are all ErrUnauthenticated.
func (s *Service) CurrentActor(ctx context.Context) (user.Actor, error) {
	sess, ok, err := s.sessions.Load(ctx)
	if err != nil {
		return user.Actor{}, err
	}
	if !ok {
		return user.Actor{}, ErrUnauthenticated
	}

	claims, err := s.tokens.VerifySessionToken(sess.Token)
	if err != nil {
		s.log.DebugContext(ctx, "session token rejected", "err", err)
		return user.Actor{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	u, err := s.users.GetByEmail(ctx, claims.Email)
	if errors.Is(err, user.ErrNotFound) {
		return user.Actor{}, ErrUnauthenticated
	}
	if err != nil {
		return user.Actor{}, err
	}

	return u.Actor(), nil
}

func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}
