// Package app wires the booking core together and exposes the operations the
// presentation layer calls.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/homehub/internal/assignment"
	"github.com/geocoder89/homehub/internal/auth"
	"github.com/geocoder89/homehub/internal/booking"
	"github.com/geocoder89/homehub/internal/catalog"
	"github.com/geocoder89/homehub/internal/chat"
	"github.com/geocoder89/homehub/internal/config"
	"github.com/geocoder89/homehub/internal/domain/reservation"
	"github.com/geocoder89/homehub/internal/domain/service"
	"github.com/geocoder89/homehub/internal/domain/user"
	"github.com/geocoder89/homehub/internal/observability"
	"github.com/geocoder89/homehub/internal/repo"
	"github.com/geocoder89/homehub/internal/seed"
	"github.com/geocoder89/homehub/internal/store"
	"github.com/geocoder89/homehub/internal/validate"
)

// Chat senders and lifecycle calls all contend on the one reservations document.
const defaultMaxAttempts = 64

type Options struct {
	Log  *slog.Logger
	Prom *observability.Prom

	JWTSecret  string
	SessionTTL time.Duration

	Policy     assignment.Policy
	Classifier catalog.Classifier
	Scheduler  chat.Scheduler
	Chat       chat.Config

	// MaxAttempts bounds optimistic retries on the reservations collection.
	MaxAttempts int
	// CatalogTTL is how long the service catalog is served from memory.
	CatalogTTL time.Duration
}

type App struct {
	store store.Store
	log   *slog.Logger

	Auth    *auth.Service
	Booking *booking.Service
	Chat    *chat.Service
	Catalog *catalog.Query
}

func New(s store.Store, opts Options) *App {
	log := observability.OrDefault(opts.Log)

	if opts.JWTSecret == "" {
		opts.JWTSecret = "dev-secret-change-me"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	if opts.CatalogTTL <= 0 {
		opts.CatalogTTL = 30 * time.Second
	}

	users := repo.NewUsersRepo(s)
	workers := repo.NewWorkersRepo(s)
	services := repo.NewServicesRepo(s)
	sessions := repo.NewSessionsRepo(s)
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	reservations := repo.NewReservationsRepo(s).WithMaxAttempts(opts.MaxAttempts)

	authSvc := auth.NewService(users, workers, sessions, auth.NewManager(opts.JWTSecret, opts.SessionTTL), log)

	return &App{
		store:   s,
		log:     log,
		Auth:    authSvc,
		Booking: booking.NewService(reservations, workers, services, authSvc, opts.Policy, log, opts.Prom),
		Chat:    chat.NewService(reservations, opts.Scheduler, opts.Chat, log, opts.Prom),
		Catalog: catalog.NewQuery(catalog.NewCachedServices(services, opts.CatalogTTL), opts.Classifier),
	}
}

// Open builds the app from configuration: store backend, optional seeding, services.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom) (*App, error) {
	s, err := OpenStore(ctx, cfg, prom)
	if err != nil {
		return nil, err
	}

	if cfg.SeedDefaults {
		if _, err := seed.EnsureDefaults(ctx, s, log); err != nil {
			s.Close()
			return nil, err
		}
	}

	return New(s, Options{
		Log:        log,
		Prom:       prom,
		JWTSecret:  cfg.JWTSecret,
		SessionTTL: cfg.SessionTTL,
		Chat: chat.Config{
			ReplyDelay: cfg.ChatReplyDelay,
			ReplyText:  cfg.ChatReplyText,
		},
	}), nil
}

// Ready reports whether the store answers within a short deadline.
func (a *App) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	if err := a.store.Ping(ctx); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	a.Chat.Close()
	return a.store.Close()
}

func (a *App) Register(ctx context.Context, req user.RegisterRequest) (user.Actor, error) {
	return a.Auth.Register(ctx, req)
}

func (a *App) Login(ctx context.Context, email, password string) (user.Actor, error) {
	return a.Auth.Login(ctx, email, password)
}

func (a *App) Logout(ctx context.Context) error {
	return a.Auth.Logout(ctx)
}

func (a *App) CurrentActor(ctx context.Context) (user.Actor, error) {
	return a.Auth.CurrentActor(ctx)
}

// ListServices accepts an empty category for "all".
func (a *App) ListServices(ctx context.Context, term, category string) ([]service.Service, error) {
	c, err := catalog.ParseCategory(category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", validate.ErrInvalidField, err)
	}

	return a.Catalog.List(ctx, term, c)
}

func (a *App) CreateReservation(ctx context.Context, serviceID, date, timeSlot, address string) (reservation.Reservation, error) {
	return a.Booking.Create(ctx, reservation.CreateRequest{
		ServiceID: serviceID,
		Date:      date,
		Time:      timeSlot,
		Address:   address,
	})
}

func (a *App) ListReservationsForClient(ctx context.Context, email string) ([]reservation.Reservation, error) {
	return a.Booking.ListForClient(ctx, email)
}

func (a *App) ListReservationsForWorker(ctx context.Context, workerID string) ([]reservation.Reservation, error) {
	return a.Booking.ListForWorker(ctx, workerID)
}

func (a *App) CompleteReservation(ctx context.Context, id string) error {
	_, err := a.Booking.Complete(ctx, id)
	return err
}

func (a *App) Rate(ctx context.Context, id string, score int, comment string) error {
	return a.Booking.Rate(ctx, id, reservation.RateRequest{Score: score, Comment: comment})
}

// NewChatSession binds a chat session to the signed-in actor.
func (a *App) NewChatSession(ctx context.Context) (*chat.Session, error) {
	actor, err := a.Auth.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	return a.Chat.NewSession(actor), nil
}

// OpenChat opens id in sess and registers the observer for message updates.
func (a *App) OpenChat(ctx context.Context, sess *chat.Session, id string, onUpdated chat.Observer) (reservation.Reservation, error) {
	res, err := sess.Open(ctx, id)
	if err != nil {
		return reservation.Reservation{}, err
	}

	if onUpdated != nil {
		sess.OnUpdated(onUpdated)
	}
	return res, nil
}

func (a *App) SendChatMessage(ctx context.Context, sess *chat.Session, text string) error {
	return sess.Send(ctx, text)
}
