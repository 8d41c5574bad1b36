// Package booking runs the reservation lifecycle: create, complete and rate.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/homehub/internal/assignment"
	"github.com/geocoder89/homehub/internal/domain/reservation"
	"github.com/geocoder89/homehub/internal/domain/service"
	"github.com/geocoder89/homehub/internal/domain/user"
	"github.com/geocoder89/homehub/internal/domain/worker"
	"github.com/geocoder89/homehub/internal/observability"
	"github.com/geocoder89/homehub/internal/validate"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("homehub/booking")

// errUnchanged aborts a mutation that would write identical state.
var errUnchanged = errors.New("unchanged")

// ActorProvider is the authentication collaborator: who is signed in right now.
type ActorProvider interface {
	CurrentActor(ctx context.Context) (user.Actor, error)
}

type ReservationsRepository interface {
	Create(ctx context.Context, res reservation.Reservation) error
	GetByID(ctx context.Context, id string) (reservation.Reservation, error)
	ListByClient(ctx context.Context, email string) ([]reservation.Reservation, error)
	ListByWorker(ctx context.Context, workerID string) ([]reservation.Reservation, error)
	Mutate(ctx context.Context, id string, fn func(res *reservation.Reservation) error) (reservation.Reservation, error)
}

type WorkersRepository interface {
	List(ctx context.Context) ([]worker.Worker, error)
}

type ServicesRepository interface {
	List(ctx context.Context) ([]service.Service, error)
}

type Service struct {
	reservations ReservationsRepository
	workers      WorkersRepository
	services     ServicesRepository
	actors       ActorProvider
	policy       assignment.Policy

	log  *slog.Logger
	prom *observability.Prom
	now  func() time.Time
}

func NewService(
	reservations ReservationsRepository,
	workers WorkersRepository,
	services ServicesRepository,
	actors ActorProvider,
	policy assignment.Policy,
	log *slog.Logger,
	prom *observability.Prom,
) *Service {
	if policy == nil {
		policy = assignment.NewRandom()
	}

	return &Service{
		reservations: reservations,
		workers:      workers,
		services:     services,
		actors:       actors,
		policy:       policy,
		log:          observability.OrDefault(log),
		prom:         prom,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create books a service for the signed-in actor. Empty fields are reported
// before the actor is checked.
func (s *Service) Create(ctx context.Context, req reservation.CreateRequest) (res reservation.Reservation, err error) {
	ctx, span := tracer.Start(ctx, "booking.Create", trace.WithAttributes(
		attribute.String("service.id", req.ServiceID),
	))
	defer func() { observability.EndSpan(span, err) }()

	if err = validate.Struct(req); err != nil {
		return reservation.Reservation{}, err
	}

	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return reservation.Reservation{}, err
	}

	workers, err := s.workers.List(ctx)
	if err != nil {
		return reservation.Reservation{}, fmt.Errorf("list workers: %w", err)
	}

	assigned, err := s.policy.SelectWorker(workers)
	if err != nil {
		return reservation.Reservation{}, err
	}

	res = reservation.New(req, actor.Email, assigned, s.now())

	if err = s.reservations.Create(ctx, res); err != nil {
		return reservation.Reservation{}, fmt.Errorf("save reservation: %w", err)
	}

	span.SetAttributes(attribute.String("reservation.id", res.ID), attribute.String("worker.id", assigned.ID))
	s.prom.IncTransition("created")
	s.log.InfoContext(ctx, "reservation created",
		"reservation_id", res.ID,
		"client_email", res.ClientEmail,
		"service_id", res.ServiceID,
		"worker_id", assigned.ID,
	)

	return res, nil
}

// Complete marks the reservation COMPLETED. Completing an already completed
// reservation succeeds without writing and reports changed=false.
// The current actor is not consulted; gating by role is left to the caller.
func (s *Service) Complete(ctx context.Context, id string) (changed bool, err error) {
	ctx, span := tracer.Start(ctx, "booking.Complete", trace.WithAttributes(attribute.String("reservation.id", id)))
	defer func() { observability.EndSpan(span, err) }()

	_, err = s.reservations.Mutate(ctx, id, func(res *reservation.Reservation) error {
		if !res.Complete(s.now()) {
			return errUnchanged
		}
		return nil
	})

	if errors.Is(err, errUnchanged) {
		s.log.DebugContext(ctx, "reservation already completed", "reservation_id", id)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.prom.IncTransition("completed")
	s.log.InfoContext(ctx, "reservation completed", "reservation_id", id)

	return true, nil
}

// Rate records the one-time rating of a completed reservation.
func (s *Service) Rate(ctx context.Context, id string, req reservation.RateRequest) (err error) {
	ctx, span := tracer.Start(ctx, "booking.Rate", trace.WithAttributes(
		attribute.String("reservation.id", id),
		attribute.Int("rating.score", req.Score),
	))
	defer func() { observability.EndSpan(span, err) }()

	if err = validate.Struct(req); err != nil {
		return err
	}

	_, err = s.reservations.Mutate(ctx, id, func(res *reservation.Reservation) error {
		return res.Rate(reservation.Rating{Score: req.Score, Comment: req.Comment}, s.now())
	})
	if err != nil {
		return err
	}

	s.prom.IncTransition("rated")
	s.log.InfoContext(ctx, "reservation rated", "reservation_id", id, "score", req.Score)

	return nil
}

func (s *Service) Get(ctx context.Context, id string) (reservation.Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

func (s *Service) ListForClient(ctx context.Context, email string) ([]reservation.Reservation, error) {
	return s.reservations.ListByClient(ctx, email)
}

func (s *Service) ListForWorker(ctx context.Context, workerID string) ([]reservation.Reservation, error) {
	return s.reservations.ListByWorker(ctx, workerID)
}
