package chat

import (
	"context"
	"sync"

	"github.com/geocoder89/homehub/internal/domain/reservation"
	"github.com/geocoder89/homehub/internal/domain/user"
	"github.com/geocoder89/homehub/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Session is one actor's chat context: at most one open reservation and one observer.
type Session struct {
	svc   *Service
	actor user.Actor

	mu       sync.Mutex
	openID   string
	observer Observer
	closed   bool
}

func (s *Session) Actor() user.Actor {
	return s.actor
}

// Open makes id the reservation that Send appends to.
func (s *Session) Open(ctx context.Context, id string) (reservation.Reservation, error) {
	res, err := s.svc.reservations.GetByID(ctx, id)
	if err != nil {
		return reservation.Reservation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return reservation.Reservation{}, ErrSessionClosed
	}
	s.openID = id

	return res, nil
}

func (s *Session) OpenReservationID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.openID, s.openID != ""
}

// OnUpdated registers the observer, replacing any previous one.
func (s *Session) OnUpdated(obs Observer) {
	s.mu.Lock()
	s.observer = obs
	s.mu.Unlock()
}

// Send appends a message from the session's actor to the open reservation.
// A client message also schedules the assigned worker's canned reply.
func (s *Session) Send(ctx context.Context, text string) (err error) {
	ctx, span := tracer.Start(ctx, "chat.Send", trace.WithAttributes(attribute.String("actor.role", string(s.actor.Role))))
	defer func() { observability.EndSpan(span, err) }()

	text, err = normalizeText(text)
	if err != nil {
		return err
	}

	s.mu.Lock()
	id, closed := s.openID, s.closed
	s.mu.Unlock()

	if closed {
		return ErrSessionClosed
	}
	if id == "" {
		return ErrNoOpenChat
	}

	span.SetAttributes(attribute.String("reservation.id", id))

	updated, err := s.svc.reservations.Mutate(ctx, id, func(res *reservation.Reservation) error {
		res.AppendMessage(reservation.Message{
			SenderName:      s.actor.Name,
			Text:            text,
			TimestampMillis: s.svc.now().UnixMilli(),
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.svc.prom.IncChatMessage(string(s.actor.Role))
	s.svc.log.DebugContext(ctx, "chat message appended", "reservation_id", id, "role", s.actor.Role)

	s.notify(id, updated.Messages)

	if s.actor.Role == user.RoleClient {
		s.svc.scheduleReply(id, s)
	}

	return nil
}

// Close detaches the observer. Replies already scheduled still persist but are not reported.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.openID = ""
	s.observer = nil
	s.mu.Unlock()
}

func (s *Session) notify(id string, messages []reservation.Message) {
	s.mu.Lock()
	obs := s.observer
	current := !s.closed && s.openID == id
	s.mu.Unlock()

	if obs == nil || !current {
		return
	}

	out := make([]reservation.Message, len(messages))
	copy(out, messages)
	obs(out)
}
