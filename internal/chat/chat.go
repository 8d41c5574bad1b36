// Package chat keeps the per-reservation message log and simulates the
// assigned worker's reply to client messages.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/homehub/internal/domain/reservation"
	"github.com/geocoder89/homehub/internal/domain/user"
	"github.com/geocoder89/homehub/internal/observability"
	"github.com/geocoder89/homehub/internal/validate"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("homehub/chat")

const (
	DefaultReplyDelay = 900 * time.Millisecond
	DefaultReplyText  = "¡Entendido! Nos vemos el día del servicio."

	replyTimeout = 5 * time.Second
)

var (
	ErrNoOpenChat    = errors.New("no reservation is open for chat")
	ErrSessionClosed = errors.New("chat session is closed")
)

// Observer receives the full message log after every append.
type Observer func(messages []reservation.Message)

type ReservationsRepository interface {
	GetByID(ctx context.Context, id string) (reservation.Reservation, error)
	Mutate(ctx context.Context, id string, fn func(res *reservation.Reservation) error) (reservation.Reservation, error)
}

type Config struct {
	ReplyDelay time.Duration
	ReplyText  string
}

type Service struct {
	reservations ReservationsRepository
	scheduler    Scheduler
	cfg          Config

	log  *slog.Logger
	prom *observability.Prom
	now  func() time.Time
}

func NewService(reservations ReservationsRepository, scheduler Scheduler, cfg Config, log *slog.Logger, prom *observability.Prom) *Service {
	if cfg.ReplyDelay <= 0 {
		cfg.ReplyDelay = DefaultReplyDelay
	}
	if cfg.ReplyText == "" {
		cfg.ReplyText = DefaultReplyText
	}
	if scheduler == nil {
		scheduler = NewTimerScheduler()
	}

	return &Service{
		reservations: reservations,
		scheduler:    scheduler,
		cfg:          cfg,
		log:          observability.OrDefault(log),
		prom:         prom,
		now:          time.Now,
	}
}

// NewSession starts a chat context for one actor. Sessions share nothing, so
// concurrent callers each track their own open reservation.
func (s *Service) NewSession(actor user.Actor) *Session {
	return &Session{svc: s, actor: actor}
}

// CancelReplies drops auto-replies still pending for a reservation.
func (s *Service) CancelReplies(reservationID string) int {
	n := s.scheduler.Cancel(reservationID)
	s.settleCancelled(n)

	if n > 0 {
		s.log.Info("auto-replies cancelled", "reservation_id", reservationID, "count", n)
	}
	return n
}

// Close stops the default timer scheduler, dropping pending replies.
func (s *Service) Close() {
	if ts, ok := s.scheduler.(*TimerScheduler); ok {
		s.settleCancelled(ts.Stop())
	}
}

func (s *Service) settleCancelled(n int) {
	for i := 0; i < n; i++ {
		s.prom.IncAutoReply("cancelled")
	}
	s.prom.AddPendingReplies(-n)
}

func (s *Service) scheduleReply(reservationID string, sess *Session) {
	ok := s.scheduler.Schedule(reservationID, s.cfg.ReplyDelay, func() {
		s.deliverReply(reservationID, sess)
	})

	if !ok {
		s.prom.IncAutoReply("rejected")
		s.log.Debug("auto-reply refused, scheduler stopped", "reservation_id", reservationID)
		return
	}

	s.prom.IncAutoReply("scheduled")
	s.prom.AddPendingReplies(1)
}

// deliverReply re-reads the reservation at fire time. A reservation that is gone
// drops the reply; a session that moved on or closed is simply not notified.
func (s *Service) deliverReply(reservationID string, sess *Session) {
	s.prom.AddPendingReplies(-1)

	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "chat.deliverReply", trace.WithAttributes(attribute.String("reservation.id", reservationID)))

	updated, err := s.reservations.Mutate(ctx, reservationID, func(res *reservation.Reservation) error {
		res.AppendMessage(reservation.Message{
			SenderName:      res.AssignedWorker.Name,
			Text:            s.cfg.ReplyText,
			TimestampMillis: s.now().UnixMilli(),
		})
		return nil
	})

	if errors.Is(err, reservation.ErrNotFound) {
		observability.EndSpan(span, nil)
		s.prom.IncAutoReply("dropped")
		s.log.DebugContext(ctx, "auto-reply dropped, reservation gone", "reservation_id", reservationID)
		return
	}

	observability.EndSpan(span, err)

	if err != nil {
		s.prom.IncAutoReply("failed")
		s.log.ErrorContext(ctx, "auto-reply failed", "reservation_id", reservationID, "err", err)
		return
	}

	s.prom.IncAutoReply("delivered")
	s.prom.IncChatMessage("auto_reply")

	sess.notify(reservationID, updated.Messages)
}

func normalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", validate.Required("text")
	}
	return text, nil
}
