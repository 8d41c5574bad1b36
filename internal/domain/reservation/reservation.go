package reservation

import (
	"errors"
	"time"

	"github.com/geocoder89/homehub/internal/domain/worker"
	"github.com/google/uuid"
)

type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusCompleted:
		return true
	default:
		return false
	}
}

var (
	ErrNotFound     = errors.New("reservation not found")
	ErrInvalidState = errors.New("reservation is not completed")
	ErrAlreadyRated = errors.New("reservation already rated")
)

// Message is immutable once appended; log order is append order.
type Message struct {
	SenderName      string `json:"senderName"`
	Text            string `json:"text"`
	TimestampMillis int64  `json:"timestampMillis"`
}

func (m Message) Time() time.Time {
	return time.UnixMilli(m.TimestampMillis)
}

type Rating struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// Reservation invariants: Rating is set only once Status is COMPLETED, and
// AssignedWorker is a copy taken at creation that is never reassigned.
type Reservation struct {
	ID             string        `json:"id"`
	ClientEmail    string        `json:"clientEmail"`
	ServiceID      string        `json:"serviceId"`
	Date           string        `json:"date"`
	Time           string        `json:"time"`
	Address        string        `json:"address"`
	Status         Status        `json:"status"`
	AssignedWorker worker.Worker `json:"assignedWorker"`
	Messages       []Message     `json:"messages"`
	Rating         *Rating       `json:"rating"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	CompletedAt    *time.Time    `json:"completedAt,omitempty"`
}

// Date, time and address accept any non-empty text; no format is enforced.
type CreateRequest struct {
	ServiceID string `json:"serviceId" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Time      string `json:"time" validate:"required"`
	Address   string `json:"address" validate:"required"`
}

type RateRequest struct {
	Score   int    `json:"score" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

// A factory to build a Reservation from the incoming request
func New(req CreateRequest, clientEmail string, assigned worker.Worker, now time.Time) Reservation {
	return Reservation{
		ID:             uuid.NewString(),
		ClientEmail:    clientEmail,
		ServiceID:      req.ServiceID,
		Date:           req.Date,
		Time:           req.Time,
		Address:        req.Address,
		Status:         StatusCreated,
		AssignedWorker: assigned,
		Messages:       []Message{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Complete moves CREATED to COMPLETED. Completing twice is a no-op and reports false.
func (r *Reservation) Complete(now time.Time) bool {
	if r.Status == StatusCompleted {
		return false
	}

	r.Status = StatusCompleted
	r.CompletedAt = &now
	r.UpdatedAt = now
	return true
}

func (r *Reservation) Rate(rating Rating, now time.Time) error {
	if r.Status != StatusCompleted {
		return ErrInvalidState
	}

	if r.Rating != nil {
		return ErrAlreadyRated
	}

	r.Rating = &rating
	r.UpdatedAt = now
	return nil
}

// Rateable is the eligibility rule for offering a rating: completed and not yet rated.
func (r Reservation) Rateable() bool {
	return r.Status == StatusCompleted && r.Rating == nil
}

func (r *Reservation) AppendMessage(m Message) {
	r.Messages = append(r.Messages, m)
	r.UpdatedAt = time.UnixMilli(m.TimestampMillis).UTC()
}

// Clone copies the message log and rating so callers cannot alias stored state.
func (r Reservation) Clone() Reservation {
	out := r

	out.Messages = make([]Message, len(r.Messages))
	copy(out.Messages, r.Messages)

	if r.Rating != nil {
		rt := *r.Rating
		out.Rating = &rt
	}

	if r.CompletedAt != nil {
		c := *r.CompletedAt
		out.CompletedAt = &c
	}

	return out
}
