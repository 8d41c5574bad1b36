package reservation

import (
	"testing"
	"time"

	"github.com/geocoder89/homehub/internal/domain/worker"
)

func newReservation(t *testing.T) Reservation {
	t.Helper()

	req := CreateRequest{ServiceID: "s1", Date: "2025-01-10", Time: "10:00", Address: "Calle 1"}
	return New(req, "ana@x.com", worker.Worker{ID: "w2", Name: "Laura Gómez"}, time.Unix(1000, 0).UTC())
}

func TestNew_StartsCreatedWithEmptyLog(t *testing.T) {
	r := newReservation(t)

	if r.ID == "" {
		t.Fatalf("expected generated id")
	}
	if r.Status != StatusCreated {
		t.Fatalf("expected CREATED, got %s", r.Status)
	}
	if r.Messages == nil || len(r.Messages) != 0 {
		t.Fatalf("expected empty non-nil message log, got %#v", r.Messages)
	}
	if r.Rating != nil {
		t.Fatalf("expected no rating")
	}
	if r.AssignedWorker.ID != "w2" {
		t.Fatalf("expected assigned worker copy, got %#v", r.AssignedWorker)
	}
}

func TestComplete_Idempotent(t *testing.T) {
	r := newReservation(t)

	first := time.Unix(2000, 0).UTC()
	if changed := r.Complete(first); !changed {
		t.Fatalf("expected first completion to change state")
	}

	if changed := r.Complete(time.Unix(3000, 0).UTC()); changed {
		t.Fatalf("expected second completion to be a no-op")
	}

	if r.Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", r.Status)
	}
	if r.CompletedAt == nil || !r.CompletedAt.Equal(first) {
		t.Fatalf("expected completion time to stay at first completion, got %v", r.CompletedAt)
	}
}

func TestRate(t *testing.T) {
	tests := []struct {
		name     string
		complete bool
		rated    bool
		wantErr  error
	}{
		{name: "not completed", wantErr: ErrInvalidState},
		{name: "completed", complete: true},
		{name: "already rated", complete: true, rated: true, wantErr: ErrAlreadyRated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReservation(t)
			now := time.Unix(5000, 0).UTC()

			if tt.complete {
				r.Complete(now)
			}
			if tt.rated {
				r.Rating = &Rating{Score: 3}
			}

			err := r.Rate(Rating{Score: 5, Comment: "Excelente"}, now)
			if err != tt.wantErr {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			if tt.wantErr == nil && (r.Rating == nil || r.Rating.Score != 5) {
				t.Fatalf("expected rating stored, got %#v", r.Rating)
			}
			if tt.rated && r.Rating.Score != 3 {
				t.Fatalf("expected original rating kept, got %#v", r.Rating)
			}
		})
	}
}

func TestRateable(t *testing.T) {
	r := newReservation(t)
	if r.Rateable() {
		t.Fatalf("created reservation must not be rateable")
	}

	r.Complete(time.Now())
	if !r.Rateable() {
		t.Fatalf("completed unrated reservation must be rateable")
	}

	_ = r.Rate(Rating{Score: 4}, time.Now())
	if r.Rateable() {
		t.Fatalf("rated reservation must not be rateable")
	}
}

func TestClone_DoesNotAliasMessages(t *testing.T) {
	r := newReservation(t)
	r.AppendMessage(Message{SenderName: "Ana", Text: "Hola", TimestampMillis: 1})

	c := r.Clone()
	c.Messages[0].Text = "changed"
	c.AppendMessage(Message{SenderName: "Laura Gómez", Text: "ok", TimestampMillis: 2})

	if r.Messages[0].Text != "Hola" || len(r.Messages) != 1 {
		t.Fatalf("original mutated through clone: %#v", r.Messages)
	}
}
