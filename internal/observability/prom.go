package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/homehub/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	// Store
	StoreOpDuration  *prometheus.HistogramVec
	StoreErrorsTotal *prometheus.CounterVec

	// Reservation lifecycle
	Transitions *prometheus.CounterVec

	// Chat
	ChatMessages       *prometheus.CounterVec
	AutoReplies        *prometheus.CounterVec
	AutoRepliesPending prometheus.Gauge
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		StoreOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "homehub",
				Subsystem: "store",
				Name:      "op_duration_seconds",
				Help:      "Document store operation latency by backend and logical op.",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2},
			},
			[]string{"backend", "op", "status"},
		),
		StoreErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "homehub",
				Subsystem: "store",
				Name:      "errors_total",
				Help:      "Document store errors by backend, op and class.",
			},
			[]string{"backend", "op", "class"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "homehub",
				Subsystem: "reservations",
				Name:      "transitions_total",
				Help:      "Reservation lifecycle transitions.",
			},
			[]string{"transition"}, // created|completed|rated
		),
		ChatMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "homehub",
				Subsystem: "chat",
				Name:      "messages_total",
				Help:      "Chat messages appended, by sender kind.",
			},
			[]string{"sender"}, // client|worker|auto_reply
		),
		AutoReplies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "homehub",
				Subsystem: "chat",
				Name:      "auto_replies_total",
				Help:      "Simulated worker replies by outcome.",
			},
			[]string{"result"}, // scheduled|rejected|delivered|cancelled|dropped|failed
		),
		AutoRepliesPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "homehub",
				Subsystem: "chat",
				Name:      "auto_replies_pending",
				Help:      "Auto-replies scheduled but not yet fired.",
			},
		),
	}
	reg.MustRegister(p.StoreOpDuration, p.StoreErrorsTotal, p.Transitions, p.ChatMessages, p.AutoReplies, p.AutoRepliesPending)

	return p
}

// ObserveStore times fn and records its outcome. A nil *Prom just runs fn.
func (p *Prom) ObserveStore(backend, op string, fn func() error) error {
	if p == nil {
		return fn()
	}

	start := time.Now()
	err := fn()

	status := "ok"

	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		status = "miss"
	default:
		status = "error"
		p.StoreErrorsTotal.WithLabelValues(backend, op, classifyStoreErr(err)).Inc()
	}

	p.StoreOpDuration.WithLabelValues(backend, op, status).Observe(time.Since(start).Seconds())
	return err
}

func (p *Prom) IncTransition(transition string) {
	if p == nil {
		return
	}
	p.Transitions.WithLabelValues(transition).Inc()
}

func (p *Prom) IncChatMessage(sender string) {
	if p == nil {
		return
	}
	p.ChatMessages.WithLabelValues(sender).Inc()
}

func (p *Prom) IncAutoReply(result string) {
	if p == nil {
		return
	}
	p.AutoReplies.WithLabelValues(result).Inc()
}

func (p *Prom) AddPendingReplies(delta int) {
	if p == nil {
		return
	}
	p.AutoRepliesPending.Add(float64(delta))
}

func classifyStoreErr(err error) string {
	if errors.Is(err, store.ErrVersionConflict) {
		return "conflict"
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "unique_violation"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection"):
		return "connection"
	case strings.Contains(msg, "locked") || strings.Contains(msg, "busy"):
		return "busy"
	default:
		return "unknown"
	}
}
