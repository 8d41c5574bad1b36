package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/homehub/internal/app"
	"github.com/geocoder89/homehub/internal/config"
	"github.com/geocoder89/homehub/internal/domain/reservation"
	"github.com/geocoder89/homehub/internal/domain/user"
	"github.com/geocoder89/homehub/internal/observability"
	"github.com/geocoder89/homehub/internal/seed"
	"github.com/prometheus/client_golang/prometheus"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: homehub <command> [flags]

commands:
  seed   create the default catalog and demo workers if missing
  demo   register, book, chat, complete and rate one reservation
  ready  exit non-zero unless the configured store answers
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	// Load the config set up
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: "homehub",
			Env:         cfg.Env,
			Endpoint:    cfg.OTLPEndpoint,
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			sctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				log.Error("tracer shutdown failed", "err", err)
			}
		}()
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	var err error

	switch os.Args[1] {
	case "seed":
		err = runSeed(ctx, cfg, log, prom)
	case "demo":
		err = runDemo(ctx, cfg, log, prom, os.Args[2:])
	case "ready":
		err = runReady(ctx, cfg, log, prom)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Error("command failed", "command", os.Args[1], "err", err)
		stop()
		os.Exit(1)
	}
}

func runSeed(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom) error {
	s, err := app.OpenStore(ctx, cfg, prom)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := seed.EnsureDefaults(ctx, s, log)
	if err != nil {
		return err
	}

	log.Info("seed complete", "created", res.Created, "skipped", res.Skipped)
	return nil
}

func runReady(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom) error {
	cfg.SeedDefaults = false

	a, err := app.Open(ctx, cfg, log, prom)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Ready(ctx); err != nil {
		return err
	}

	log.Info("store ready", "driver", cfg.StoreDriver)
	return nil
}

func runDemo(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom, args []string) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	email := fs.String("email", "a@x.com", "client email")
	password := fs.String("password", "pw", "client password")
	serviceID := fs.String("service", "s1", "service id to book")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.SeedDefaults = true

	a, err := app.Open(ctx, cfg, log, prom)
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.Register(ctx, user.RegisterRequest{Name: "Demo", Email: *email, Password: *password})
	if err != nil && !errors.Is(err, user.ErrDuplicateEmail) {
		return err
	}

	if _, err := a.Login(ctx, *email, *password); err != nil {
		return err
	}

	res, err := a.CreateReservation(ctx, *serviceID, time.Now().Format("2006-01-02"), "10:00", "Calle 1")
	if err != nil {
		return err
	}

	sess, err := a.NewChatSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	replied := make(chan struct{}, 1)
	_, err = a.OpenChat(ctx, sess, res.ID, func(msgs []reservation.Message) {
		if len(msgs) >= 2 {
			select {
			case replied <- struct{}{}:
			default:
			}
		}
	})
	if err != nil {
		return err
	}

	if err := a.SendChatMessage(ctx, sess, "Hola, ¿a qué hora llegan?"); err != nil {
		return err
	}

	select {
	case <-replied:
	case <-time.After(cfg.ChatReplyDelay + 5*time.Second):
		return errors.New("auto-reply did not arrive")
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := a.CompleteReservation(ctx, res.ID); err != nil {
		return err
	}

	if err := a.Rate(ctx, res.ID, 5, "Excelente"); err != nil {
		return err
	}

	mine, err := a.ListReservationsForClient(ctx, *email)
	if err != nil {
		return err
	}

	summaries, err := a.Booking.Summarize(ctx, mine)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}
