package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/homehub/internal/app"
	"github.com/geocoder89/homehub/internal/auth"
	"github.com/geocoder89/homehub/internal/config"
	"github.com/geocoder89/homehub/internal/domain/reservation"
	"github.com/geocoder89/homehub/internal/domain/user"
	"github.com/geocoder89/homehub/internal/domain/worker"
	"github.com/geocoder89/homehub/internal/observability"
	"github.com/geocoder89/homehub/internal/validate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openApp(t *testing.T, driver config.StoreDriver) *app.App {
	t.Helper()

	cfg := config.Config{
		Env:            "test",
		StoreDriver:    driver,
		SQLitePath:     ":memory:",
		JWTSecret:      "test-secret",
		SessionTTL:     time.Hour,
		ChatReplyDelay: 10 * time.Millisecond,
		SeedDefaults:   true,
	}

	a, err := app.Open(context.Background(), cfg, nil, observability.NewProm(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return a
}

var drivers = []config.StoreDriver{config.DriverMemory, config.DriverSQLite}

func TestEndToEnd_BookCompleteRate(t *testing.T) {
	for _, driver := range drivers {
		t.Run(string(driver), func(t *testing.T) {
			ctx := context.Background()
			a := openApp(t, driver)

			_, err := a.Register(ctx, user.RegisterRequest{Name: "Ana", Email: "a@x.com", Password: "pw"})
			require.NoError(t, err)

			_, err = a.Login(ctx, "a@x.com", "pw")
			require.NoError(t, err)

			res, err := a.CreateReservation(ctx, "s1", "2024-05-01", "10:00", "Calle 1")
			require.NoError(t, err)
			assert.Equal(t, reservation.StatusCreated, res.Status)
			assert.NotEmpty(t, res.AssignedWorker.ID)
			assert.Contains(t, worker.Defaults(), res.AssignedWorker)

			require.NoError(t, a.CompleteReservation(ctx, res.ID))

			mine, err := a.ListReservationsForClient(ctx, "a@x.com")
			require.NoError(t, err)
			require.Len(t, mine, 1)
			assert.Equal(t, reservation.StatusCompleted, mine[0].Status)

			require.NoError(t, a.Rate(ctx, res.ID, 5, "great"))

			mine, err = a.ListReservationsForClient(ctx, "a@x.com")
			require.NoError(t, err)
			require.NotNil(t, mine[0].Rating)
			assert.Equal(t, reservation.Rating{Score: 5, Comment: "great"}, *mine[0].Rating)

			err = a.Rate(ctx, res.ID, 5, "great")
			require.ErrorIs(t, err, reservation.ErrAlreadyRated)
		})
	}
}

func TestCreateReservation_RequiresLogin(t *testing.T) {
	ctx := context.Background()
	a := openApp(t, config.DriverMemory)

	_, err := a.CreateReservation(ctx, "s1", "2024-05-01", "10:00", "Calle 1")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)

	_, err = a.CreateReservation(ctx, "s1", "2024-05-01", "", "Calle 1")
	require.ErrorIs(t, err, validate.ErrMissingField)
}

func TestListServices(t *testing.T) {
	ctx := context.Background()
	a := openApp(t, config.DriverMemory)

	all, err := a.ListServices(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	windows, err := a.ListServices(ctx, "VENTANAS", "limpieza")
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, "s3", windows[0].ID)

	plumbing, err := a.ListServices(ctx, "", "plomeria")
	require.NoError(t, err)
	assert.Empty(t, plumbing)

	_, err = a.ListServices(ctx, "", "jardin")
	require.ErrorIs(t, err, validate.ErrInvalidField)
}

func TestChat_ClientAndWorker(t *testing.T) {
	ctx := context.Background()
	a := openApp(t, config.DriverSQLite)

	_, err := a.Register(ctx, user.RegisterRequest{Name: "Sofía", Email: "s@x.com", Password: "pw", Role: user.RoleWorker})
	require.NoError(t, err)
	_, err = a.Register(ctx, user.RegisterRequest{Name: "Ana", Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = a.Login(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	res, err := a.CreateReservation(ctx, "s2", "2024-05-02", "08:00", "Calle 2")
	require.NoError(t, err)

	clientChat, err := a.NewChatSession(ctx)
	require.NoError(t, err)

	var mu sync.Mutex
	var seen [][]reservation.Message
	_, err = a.OpenChat(ctx, clientChat, res.ID, func(msgs []reservation.Message) {
		mu.Lock()
		seen = append(seen, msgs)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, a.SendChatMessage(ctx, clientChat, "Hola"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	last := seen[1]
	mu.Unlock()
	require.Len(t, last, 2)
	assert.Equal(t, "Ana", last[0].SenderName)
	assert.Equal(t, res.AssignedWorker.Name, last[1].SenderName)

	// the assigned worker answers: no auto-reply follows
	_, err = a.Login(ctx, "s@x.com", "pw")
	require.NoError(t, err)
	workerChat, err := a.NewChatSession(ctx)
	require.NoError(t, err)
	_, err = a.OpenChat(ctx, workerChat, res.ID, nil)
	require.NoError(t, err)
	require.NoError(t, a.SendChatMessage(ctx, workerChat, "Listo"))

	time.Sleep(50 * time.Millisecond)

	mine, err := a.ListReservationsForClient(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Len(t, mine[0].Messages, 3)
}

func TestRegisteredWorkerCanBeAssigned(t *testing.T) {
	ctx := context.Background()
	a := openApp(t, config.DriverMemory)

	sofia, err := a.Register(ctx, user.RegisterRequest{Name: "Sofía", Email: "s@x.com", Password: "pw", Role: user.RoleWorker})
	require.NoError(t, err)
	_, err = a.Register(ctx, user.RegisterRequest{Name: "Ana", Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)
	_, err = a.Login(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	// with four workers, 200 bookings all missing Sofía is vanishingly unlikely
	for i := 0; i < 200; i++ {
		_, err := a.CreateReservation(ctx, "s1", "d", "t", "a")
		require.NoError(t, err)
	}

	forSofia, err := a.ListReservationsForWorker(ctx, sofia.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, forSofia)
}

// Concurrent mutations of one reservations collection through the app: no update is lost.
func TestConcurrentMessagesAreAllKept(t *testing.T) {
	ctx := context.Background()
	a := openApp(t, config.DriverMemory)

	_, err := a.Register(ctx, user.RegisterRequest{Name: "Laura", Email: "l@x.com", Password: "pw", Role: user.RoleWorker})
	require.NoError(t, err)
	_, err = a.Login(ctx, "l@x.com", "pw")
	require.NoError(t, err)

	res, err := a.CreateReservation(ctx, "s1", "d", "t", "a")
	require.NoError(t, err)

	const sessions, perSession = 4, 5
	var wg sync.WaitGroup
	errs := make(chan error, sessions*perSession)

	for i := 0; i < sessions; i++ {
		sess, err := a.NewChatSession(ctx)
		require.NoError(t, err)
		_, err = a.OpenChat(ctx, sess, res.ID, nil)
		require.NoError(t, err)

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perSession; j++ {
				errs <- a.SendChatMessage(ctx, sess, fmt.Sprintf("s%d-m%d", i, j))
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := a.Booking.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, sessions*perSession)
}

func TestReady(t *testing.T) {
	for _, driver := range drivers {
		a := openApp(t, driver)
		require.NoError(t, a.Ready(context.Background()), string(driver))
	}
}
