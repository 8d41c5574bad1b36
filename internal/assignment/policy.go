// Package assignment picks the worker embedded into a new reservation.
package assignment

import (
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/geocoder89/homehub/internal/domain/worker"
)

var ErrNoWorkers = errors.New("no workers available for assignment")

type Policy interface {
	SelectWorker(workers []worker.Worker) (worker.Worker, error)
}

// PolicyFunc adapts a plain function, mostly for tests.
type PolicyFunc func(workers []worker.Worker) (worker.Worker, error)

func (f PolicyFunc) SelectWorker(workers []worker.Worker) (worker.Worker, error) {
	return f(workers)
}

// Random picks uniformly over the whole collection. No load balancing, skills or availability.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandom() *Random {
	return &Random{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewRandomWithSource makes selection reproducible.
func NewRandomWithSource(src rand.Source) *Random {
	return &Random{rng: rand.New(src)}
}

func (r *Random) SelectWorker(workers []worker.Worker) (worker.Worker, error) {
	if len(workers) == 0 {
		return worker.Worker{}, ErrNoWorkers
	}

	r.mu.Lock()
	i := r.rng.IntN(len(workers))
	r.mu.Unlock()

	return workers[i], nil
}

// First always picks the first worker.
var First = PolicyFunc(func(workers []worker.Worker) (worker.Worker, error) {
	if len(workers) == 0 {
		return worker.Worker{}, ErrNoWorkers
	}
	return workers[0], nil
})
