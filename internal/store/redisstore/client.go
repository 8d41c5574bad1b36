package redisstore

import (
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultIOTimeout = 2 * time.Second

type Config struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix namespaces every document key, e.g. "homehub:"
	KeyPrefix string
	// IOTimeout bounds dial, read and write; zero means 2s.
	IOTimeout time.Duration
}

func newClient(cfg Config) *redis.Client {
	timeout := cfg.IOTimeout
	if timeout <= 0 {
		timeout = defaultIOTimeout
	}

	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		// WATCH/MULTI needs a dedicated connection per in-flight CAS
		PoolSize: 16,
	})
}
