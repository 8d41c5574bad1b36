package app

import (
	"context"
	"fmt"

	"github.com/geocoder89/homehub/internal/config"
	"github.com/geocoder89/homehub/internal/observability"
	"github.com/geocoder89/homehub/internal/store"
	"github.com/geocoder89/homehub/internal/store/memory"
	"github.com/geocoder89/homehub/internal/store/postgres"
	"github.com/geocoder89/homehub/internal/store/redisstore"
	"github.com/geocoder89/homehub/internal/store/sqlite"
)

// OpenStore connects the backend named by STORE_DRIVER and makes sure it is usable.
// Network backends are wrapped in a circuit breaker.
func OpenStore(ctx context.Context, cfg config.Config, prom *observability.Prom) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.NewStore(), nil

	case config.DriverSQLite:
		st, err := sqlite.Open(cfg.SQLitePath, prom)
		if err != nil {
			return nil, err
		}
		return st, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DBURL, postgres.PoolOptions{})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		st := postgres.NewStore(pool, prom)
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return store.NewBreaker(st, store.BreakerConfig{}), nil

	case config.DriverRedis:
		st := redisstore.New(redisstore.Config{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.StoreKeyPrefix,
		}, prom)

		if err := st.Ping(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return store.NewBreaker(st, store.BreakerConfig{}), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
