package redisstore

import (
	"context"
	"errors"
	"strconv"

	"github.com/geocoder89/homehub/internal/observability"
	"github.com/geocoder89/homehub/internal/store"
	"github.com/redis/go-redis/v9"
)

const backend = "redis"

const (
	fieldData    = "data"
	fieldVersion = "version"
)

// Store keeps each document in a hash {data, version}. CompareAndSwap uses
// WATCH/MULTI so a concurrent writer aborts the transaction.
type Store struct {
	rdb    *redis.Client
	prefix string
	prom   *observability.Prom
}

func New(cfg Config, prom *observability.Prom) *Store {
	return NewFromClient(newClient(cfg), cfg.KeyPrefix, prom)
}

func NewFromClient(rdb *redis.Client, prefix string, prom *observability.Prom) *Store {
	return &Store{rdb: rdb, prefix: prefix, prom: prom}
}

func (s *Store) k(key string) string {
	return s.prefix + key
}

func (s *Store) Get(ctx context.Context, key string) (store.Document, error) {
	doc := store.Document{Key: key}

	err := s.prom.ObserveStore(backend, "get", func() error {
		vals, err := s.rdb.HMGet(ctx, s.k(key), fieldData, fieldVersion).Result()
		if err != nil {
			return err
		}

		data, ok := vals[0].(string)
		if !ok {
			return store.ErrNotFound
		}

		version, err := parseVersion(vals[1])
		if err != nil {
			return err
		}

		doc.Data = []byte(data)
		doc.Version = version
		return nil
	})

	if err != nil {
		return store.Document{}, err
	}

	return doc, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) (int64, error) {
	var incr *redis.IntCmd

	err := s.prom.ObserveStore(backend, "put", func() error {
		_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.k(key), fieldData, data)
			incr = pipe.HIncrBy(ctx, s.k(key), fieldVersion, 1)
			return nil
		})
		return err
	})

	if err != nil {
		return 0, err
	}

	return incr.Val(), nil
}

func (s *Store) CompareAndSwap(ctx context.Context, key string, expected int64, data []byte) (int64, error) {
	rk := s.k(key)

	err := s.prom.ObserveStore(backend, "cas", func() error {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.HGet(ctx, rk, fieldVersion).Int64()

			if errors.Is(err, redis.Nil) {
				current = 0
			} else if err != nil {
				return err
			}

			if current != expected {
				return store.ErrVersionConflict
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, rk, fieldData, data, fieldVersion, expected+1)
				return nil
			})
			return err
		}, rk)

		if errors.Is(err, redis.TxFailedErr) {
			return store.ErrVersionConflict
		}
		return err
	})

	if err != nil {
		return 0, err
	}

	return expected + 1, nil
}

// checks redis connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func parseVersion(v interface{}) (int64, error) {
	str, ok := v.(string)
	if !ok {
		return 0, nil
	}
	return strconv.ParseInt(str, 10, 64)
}
