package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/homehub/internal/observability"
	"github.com/geocoder89/homehub/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const backend = "postgres"

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	key        TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	version    BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type Store struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewStore(pool *pgxpool.Pool, prom *observability.Prom) *Store {
	return &Store{
		pool: pool,
		prom: prom,
	}
}

func (s *Store) observe(op string, fn func() error) error {
	return s.prom.ObserveStore(backend, op, fn)
}

// Migrate creates the documents table if needed.
func (s *Store) Migrate(ctx context.Context) error {
	return s.observe("migrate", func() error {
		_, err := s.pool.Exec(ctx, schema)
		return err
	})
}

func (s *Store) Get(ctx context.Context, key string) (store.Document, error) {
	doc := store.Document{Key: key}

	err := s.observe("get", func() error {
		err := s.pool.QueryRow(ctx,
			`SELECT data, version FROM documents WHERE key = $1`, key,
		).Scan(&doc.Data, &doc.Version)

		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	})

	if err != nil {
		return store.Document{}, err
	}

	return doc, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) (int64, error) {
	var version int64

	err := s.observe("put", func() error {
		return s.pool.QueryRow(ctx, `
		INSERT INTO documents (key, data, version, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (key) DO UPDATE
		SET data = EXCLUDED.data,
		    version = documents.version + 1,
		    updated_at = NOW()
		RETURNING version
	`, key, data).Scan(&version)
	})

	return version, err
}

func (s *Store) CompareAndSwap(ctx context.Context, key string, expected int64, data []byte) (int64, error) {
	var tag pgconn.CommandTag

	err := s.observe("cas", func() error {
		var err error

		if expected == 0 {
			tag, err = s.pool.Exec(ctx, `
			INSERT INTO documents (key, data, version, updated_at)
			VALUES ($1, $2, 1, NOW())
			ON CONFLICT (key) DO NOTHING
		`, key, data)
		} else {
			tag, err = s.pool.Exec(ctx, `
			UPDATE documents
			SET data = $2,
			    version = version + 1,
			    updated_at = NOW()
			WHERE key = $1 AND version = $3
		`, key, data, expected)
		}

		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrVersionConflict
			}
			return err
		}

		// zero rows: someone else wrote first
		if tag.RowsAffected() == 0 {
			return store.ErrVersionConflict
		}
		return nil
	})

	if err != nil {
		return 0, err
	}

	return expected + 1, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}
