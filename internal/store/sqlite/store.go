// Package sqlite is an embedded document store backend for development, tests
// and single-process deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/geocoder89/homehub/internal/observability"
	"github.com/geocoder89/homehub/internal/store"

	_ "modernc.org/sqlite"
)

const backend = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    key        TEXT PRIMARY KEY,
    data       BLOB NOT NULL,
    version    INTEGER NOT NULL,
    updated_at DATETIME DEFAULT (datetime('now'))
);
`

type Store struct {
	db   *sql.DB
	prom *observability.Prom
}

// Open creates the database at dsn ("file:homehub.db" or ":memory:") and applies the schema.
func Open(dsn string, prom *observability.Prom) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// one connection: writes serialize anyway and ":memory:" is per-connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}

	return New(db, prom), nil
}

func New(db *sql.DB, prom *observability.Prom) *Store {
	return &Store{db: db, prom: prom}
}

func (s *Store) Get(ctx context.Context, key string) (store.Document, error) {
	doc := store.Document{Key: key}

	err := s.prom.ObserveStore(backend, "get", func() error {
		err := s.db.QueryRowContext(ctx,
			`SELECT data, version FROM documents WHERE key = ?`, key,
		).Scan(&doc.Data, &doc.Version)

		if errors.Is(err, sql.ErrNoRows) {
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

	err := s.prom.ObserveStore(backend, "put", func() error {
		return s.db.QueryRowContext(ctx, `
			INSERT INTO documents (key, data, version, updated_at)
			VALUES (?, ?, 1, datetime('now'))
			ON CONFLICT (key) DO UPDATE
			SET data = excluded.data,
			    version = documents.version + 1,
			    updated_at = excluded.updated_at
			RETURNING version
		`, key, data).Scan(&version)
	})

	return version, err
}

func (s *Store) CompareAndSwap(ctx context.Context, key string, expected int64, data []byte) (int64, error) {
	var res sql.Result

	err := s.prom.ObserveStore(backend, "cas", func() error {
		var err error

		if expected == 0 {
			res, err = s.db.ExecContext(ctx, `
				INSERT INTO documents (key, data, version, updated_at)
				VALUES (?, ?, 1, datetime('now'))
				ON CONFLICT (key) DO NOTHING
			`, key, data)
		} else {
			res, err = s.db.ExecContext(ctx, `
				UPDATE documents
				SET data = ?, version = version + 1, updated_at = datetime('now')
				WHERE key = ? AND version = ?
			`, data, key, expected)
		}

		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if n == 0 {
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
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
