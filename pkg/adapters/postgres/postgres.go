// Package postgres is a ports.ScenarioAPI backend on PostgreSQL via pgx.
// Scenarios keep every questionnaire version; reads return the latest one.
package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Backend implements ports.ScenarioAPI.
type Backend struct {
	db    *pgxpool.Pool
	newID func() string
}

// New creates a Backend on an existing pool.
func New(db *pgxpool.Pool) *Backend {
	return &Backend{db: db, newID: uuid.NewString}
}

// Connect opens a pool for dsn and verifies it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
