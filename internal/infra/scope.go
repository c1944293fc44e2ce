package infra

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sgad/referee-service/internal/repository"
)

// Scope hands out request-scoped database access from a pool.
// Every call acquires its own connection and releases it before returning,
// whether fn succeeds, fails or panics.
type Scope struct {
	pool *pgxpool.Pool
}

// NewScope wraps pool.
func NewScope(pool *pgxpool.Pool) *Scope {
	return &Scope{pool: pool}
}

// WithSession runs fn on a single acquired connection.
func (s *Scope) WithSession(ctx context.Context, fn func(db repository.DBTX) error) error {
	return s.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		return fn(conn)
	})
}

// WithTx runs fn inside a transaction that commits only when fn returns nil.
func (s *Scope) WithTx(ctx context.Context, fn func(db repository.DBTX) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(tx)
	})
}
