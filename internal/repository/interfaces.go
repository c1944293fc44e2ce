package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sgad/referee-service/internal/domain"
)

// DBTX abstracts pgx.Tx, *pgxpool.Conn and *pgxpool.Pool so repositories work with all three.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// RefereeRepository provides access to the referees table.
// Lookups return (nil, nil) when no row matches.
type RefereeRepository interface {
	// Insert persists a new referee. The ID is generated when unset;
	// created_at and updated_at are assigned by the database.
	Insert(ctx context.Context, db DBTX, referee *domain.Referee) (*domain.Referee, error)

	// FindByID returns a referee by primary key.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Referee, error)

	// FindByUserID returns the earliest-created referee for a user.
	FindByUserID(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.Referee, error)

	// List returns every referee ordered by creation time.
	List(ctx context.Context, db DBTX) ([]domain.Referee, error)

	// UpdateFields applies only the given column changes and refreshes updated_at.
	UpdateFields(ctx context.Context, db DBTX, id uuid.UUID, changes []domain.FieldChange) (*domain.Referee, error)

	// Delete removes a referee and returns the deleted row.
	Delete(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Referee, error)
}

// OutboxRepository provides access to the referee_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the referee change).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events in occurrence order.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxDraft, error)

	// MarkPublished stamps published_at on the given rows.
	MarkPublished(ctx context.Context, db DBTX, ids []int64) error
}
