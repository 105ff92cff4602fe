package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-intake/internal/domain"
)

// ThreadRepository is the keyed store for per-conversation intake state.
// Get returns ErrNotFound for a thread that has not been seen; Put is an
// atomic upsert.
type ThreadRepository interface {
	Get(ctx context.Context, threadID string) (*domain.ThreadState, error)
	Put(ctx context.Context, state *domain.ThreadState) error
}

type threadRepository struct {
	pool *pgxpool.Pool
}

// NewThreadRepository instantiates the Postgres-backed repository.
func NewThreadRepository(pool *pgxpool.Pool) ThreadRepository {
	return &threadRepository{pool: pool}
}

func (r *threadRepository) Get(ctx context.Context, threadID string) (*domain.ThreadState, error) {
	const query = `
        SELECT thread_id, record, ticket_id, updated_at
        FROM thread_states WHERE thread_id=$1`
	var state domain.ThreadState
	var ticketID sql.NullString
	err := r.pool.QueryRow(ctx, query, threadID).Scan(
		&state.ThreadID,
		&state.Record,
		&ticketID,
		&state.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	state.TicketID = ticketID.String
	return &state, nil
}

func (r *threadRepository) Put(ctx context.Context, state *domain.ThreadState) error {
	const query = `
        INSERT INTO thread_states (thread_id, record, ticket_id, updated_at)
        VALUES ($1,$2,NULLIF($3,''),NOW())
        ON CONFLICT (thread_id) DO UPDATE
            SET record=EXCLUDED.record, ticket_id=EXCLUDED.ticket_id, updated_at=NOW()`
	_, err := r.pool.Exec(ctx, query, state.ThreadID, state.Record, state.TicketID)
	return err
}
