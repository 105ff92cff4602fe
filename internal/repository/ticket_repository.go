package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-intake/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrThreadTicketExists is returned by Create when the thread already has
// a linked ticket. The decision engine prevents this under its per-thread
// exclusion scope; the store check is the defensive backstop against a
// duplicate-create race.
var ErrThreadTicketExists = errors.New("thread already has a ticket")

// TicketStats aggregates counts for the stats endpoint.
type TicketStats struct {
	Total      int64            `json:"total"`
	Open       int64            `json:"open"`
	ByPriority map[string]int64 `json:"by_priority"`
	ByCategory map[string]int64 `json:"by_category"`
}

// TicketRepository encapsulates ticket persistence. All writes are single
// keyed upserts so a cancelled request never leaves half-applied state.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByThread(ctx context.Context, threadID string) (*domain.Ticket, error)
	List(ctx context.Context, limit, offset int) ([]domain.Ticket, error)
	UpdateRecord(ctx context.Context, id string, record domain.ComplaintRecord, status domain.TicketStatus) error
	AppendHistory(ctx context.Context, entry *domain.TicketHistoryEntry) error
	ListHistory(ctx context.Context, ticketID string) ([]domain.TicketHistoryEntry, error)
	Clear(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*TicketStats, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, thread_id, record, status, priority, sla_deadline, assigned_team)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (thread_id) DO NOTHING
        RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.ThreadID,
		ticket.Record,
		ticket.Status,
		ticket.Priority,
		ticket.SLADeadline,
		ticket.AssignedTeam,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrThreadTicketExists
	}
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, thread_id, record, status, priority, sla_deadline, assigned_team, created_at, updated_at
        FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByThread(ctx context.Context, threadID string) (*domain.Ticket, error) {
	const query = `
        SELECT id, thread_id, record, status, priority, sla_deadline, assigned_team, created_at, updated_at
        FROM tickets WHERE thread_id=$1`
	return r.fetchSingle(ctx, query, threadID)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&ticket.ID,
		&ticket.ThreadID,
		&ticket.Record,
		&ticket.Status,
		&ticket.Priority,
		&ticket.SLADeadline,
		&ticket.AssignedTeam,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, limit, offset int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, thread_id, record, status, priority, sla_deadline, assigned_team, created_at, updated_at
        FROM tickets ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ThreadID,
			&ticket.Record,
			&ticket.Status,
			&ticket.Priority,
			&ticket.SLADeadline,
			&ticket.AssignedTeam,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) UpdateRecord(ctx context.Context, id string, record domain.ComplaintRecord, status domain.TicketStatus) error {
	const query = `
        UPDATE tickets SET record=$1, status=$2, updated_at=NOW() WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, record, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) AppendHistory(ctx context.Context, entry *domain.TicketHistoryEntry) error {
	const query = `
        INSERT INTO ticket_history (id, ticket_id, action_id, deltas)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (action_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, entry.ID, entry.TicketID, entry.ActionID, entry.Deltas)
	return err
}

func (r *ticketRepository) ListHistory(ctx context.Context, ticketID string) ([]domain.TicketHistoryEntry, error) {
	const query = `
        SELECT id, ticket_id, action_id, deltas, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistoryEntry
	for rows.Next() {
		var entry domain.TicketHistoryEntry
		if err := rows.Scan(&entry.ID, &entry.TicketID, &entry.ActionID, &entry.Deltas, &entry.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Clear(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets`)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *ticketRepository) Stats(ctx context.Context) (*TicketStats, error) {
	stats := &TicketStats{
		ByPriority: make(map[string]int64),
		ByCategory: make(map[string]int64),
	}

	const query = `
        SELECT priority, COALESCE(record->>'category', ''), status, COUNT(*)
        FROM tickets GROUP BY priority, record->>'category', status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var priority, category, status string
		var count int64
		if err := rows.Scan(&priority, &category, &status, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		if status != string(domain.TicketStatusClosed) {
			stats.Open += count
		}
		stats.ByPriority[priority] += count
		if category != "" {
			stats.ByCategory[category] += count
		}
	}
	return stats, rows.Err()
}
