package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/complaint-intake/internal/domain"
)

// In-memory implementations used when no Postgres DSN is configured and by
// tests. Semantics mirror the Postgres repositories, including the unique
// thread constraint and the action-id history upsert.

type memoryTicketRepository struct {
	mu       sync.RWMutex
	tickets  map[string]*domain.Ticket // by id
	byThread map[string]string         // thread id -> ticket id
	history  map[string][]domain.TicketHistoryEntry
	actions  map[string]struct{} // seen action ids
}

// NewMemoryTicketRepository builds an in-memory ticket store.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{
		tickets:  make(map[string]*domain.Ticket),
		byThread: make(map[string]string),
		history:  make(map[string][]domain.TicketHistoryEntry),
		actions:  make(map[string]struct{}),
	}
}

func (r *memoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byThread[ticket.ThreadID]; exists {
		return ErrThreadTicketExists
	}
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	r.byThread[ticket.ThreadID] = ticket.ID
	return nil
}

func (r *memoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *ticket
	return &clone, nil
}

func (r *memoryTicketRepository) GetByThread(_ context.Context, threadID string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byThread[threadID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *r.tickets[id]
	return &clone, nil
}

func (r *memoryTicketRepository) List(_ context.Context, limit, offset int) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		all = append(all, *ticket)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memoryTicketRepository) UpdateRecord(_ context.Context, id string, record domain.ComplaintRecord, status domain.TicketStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return ErrNotFound
	}
	ticket.Record = record
	ticket.Status = status
	ticket.UpdatedAt = time.Now()
	return nil
}

func (r *memoryTicketRepository) AppendHistory(_ context.Context, entry *domain.TicketHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.actions[entry.ActionID]; seen {
		return nil
	}
	r.actions[entry.ActionID] = struct{}{}
	stored := *entry
	stored.CreatedAt = time.Now()
	r.history[entry.TicketID] = append(r.history[entry.TicketID], stored)
	return nil
}

func (r *memoryTicketRepository) ListHistory(_ context.Context, ticketID string) ([]domain.TicketHistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.history[ticketID]
	out := make([]domain.TicketHistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (r *memoryTicketRepository) Clear(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := int64(len(r.tickets))
	r.tickets = make(map[string]*domain.Ticket)
	r.byThread = make(map[string]string)
	r.history = make(map[string][]domain.TicketHistoryEntry)
	r.actions = make(map[string]struct{})
	return count, nil
}

func (r *memoryTicketRepository) Stats(_ context.Context) (*TicketStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &TicketStats{
		ByPriority: make(map[string]int64),
		ByCategory: make(map[string]int64),
	}
	for _, ticket := range r.tickets {
		stats.Total++
		if ticket.Status != domain.TicketStatusClosed {
			stats.Open++
		}
		stats.ByPriority[string(ticket.Priority)]++
		if ticket.Record.Category != "" {
			stats.ByCategory[string(ticket.Record.Category)]++
		}
	}
	return stats, nil
}

type memoryThreadRepository struct {
	mu     sync.RWMutex
	states map[string]domain.ThreadState
}

// NewMemoryThreadRepository builds an in-memory thread state store.
func NewMemoryThreadRepository() ThreadRepository {
	return &memoryThreadRepository{states: make(map[string]domain.ThreadState)}
}

func (r *memoryThreadRepository) Get(_ context.Context, threadID string) (*domain.ThreadState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.states[threadID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := state
	clone.Record.UrgencyMarkers = append([]string(nil), state.Record.UrgencyMarkers...)
	return &clone, nil
}

func (r *memoryThreadRepository) Put(_ context.Context, state *domain.ThreadState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *state
	clone.Record.UrgencyMarkers = append([]string(nil), state.Record.UrgencyMarkers...)
	clone.UpdatedAt = time.Now()
	r.states[state.ThreadID] = clone
	return nil
}

type memoryConversationRepository struct {
	mu    sync.RWMutex
	turns map[string][]ConversationTurn
}

// NewMemoryConversationRepository builds an in-memory conversation store.
func NewMemoryConversationRepository() ConversationRepository {
	return &memoryConversationRepository{turns: make(map[string][]ConversationTurn)}
}

func (r *memoryConversationRepository) Append(_ context.Context, threadID string, turns ...ConversationTurn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	window := append(r.turns[threadID], turns...)
	if len(window) > conversationWindow {
		window = window[len(window)-conversationWindow:]
	}
	r.turns[threadID] = window
	return nil
}

func (r *memoryConversationRepository) Recent(_ context.Context, threadID string, n int) ([]ConversationTurn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	window := r.turns[threadID]
	if n <= 0 || n > len(window) {
		n = len(window)
	}
	out := make([]ConversationTurn, n)
	copy(out, window[len(window)-n:])
	return out, nil
}

func (r *memoryConversationRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = make(map[string][]ConversationTurn)
	return nil
}
