package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-intake/internal/domain"
	"github.com/spec-kit/complaint-intake/internal/repository"
	"github.com/spec-kit/complaint-intake/internal/service"
)

func completeRecord() domain.ComplaintRecord {
	return domain.ComplaintRecord{
		PassengerName: "John Smith",
		Email:         "john@example.com",
		FlightNumber:  "AA447",
		Description:   "flight delayed 5 hours",
		Category:      domain.CategoryDelay,
		DelayHours:    5,
	}
}

func TestExecuteCreateTicket(t *testing.T) {
	tickets := repository.NewMemoryTicketRepository()
	threads := repository.NewMemoryThreadRepository()
	executor := service.NewActionExecutor(tickets, threads, zap.NewNop(), 1)

	state := &domain.ThreadState{ThreadID: "thread_1", Record: completeRecord()}
	action := domain.Action{
		ID:           "action-1",
		Type:         domain.ActionCreateTicket,
		ThreadID:     "thread_1",
		Record:       state.Record,
		Priority:     domain.TicketPriorityHigh,
		SLAHours:     6,
		AssignedTeam: "Priority Support",
	}

	result, err := executor.Execute(context.Background(), action, state)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCreateTicket, result.ActionTaken)
	assert.NotEmpty(t, result.TicketID)
	assert.Equal(t, domain.TicketPriorityHigh, result.Priority)
	require.NotNil(t, result.SLADeadline)
	assert.WithinDuration(t, time.Now().Add(6*time.Hour), *result.SLADeadline, time.Minute)
	assert.Contains(t, result.Message, "Dear John Smith")
	assert.Contains(t, result.Message, result.TicketID)

	ticket, err := tickets.GetByThread(context.Background(), "thread_1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, ticket.ID, state.TicketID)

	persisted, err := threads.Get(context.Background(), "thread_1")
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, persisted.TicketID)
}

func TestExecuteDuplicateCreateDowngradesToUpdate(t *testing.T) {
	tickets := repository.NewMemoryTicketRepository()
	threads := repository.NewMemoryThreadRepository()
	executor := service.NewActionExecutor(tickets, threads, zap.NewNop(), 1)

	existing := &domain.Ticket{
		ID:       domain.NewTicketID(time.Now()),
		ThreadID: "thread_1",
		Record:   completeRecord(),
		Status:   domain.TicketStatusOpen,
		Priority: domain.TicketPriorityHigh,
	}
	require.NoError(t, tickets.Create(context.Background(), existing))

	state := &domain.ThreadState{ThreadID: "thread_1", Record: completeRecord()}
	action := domain.Action{
		ID:       "action-2",
		Type:     domain.ActionCreateTicket,
		ThreadID: "thread_1",
		Record:   state.Record,
	}

	result, err := executor.Execute(context.Background(), action, state)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionUpdateTicket, result.ActionTaken)
	assert.Equal(t, existing.ID, result.TicketID)

	// Still exactly one ticket for the thread.
	all, err := tickets.List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestExecuteUpdateIsIdempotentPerAction(t *testing.T) {
	tickets := repository.NewMemoryTicketRepository()
	threads := repository.NewMemoryThreadRepository()
	executor := service.NewActionExecutor(tickets, threads, zap.NewNop(), 1)

	ticket := &domain.Ticket{
		ID:       domain.NewTicketID(time.Now()),
		ThreadID: "thread_1",
		Record:   completeRecord(),
		Status:   domain.TicketStatusOpen,
	}
	require.NoError(t, tickets.Create(context.Background(), ticket))

	state := &domain.ThreadState{ThreadID: "thread_1", TicketID: ticket.ID, Record: completeRecord()}
	state.Record.Phone = "555-0123"
	action := domain.Action{
		ID:       "action-3",
		Type:     domain.ActionUpdateTicket,
		ThreadID: "thread_1",
		TicketID: ticket.ID,
		Deltas:   []domain.FieldDelta{{Field: domain.FieldPhone, NewValue: "555-0123"}},
	}

	// A retried identical action must not double the history.
	for i := 0; i < 2; i++ {
		result, err := executor.Execute(context.Background(), action, state)
		require.NoError(t, err)
		assert.Equal(t, domain.ActionUpdateTicket, result.ActionTaken)
	}

	history, err := tickets.ListHistory(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "action-3", history[0].ActionID)

	updated, err := tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusUpdated, updated.Status)
	assert.Equal(t, "555-0123", updated.Record.Phone)
}

func TestExecuteEmptyDeltaUpdateAcknowledges(t *testing.T) {
	tickets := repository.NewMemoryTicketRepository()
	threads := repository.NewMemoryThreadRepository()
	executor := service.NewActionExecutor(tickets, threads, zap.NewNop(), 1)

	ticket := &domain.Ticket{
		ID:       domain.NewTicketID(time.Now()),
		ThreadID: "thread_1",
		Record:   completeRecord(),
		Status:   domain.TicketStatusOpen,
	}
	require.NoError(t, tickets.Create(context.Background(), ticket))

	state := &domain.ThreadState{ThreadID: "thread_1", TicketID: ticket.ID, Record: completeRecord()}
	action := domain.Action{
		ID:       "action-4",
		Type:     domain.ActionUpdateTicket,
		ThreadID: "thread_1",
		TicketID: ticket.ID,
	}

	result, err := executor.Execute(context.Background(), action, state)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionUpdateTicket, result.ActionTaken)
	assert.Contains(t, result.Message, "already being processed")

	// No deltas means the stored record and status stay untouched.
	unchanged, err := tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, unchanged.Status)

	history, err := tickets.ListHistory(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestExecuteRequestInformationPersistsState(t *testing.T) {
	tickets := repository.NewMemoryTicketRepository()
	threads := repository.NewMemoryThreadRepository()
	executor := service.NewActionExecutor(tickets, threads, zap.NewNop(), 1)

	state := &domain.ThreadState{
		ThreadID: "thread_1",
		Record:   domain.ComplaintRecord{Description: "lost my bag", Category: domain.CategoryBaggage},
	}
	action := domain.Action{
		ID:            "action-5",
		Type:          domain.ActionRequestInfo,
		ThreadID:      "thread_1",
		MissingFields: []string{domain.MissingName, domain.MissingContact, domain.MissingFlightRef},
	}

	result, err := executor.Execute(context.Background(), action, state)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionRequestInfo, result.ActionTaken)
	assert.Empty(t, result.TicketID)
	assert.Contains(t, result.Message, domain.MissingName)
	assert.Contains(t, result.Message, ", and "+domain.MissingFlightRef)

	persisted, err := threads.Get(context.Background(), "thread_1")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryBaggage, persisted.Record.Category)
	assert.False(t, persisted.HasTicket())
}
