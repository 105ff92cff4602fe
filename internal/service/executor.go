package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-intake/internal/domain"
	"github.com/spec-kit/complaint-intake/internal/repository"
	apperrors "github.com/spec-kit/complaint-intake/pkg/util"
)

// ExecutionResult is the user-facing outcome of applying an action.
type ExecutionResult struct {
	ActionTaken   domain.ActionType
	TicketID      string
	Priority      domain.TicketPriority
	Category      domain.Category
	SLADeadline   *time.Time
	AssignedTeam  string
	UpdatedFields []string
	MissingFields []string
	Message       string
}

// ActionExecutor applies decided actions against the stores. It is the
// sole writer; every write is a keyed upsert, so retrying an identical
// action converges on the same persisted state instead of duplicating
// tickets or history entries.
type ActionExecutor struct {
	tickets    repository.TicketRepository
	threads    repository.ThreadRepository
	logger     *zap.Logger
	maxRetries uint64
	now        func() time.Time
}

// NewActionExecutor constructs the executor.
func NewActionExecutor(tickets repository.TicketRepository, threads repository.ThreadRepository, logger *zap.Logger, maxRetries uint64) *ActionExecutor {
	return &ActionExecutor{
		tickets:    tickets,
		threads:    threads,
		logger:     logger,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// Execute applies the action and mutates state in place (ticket linkage).
// It must be called inside the per-thread exclusion scope.
func (e *ActionExecutor) Execute(ctx context.Context, action domain.Action, state *domain.ThreadState) (*ExecutionResult, error) {
	switch action.Type {
	case domain.ActionCreateTicket:
		return e.createTicket(ctx, action, state)
	case domain.ActionUpdateTicket:
		return e.updateTicket(ctx, action, state)
	case domain.ActionRequestInfo:
		return e.requestInformation(ctx, action, state)
	default:
		return nil, apperrors.NewInternalError(fmt.Errorf("unknown action type %q", action.Type))
	}
}

func (e *ActionExecutor) createTicket(ctx context.Context, action domain.Action, state *domain.ThreadState) (*ExecutionResult, error) {
	// Defensive duplicate-create check: the per-thread lock should make
	// this unreachable, but a racing request that created the ticket
	// first downgrades this action to an update against it.
	if existing, err := e.tickets.GetByThread(ctx, action.ThreadID); err == nil {
		return e.downgradeToUpdate(ctx, action, state, existing)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewDependencyUnavailable("ticket store", err)
	}

	now := e.now()
	ticket := &domain.Ticket{
		ID:           domain.NewTicketID(now),
		ThreadID:     action.ThreadID,
		Record:       action.Record,
		Status:       domain.TicketStatusOpen,
		Priority:     action.Priority,
		SLADeadline:  now.Add(time.Duration(action.SLAHours) * time.Hour),
		AssignedTeam: action.AssignedTeam,
	}

	err := retryBounded(ctx, e.maxRetries, func() error {
		err := e.tickets.Create(ctx, ticket)
		if errors.Is(err, repository.ErrThreadTicketExists) {
			return backoff.Permanent(err)
		}
		return err
	})
	if errors.Is(err, repository.ErrThreadTicketExists) {
		existing, getErr := e.tickets.GetByThread(ctx, action.ThreadID)
		if getErr != nil {
			return nil, apperrors.NewDependencyUnavailable("ticket store", getErr)
		}
		return e.downgradeToUpdate(ctx, action, state, existing)
	}
	if err != nil {
		return nil, apperrors.NewDependencyUnavailable("ticket store", err)
	}

	state.TicketID = ticket.ID
	state.Record = action.Record
	if err := e.putThread(ctx, state); err != nil {
		return nil, err
	}

	deadline := ticket.SLADeadline
	return &ExecutionResult{
		ActionTaken:  domain.ActionCreateTicket,
		TicketID:     ticket.ID,
		Priority:     ticket.Priority,
		Category:     ticket.Record.Category,
		SLADeadline:  &deadline,
		AssignedTeam: ticket.AssignedTeam,
		Message:      createdMessage(ticket),
	}, nil
}

func (e *ActionExecutor) downgradeToUpdate(ctx context.Context, action domain.Action, state *domain.ThreadState, existing *domain.Ticket) (*ExecutionResult, error) {
	e.logger.Warn("duplicate create attempt downgraded to update",
		zap.String("thread_id", action.ThreadID),
		zap.String("ticket_id", existing.ID))
	state.TicketID = existing.ID
	action.Type = domain.ActionUpdateTicket
	action.TicketID = existing.ID
	return e.updateTicket(ctx, action, state)
}

func (e *ActionExecutor) updateTicket(ctx context.Context, action domain.Action, state *domain.ThreadState) (*ExecutionResult, error) {
	entry := &domain.TicketHistoryEntry{
		ID:       uuid.NewString(),
		TicketID: action.TicketID,
		ActionID: action.ID,
		Deltas:   action.Deltas,
	}
	if err := retryBounded(ctx, e.maxRetries, func() error {
		return e.tickets.AppendHistory(ctx, entry)
	}); err != nil {
		return nil, apperrors.NewDependencyUnavailable("ticket store", err)
	}

	if len(action.Deltas) > 0 {
		if err := retryBounded(ctx, e.maxRetries, func() error {
			return e.tickets.UpdateRecord(ctx, action.TicketID, state.Record, domain.TicketStatusUpdated)
		}); err != nil {
			return nil, apperrors.NewDependencyUnavailable("ticket store", err)
		}
	}

	if err := e.putThread(ctx, state); err != nil {
		return nil, err
	}

	updatedFields := make([]string, 0, len(action.Deltas))
	for _, delta := range action.Deltas {
		updatedFields = append(updatedFields, delta.Field)
	}

	return &ExecutionResult{
		ActionTaken:   domain.ActionUpdateTicket,
		TicketID:      action.TicketID,
		UpdatedFields: updatedFields,
		Message:       updatedMessage(action.TicketID, state.Record.PassengerName, action.Deltas),
	}, nil
}

func (e *ActionExecutor) requestInformation(ctx context.Context, action domain.Action, state *domain.ThreadState) (*ExecutionResult, error) {
	if err := e.putThread(ctx, state); err != nil {
		return nil, err
	}
	return &ExecutionResult{
		ActionTaken:   domain.ActionRequestInfo,
		MissingFields: action.MissingFields,
		Message: fmt.Sprintf(
			"To process your complaint, I'll need %s. Could you please provide these details so I can create a ticket for you?",
			joinNatural(action.MissingFields)),
	}, nil
}

func (e *ActionExecutor) putThread(ctx context.Context, state *domain.ThreadState) error {
	if err := retryBounded(ctx, e.maxRetries, func() error {
		return e.threads.Put(ctx, state)
	}); err != nil {
		return apperrors.NewDependencyUnavailable("thread store", err)
	}
	return nil
}

func createdMessage(ticket *domain.Ticket) string {
	name := ticket.Record.PassengerName
	if name == "" {
		name = "Valued Customer"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	b.WriteString("Thank you for contacting us. Your complaint has been registered.\n\n")
	fmt.Fprintf(&b, "Ticket Reference: %s\n", ticket.ID)
	fmt.Fprintf(&b, "Priority: %s\n", ticket.Priority)
	if ticket.Record.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", ticket.Record.Category)
	}
	fmt.Fprintf(&b, "Assigned to: %s\n\n", ticket.AssignedTeam)
	fmt.Fprintf(&b, "We will respond by %s.\n\n", ticket.SLADeadline.Format(time.RFC1123))
	b.WriteString("Best regards,\nCustomer Service Team")
	return b.String()
}

func updatedMessage(ticketID, name string, deltas []domain.FieldDelta) string {
	if name == "" {
		name = "Valued Customer"
	}
	if len(deltas) == 0 {
		return fmt.Sprintf(
			"Dear %s,\n\nThank you for your message. Your ticket %s is already being processed; we have noted your follow-up.\n\nBest regards,\nCustomer Service Team",
			name, ticketID)
	}
	fields := make([]string, 0, len(deltas))
	for _, delta := range deltas {
		fields = append(fields, delta.Field)
	}
	return fmt.Sprintf(
		"Dear %s,\n\nYour ticket %s has been updated with the new information (%s). Thank you for providing these additional details.\n\nBest regards,\nCustomer Service Team",
		name, ticketID, strings.Join(fields, ", "))
}

// joinNatural renders a field list as "a", "a and b" or "a, b, and c".
func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}
