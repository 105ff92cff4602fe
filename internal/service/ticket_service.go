package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-intake/internal/domain"
	"github.com/spec-kit/complaint-intake/internal/repository"
	apperrors "github.com/spec-kit/complaint-intake/pkg/util"
)

// TicketService serves the agent-facing read and admin endpoints. All
// decision-making lives in IntakeService; this service only queries.
type TicketService struct {
	tickets       repository.TicketRepository
	conversations repository.ConversationRepository
	logger        *zap.Logger
}

// NewTicketService builds the service.
func NewTicketService(tickets repository.TicketRepository, conversations repository.ConversationRepository, logger *zap.Logger) *TicketService {
	return &TicketService{tickets: tickets, conversations: conversations, logger: logger}
}

// ListTickets returns a page of tickets, newest first.
func (s *TicketService) ListTickets(ctx context.Context, limit, offset int) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.NewDependencyUnavailable("ticket store", err)
	}
	return tickets, nil
}

// GetTicket returns one ticket with its update history.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, []domain.TicketHistoryEntry, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	if err != nil {
		return nil, nil, apperrors.NewDependencyUnavailable("ticket store", err)
	}

	history, err := s.tickets.ListHistory(ctx, id)
	if err != nil {
		return nil, nil, apperrors.NewDependencyUnavailable("ticket store", err)
	}
	return ticket, history, nil
}

// Stats returns aggregate ticket counts.
func (s *TicketService) Stats(ctx context.Context) (*repository.TicketStats, error) {
	stats, err := s.tickets.Stats(ctx)
	if err != nil {
		return nil, apperrors.NewDependencyUnavailable("ticket store", err)
	}
	return stats, nil
}

// ClearAll wipes tickets and conversation windows. Intended for test and
// staging environments.
func (s *TicketService) ClearAll(ctx context.Context) (int64, error) {
	removed, err := s.tickets.Clear(ctx)
	if err != nil {
		return 0, apperrors.NewDependencyUnavailable("ticket store", err)
	}
	if err := s.conversations.Clear(ctx); err != nil {
		s.logger.Warn("conversation clear failed", zap.Error(err))
	}
	s.logger.Info("all tickets cleared", zap.Int64("removed", removed))
	return removed, nil
}
