package dto

import (
	"time"

	"github.com/spec-kit/complaint-intake/internal/domain"
)

// TicketSummary response for list endpoints.
type TicketSummary struct {
	ID           string                 `json:"id"`
	ThreadID     string                 `json:"thread_id"`
	Status       domain.TicketStatus    `json:"status"`
	Priority     domain.TicketPriority  `json:"priority"`
	Category     domain.Category        `json:"category,omitempty"`
	SLADeadline  time.Time              `json:"sla_deadline"`
	AssignedTeam string                 `json:"assigned_team"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// TicketDetailResponse provides the full ticket with its update history.
type TicketDetailResponse struct {
	ID           string                  `json:"id"`
	ThreadID     string                  `json:"thread_id"`
	Record       domain.ComplaintRecord  `json:"record"`
	Status       domain.TicketStatus     `json:"status"`
	Priority     domain.TicketPriority   `json:"priority"`
	SLADeadline  time.Time               `json:"sla_deadline"`
	AssignedTeam string                  `json:"assigned_team"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
	History      []TicketHistoryResponse `json:"history"`
}

// TicketHistoryResponse represents one applied update.
type TicketHistoryResponse struct {
	ActionID  string              `json:"action_id"`
	Deltas    []domain.FieldDelta `json:"deltas"`
	CreatedAt time.Time           `json:"created_at"`
}

// SummaryFromTicket maps a domain ticket into the list shape.
func SummaryFromTicket(t domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:           t.ID,
		ThreadID:     t.ThreadID,
		Status:       t.Status,
		Priority:     t.Priority,
		Category:     t.Record.Category,
		SLADeadline:  t.SLADeadline,
		AssignedTeam: t.AssignedTeam,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// DetailFromTicket maps a domain ticket and history into the detail shape.
func DetailFromTicket(t *domain.Ticket, history []domain.TicketHistoryEntry) TicketDetailResponse {
	resp := TicketDetailResponse{
		ID:           t.ID,
		ThreadID:     t.ThreadID,
		Record:       t.Record,
		Status:       t.Status,
		Priority:     t.Priority,
		SLADeadline:  t.SLADeadline,
		AssignedTeam: t.AssignedTeam,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		History:      make([]TicketHistoryResponse, 0, len(history)),
	}
	for _, entry := range history {
		resp.History = append(resp.History, TicketHistoryResponse{
			ActionID:  entry.ActionID,
			Deltas:    entry.Deltas,
			CreatedAt: entry.CreatedAt,
		})
	}
	return resp
}
