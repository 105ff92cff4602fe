package dto

import (
	"time"

	"github.com/spec-kit/complaint-intake/internal/domain"
)

// ComplaintRequest is one inbound passenger message.
type ComplaintRequest struct {
	ThreadID string `json:"thread_id"`
	Message  string `json:"message"`
}

// ComplaintResponse reports the action taken for the message.
type ComplaintResponse struct {
	ThreadID      string                `json:"thread_id"`
	ActionTaken   domain.ActionType     `json:"action_taken"`
	TicketID      string                `json:"ticket_id,omitempty"`
	Priority      domain.TicketPriority `json:"priority,omitempty"`
	SLADeadline   *time.Time            `json:"sla_deadline,omitempty"`
	MissingFields []string              `json:"missing_fields,omitempty"`
	Message       string                `json:"message"`
}
