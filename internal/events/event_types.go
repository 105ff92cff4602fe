package events

import (
	"time"

	"github.com/spec-kit/complaint-intake/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventTicketUpdated        EventType = "ticket_updated"
	EventInformationRequested EventType = "information_requested"
)

// AllTypes lists every event type, for subscribers that want the full
// decision stream.
func AllTypes() []EventType {
	return []EventType{EventTicketCreated, EventTicketUpdated, EventInformationRequested}
}

// Event represents an intake decision emitted by the service.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ThreadID  string      `json:"thread_id"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Priority     domain.TicketPriority `json:"priority"`
	Category     domain.Category       `json:"category,omitempty"`
	SLADeadline  time.Time             `json:"sla_deadline"`
	AssignedTeam string                `json:"assigned_team"`
}

// TicketUpdatedPayload payload. Empty signals a same-conversation message
// that added no new data.
type TicketUpdatedPayload struct {
	UpdatedFields []string `json:"updated_fields,omitempty"`
	Empty         bool     `json:"empty"`
}

// InformationRequestedPayload payload.
type InformationRequestedPayload struct {
	MissingFields []string `json:"missing_fields"`
}
