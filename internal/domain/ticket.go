package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TicketStatus enumerates lifecycle states for complaint tickets. CLOSED
// exists for completeness; the intake core never sets it.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "OPEN"
	TicketStatusUpdated TicketStatus = "UPDATED"
	TicketStatusClosed  TicketStatus = "CLOSED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// Ticket is the aggregate for a registered complaint. It is exclusively
// owned by the ticket store; threads reference it by id only.
type Ticket struct {
	ID           string
	ThreadID     string
	Record       ComplaintRecord
	Status       TicketStatus
	Priority     TicketPriority
	SLADeadline  time.Time
	AssignedTeam string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TicketHistoryEntry is an immutable audit record of one update event.
// ActionID is unique per decided action so retried executions upsert
// instead of doubling the history.
type TicketHistoryEntry struct {
	ID        string
	TicketID  string
	ActionID  string
	Deltas    []FieldDelta
	CreatedAt time.Time
}

// NewTicketID generates a date-based identifier with a random suffix,
// e.g. TCK-20260827-3FA2B1.
func NewTicketID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "TCK-" + now.Format("20060102") + "-" + suffix
}
