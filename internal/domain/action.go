package domain

// ActionType enumerates the single decided next step for a processed
// message.
type ActionType string

const (
	ActionCreateTicket ActionType = "CREATE_TICKET"
	ActionUpdateTicket ActionType = "UPDATE_TICKET"
	ActionRequestInfo  ActionType = "REQUEST_INFO"
)

// Action is the tagged output of the decision engine. Exactly one variant
// is emitted per processed message; the populated fields depend on Type.
type Action struct {
	ID       string
	Type     ActionType
	ThreadID string

	// CREATE_TICKET: full record snapshot plus triage result.
	Record       ComplaintRecord
	Priority     TicketPriority
	SLAHours     int
	AssignedTeam string

	// UPDATE_TICKET: target ticket and the field deltas produced by the
	// merge. An empty delta set is valid and acknowledged, not dropped.
	TicketID string
	Deltas   []FieldDelta

	// REQUEST_INFO: unmet required fields in fixed prompt order.
	MissingFields []string
}
