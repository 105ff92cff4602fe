package domain

import "time"

// ThreadState is the accumulated intake state for one conversation thread:
// the merged complaint record plus the linked ticket, if one exists. The
// intake core creates it on first contact and never deletes it.
type ThreadState struct {
	ThreadID  string
	Record    ComplaintRecord
	TicketID  string
	UpdatedAt time.Time
}

// HasTicket reports whether a ticket is already linked to the thread.
func (s ThreadState) HasTicket() bool {
	return s.TicketID != ""
}
