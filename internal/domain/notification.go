package domain

import "time"

// Notification is an append-only call announcement attached to a ticket.
// The lifecycle never depends on a notification being read.
type Notification struct {
	ID        string
	TicketID  string
	Message   string
	Read      bool
	CreatedAt time.Time
}
