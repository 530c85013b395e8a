package events

import (
	"time"

	"github.com/spec-kit/turno-service/internal/domain"
)

// EventType enumerates broadcast event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket.created"
	EventTicketCalled       EventType = "ticket.called"
	EventTicketStateChanged EventType = "ticket.stateChanged"
)

// Event is the JSON envelope pushed to subscribers. Origin identifies the
// publishing instance so the Redis bridge can suppress echo.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Origin    string    `json:"origin,omitempty"`
	Payload   Payload   `json:"payload"`
}

// Payload always carries a full ticket snapshot, never a diff; consumers must
// be able to render state from a single event. Notification is set for
// ticket.called only.
type Payload struct {
	Ticket       TicketSnapshot        `json:"ticket"`
	Notification *NotificationSnapshot `json:"notification,omitempty"`
}

// TicketSnapshot mirrors the stored ticket at publish time.
type TicketSnapshot struct {
	ID               string     `json:"id"`
	Number           string     `json:"number"`
	VisitorID        string     `json:"visitor_id"`
	ServiceTypeID    string     `json:"service_type_id"`
	Category         string     `json:"category"`
	State            string     `json:"state"`
	AgentID          *string    `json:"agent_id,omitempty"`
	CallCount        int        `json:"call_count"`
	Notes            string     `json:"notes,omitempty"`
	RequestedAt      time.Time  `json:"requested_at"`
	ServiceStartedAt *time.Time `json:"service_started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// NotificationSnapshot mirrors a stored call notification.
type NotificationSnapshot struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotTicket copies a ticket into its wire representation.
func SnapshotTicket(ticket *domain.Ticket) TicketSnapshot {
	return TicketSnapshot{
		ID:               ticket.ID,
		Number:           ticket.Number,
		VisitorID:        ticket.VisitorID,
		ServiceTypeID:    ticket.ServiceTypeID,
		Category:         string(ticket.Category),
		State:            string(ticket.State),
		AgentID:          ticket.AgentID,
		CallCount:        ticket.CallCount,
		Notes:            ticket.Notes,
		RequestedAt:      ticket.RequestedAt,
		ServiceStartedAt: ticket.ServiceStartedAt,
		CompletedAt:      ticket.CompletedAt,
	}
}

// SnapshotNotification copies a notification into its wire representation.
func SnapshotNotification(notification *domain.Notification) NotificationSnapshot {
	return NotificationSnapshot{
		ID:        notification.ID,
		TicketID:  notification.TicketID,
		Message:   notification.Message,
		Read:      notification.Read,
		CreatedAt: notification.CreatedAt,
	}
}
