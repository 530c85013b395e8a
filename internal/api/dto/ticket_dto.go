package dto

import (
	"time"

	"github.com/spec-kit/turno-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	VisitorID     string          `json:"visitor_id"`
	ServiceTypeID string          `json:"service_type_id"`
	Category      domain.Category `json:"category,omitempty"`
}

// CompleteTicketRequest payload.
type CompleteTicketRequest struct {
	Notes string `json:"notes"`
}

// TicketResponse represents a ticket on the wire.
type TicketResponse struct {
	ID               string             `json:"id"`
	Number           string             `json:"number"`
	VisitorID        string             `json:"visitor_id"`
	ServiceTypeID    string             `json:"service_type_id"`
	Category         domain.Category    `json:"category"`
	State            domain.TicketState `json:"state"`
	AgentID          *string            `json:"agent_id,omitempty"`
	CallCount        int                `json:"call_count"`
	Notes            string             `json:"notes,omitempty"`
	RequestedAt      time.Time          `json:"requested_at"`
	ServiceStartedAt *time.Time         `json:"service_started_at,omitempty"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// NotificationResponse represents a call announcement.
type NotificationResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// CallTicketResponse bundles the bumped ticket with its announcement.
type CallTicketResponse struct {
	Ticket       TicketResponse       `json:"ticket"`
	Notification NotificationResponse `json:"notification"`
}
