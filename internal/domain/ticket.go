package domain

import "time"

// TicketState enumerates lifecycle states for service tickets.
type TicketState string

const (
	TicketStatePending   TicketState = "PENDING"
	TicketStateInService TicketState = "IN_SERVICE"
	TicketStateCompleted TicketState = "COMPLETED"
	TicketStateCancelled TicketState = "CANCELLED"
)

// Terminal reports whether no transition may leave the state.
func (s TicketState) Terminal() bool {
	return s == TicketStateCompleted || s == TicketStateCancelled
}

// MaxCalls caps how many times a single ticket may be called.
const MaxCalls = 3

// Ticket is the aggregate for counter service turns. The number is immutable
// once assigned; service-start and completion timestamps are each set exactly
// once, on entering the corresponding state.
type Ticket struct {
	ID               string
	Number           string
	VisitorID        string
	ServiceTypeID    string
	Category         Category
	State            TicketState
	AgentID          *string
	CallCount        int
	Notes            string
	RequestedAt      time.Time
	ServiceStartedAt *time.Time
	CompletedAt      *time.Time
	UpdatedAt        time.Time
}
