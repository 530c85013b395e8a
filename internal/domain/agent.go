package domain

import "time"

// Agent is a staff member serving tickets at a counter. An empty assignment
// set means the agent sees every queue.
type Agent struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	Active         bool
	ServiceTypeIDs []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ServesType reports whether the agent's assignments cover the service type.
func (a *Agent) ServesType(serviceTypeID string) bool {
	if len(a.ServiceTypeIDs) == 0 {
		return true
	}
	for _, id := range a.ServiceTypeIDs {
		if id == serviceTypeID {
			return true
		}
	}
	return false
}
