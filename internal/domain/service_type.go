package domain

import "time"

// ServiceType is a counter procedure visitors can request a turn for.
type ServiceType struct {
	ID               string
	Name             string
	Description      string
	EstimatedMinutes int
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
