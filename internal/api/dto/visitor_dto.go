package dto

import (
	"time"

	"github.com/spec-kit/turno-service/internal/domain"
)

// RegisterVisitorRequest payload.
type RegisterVisitorRequest struct {
	Document string          `json:"document"`
	Name     string          `json:"name"`
	Phone    string          `json:"phone"`
	Email    string          `json:"email"`
	Category domain.Category `json:"category,omitempty"`
}

// UpdateVisitorCategoryRequest payload.
type UpdateVisitorCategoryRequest struct {
	Category domain.Category `json:"category"`
}

// VisitorResponse represents a visitor.
type VisitorResponse struct {
	ID        string          `json:"id"`
	Document  string          `json:"document"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone,omitempty"`
	Email     string          `json:"email,omitempty"`
	Category  domain.Category `json:"category"`
	CreatedAt time.Time       `json:"created_at"`
}

// ServiceTypeResponse represents a catalog entry.
type ServiceTypeResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}
