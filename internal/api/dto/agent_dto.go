package dto

import "time"

// AgentLoginRequest payload.
type AgentLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AgentLoginResponse carries the issued bearer token.
type AgentLoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Agent     AgentResponse `json:"agent"`
}

// AgentResponse represents a counter agent.
type AgentResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	ServiceTypeIDs []string `json:"service_type_ids"`
}
