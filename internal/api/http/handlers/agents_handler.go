package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/turno-service/internal/api/dto"
	"github.com/spec-kit/turno-service/internal/auth"
	"github.com/spec-kit/turno-service/internal/domain"
	"github.com/spec-kit/turno-service/internal/service"
	apperrors "github.com/spec-kit/turno-service/pkg/util"
)

// AgentsHandler serves agent authentication endpoints.
type AgentsHandler struct {
	authService *service.AuthService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(authService *service.AuthService) *AgentsHandler {
	return &AgentsHandler{authService: authService}
}

// Login POST /auth/agents/login.
func (h *AgentsHandler) Login(c *fiber.Ctx) error {
	var req dto.AgentLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	agent, token, expiresAt, err := h.authService.LoginAgent(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AgentLoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Agent:     agentResponse(agent),
	}})
}

// Me GET /staff/me.
func (h *AgentsHandler) Me(c *fiber.Ctx) error {
	agent, ok := auth.AgentFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	return c.JSON(fiber.Map{"data": agentResponse(agent)})
}

func agentResponse(agent *domain.Agent) dto.AgentResponse {
	return dto.AgentResponse{
		ID:             agent.ID,
		Name:           agent.Name,
		Email:          agent.Email,
		ServiceTypeIDs: agent.ServiceTypeIDs,
	}
}
