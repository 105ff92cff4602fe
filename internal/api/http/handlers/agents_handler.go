package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-intake/internal/api/dto"
	"github.com/spec-kit/complaint-intake/internal/service"
	apperrors "github.com/spec-kit/complaint-intake/pkg/util"
)

// AgentsHandler exposes agent authentication.
type AgentsHandler struct {
	agents *service.AgentService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(agents *service.AgentService) *AgentsHandler {
	return &AgentsHandler{agents: agents}
}

// Login handles POST /auth/agent/login.
func (h *AgentsHandler) Login(c *fiber.Ctx) error {
	var req dto.AgentLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AgentID == "" || req.Password == "" {
		return apperrors.NewValidationError("agent_id and password required", nil)
	}

	token, exp, err := h.agents.Login(req.AgentID, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{Token: token, ExpiresAt: exp},
	})
}
