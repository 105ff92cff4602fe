package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/complaint-intake/internal/api/dto"
	"github.com/spec-kit/complaint-intake/internal/domain"
	"github.com/spec-kit/complaint-intake/internal/service"
	apperrors "github.com/spec-kit/complaint-intake/pkg/util"
)

// ComplaintsHandler exposes the message intake endpoint.
type ComplaintsHandler struct {
	intake *service.IntakeService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(intake *service.IntakeService) *ComplaintsHandler {
	return &ComplaintsHandler{intake: intake}
}

// Submit handles POST /api/v1/complaints. A missing thread_id starts a
// new conversation thread.
func (h *ComplaintsHandler) Submit(c *fiber.Ctx) error {
	var req dto.ComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Message) == "" {
		return apperrors.NewValidationError("message required", nil)
	}
	if strings.TrimSpace(req.ThreadID) == "" {
		req.ThreadID = newThreadID()
	}

	result, err := h.intake.ProcessMessage(c.UserContext(), req.ThreadID, req.Message)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if result.ActionTaken == domain.ActionCreateTicket {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"data": dto.ComplaintResponse{
			ThreadID:      result.ThreadID,
			ActionTaken:   result.ActionTaken,
			TicketID:      result.TicketID,
			Priority:      result.Priority,
			SLADeadline:   result.SLADeadline,
			MissingFields: result.MissingFields,
			Message:       result.Message,
		},
	})
}

func newThreadID() string {
	return "thread_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
