package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-intake/internal/api/dto"
	"github.com/spec-kit/complaint-intake/internal/service"
	apperrors "github.com/spec-kit/complaint-intake/pkg/util"
)

// TicketsHandler exposes agent-facing ticket queries.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// List handles GET /api/v1/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	tickets, err := h.tickets.ListTickets(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}

	summaries := make([]dto.TicketSummary, 0, len(tickets))
	for _, t := range tickets {
		summaries = append(summaries, dto.SummaryFromTicket(t))
	}
	return c.JSON(fiber.Map{"data": summaries})
}

// Get handles GET /api/v1/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return apperrors.NewValidationError("ticket id required", nil)
	}

	ticket, history, err := h.tickets.GetTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DetailFromTicket(ticket, history)})
}

// Stats handles GET /api/v1/tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.tickets.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Clear handles DELETE /api/v1/tickets.
func (h *TicketsHandler) Clear(c *fiber.Ctx) error {
	removed, err := h.tickets.ClearAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"removed": removed}})
}
