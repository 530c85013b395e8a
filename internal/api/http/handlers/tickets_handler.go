package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/turno-service/internal/api/dto"
	"github.com/spec-kit/turno-service/internal/auth"
	"github.com/spec-kit/turno-service/internal/domain"
	"github.com/spec-kit/turno-service/internal/repository"
	"github.com/spec-kit/turno-service/internal/service"
	apperrors "github.com/spec-kit/turno-service/pkg/util"
)

// TicketsHandler serves turn requests and the staff lifecycle operations.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.VisitorID == "" || req.ServiceTypeID == "" {
		return apperrors.NewValidationError("visitor_id and service_type_id required", nil)
	}

	ticket, err := h.service.RequestTicket(c.Context(), service.TicketRequestInput{
		VisitorID:     req.VisitorID,
		ServiceTypeID: req.ServiceTypeID,
		Category:      req.Category,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListNotifications GET /tickets/:id/notifications.
func (h *TicketsHandler) ListNotifications(c *fiber.Ctx) error {
	notifications, err := h.service.ListUnreadNotifications(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		items = append(items, notificationResponse(&notifications[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// MarkNotificationRead POST /notifications/:id/read.
func (h *TicketsHandler) MarkNotificationRead(c *fiber.Ctx) error {
	if err := h.service.MarkNotificationRead(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"read": true}})
}

// ListTickets GET /staff/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := parseTicketFilter(c)
	tickets, err := h.service.ListRecent(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CallTicket POST /staff/tickets/:id/call.
func (h *TicketsHandler) CallTicket(c *fiber.Ctx) error {
	ticket, notification, err := h.service.Call(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CallTicketResponse{
		Ticket:       ticketResponse(ticket),
		Notification: notificationResponse(notification),
	}})
}

// StartTicket POST /staff/tickets/:id/start.
func (h *TicketsHandler) StartTicket(c *fiber.Ctx) error {
	agent, ok := auth.AgentFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	ticket, err := h.service.StartService(c.Context(), c.Params("id"), agent.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// CompleteTicket POST /staff/tickets/:id/complete.
func (h *TicketsHandler) CompleteTicket(c *fiber.Ctx) error {
	var req dto.CompleteTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	ticket, err := h.service.Complete(c.Context(), c.Params("id"), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// CancelTicket POST /staff/tickets/:id/cancel.
func (h *TicketsHandler) CancelTicket(c *fiber.Ctx) error {
	ticket, err := h.service.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

func parseTicketFilter(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if stateStr := strings.TrimSpace(c.Query("state")); stateStr != "" {
		state := domain.TicketState(strings.ToUpper(stateStr))
		filter.State = &state
	}
	if categoryStr := strings.TrimSpace(c.Query("category")); categoryStr != "" {
		category := domain.Category(strings.ToLower(categoryStr))
		filter.Category = &category
	}
	if day := parseDate(c.Query("day")); day != nil {
		filter.Day = day
	}
	filter.Limit = parseInt(c.Query("limit"), 50)
	return filter
}

func parseDate(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", val)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:               ticket.ID,
		Number:           ticket.Number,
		VisitorID:        ticket.VisitorID,
		ServiceTypeID:    ticket.ServiceTypeID,
		Category:         ticket.Category,
		State:            ticket.State,
		AgentID:          ticket.AgentID,
		CallCount:        ticket.CallCount,
		Notes:            ticket.Notes,
		RequestedAt:      ticket.RequestedAt,
		ServiceStartedAt: ticket.ServiceStartedAt,
		CompletedAt:      ticket.CompletedAt,
		UpdatedAt:        ticket.UpdatedAt,
	}
}

func notificationResponse(notification *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        notification.ID,
		TicketID:  notification.TicketID,
		Message:   notification.Message,
		Read:      notification.Read,
		CreatedAt: notification.CreatedAt,
	}
}
