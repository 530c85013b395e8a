package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/turno-service/internal/api/dto"
	"github.com/spec-kit/turno-service/internal/auth"
	"github.com/spec-kit/turno-service/internal/domain"
	"github.com/spec-kit/turno-service/internal/service"
	apperrors "github.com/spec-kit/turno-service/pkg/util"
)

// QueueHandler serves the staff queue view with today's counters.
type QueueHandler struct {
	queue *service.QueueService
	stats *service.StatsService
}

// NewQueueHandler constructs handler.
func NewQueueHandler(queue *service.QueueService, stats *service.StatsService) *QueueHandler {
	return &QueueHandler{queue: queue, stats: stats}
}

// GetQueue GET /staff/queue.
func (h *QueueHandler) GetQueue(c *fiber.Ctx) error {
	agent, ok := auth.AgentFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	scope := service.QueueScope{ServiceTypeIDs: agent.ServiceTypeIDs}

	entries, err := h.queue.PendingQueue(c.Context(), scope)
	if err != nil {
		return err
	}
	grouped, err := h.queue.GroupedByCategory(c.Context(), scope)
	if err != nil {
		return err
	}

	day := time.Now().UTC().Truncate(24 * time.Hour)
	summary, err := h.stats.Summarize(c.Context(), day, day.Add(24*time.Hour))
	if err != nil {
		return err
	}

	response := dto.QueueResponse{
		Entries: make([]dto.TicketResponse, 0, len(entries)),
		Grouped: make(map[string][]dto.TicketResponse, len(grouped)),
		Dashboard: dto.DashboardResponse{
			Total:                 summary.TotalCount,
			Pending:               summary.CountsByState[domain.TicketStatePending],
			InService:             summary.CountsByState[domain.TicketStateInService],
			Completed:             summary.CountsByState[domain.TicketStateCompleted],
			Cancelled:             summary.CountsByState[domain.TicketStateCancelled],
			AverageServiceMinutes: summary.AverageServiceMinutes,
		},
	}
	for i := range entries {
		response.Entries = append(response.Entries, ticketResponse(&entries[i]))
	}
	for category, tickets := range grouped {
		bucket := make([]dto.TicketResponse, 0, len(tickets))
		for i := range tickets {
			bucket = append(bucket, ticketResponse(&tickets[i]))
		}
		response.Grouped[string(category)] = bucket
	}
	return c.JSON(fiber.Map{"data": response})
}
