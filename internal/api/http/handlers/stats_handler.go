package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/turno-service/internal/api/dto"
	"github.com/spec-kit/turno-service/internal/service"
	apperrors "github.com/spec-kit/turno-service/pkg/util"
)

// StatsHandler serves historical aggregates for staff.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Summary POST /staff/stats/summary.
func (h *StatsHandler) Summary(c *fiber.Ctx) error {
	var req dto.StatsSummaryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	from, err := parseRangeBound(req.From)
	if err != nil {
		return apperrors.NewValidationError("invalid from date", map[string]any{"from": req.From})
	}
	to, err := parseRangeBound(req.To)
	if err != nil {
		return apperrors.NewValidationError("invalid to date", map[string]any{"to": req.To})
	}

	summary, err := h.stats.Summarize(c.Context(), from, to)
	if err != nil {
		return err
	}

	response := dto.StatsSummaryResponse{
		TotalCount:            summary.TotalCount,
		CountsByState:         make(map[string]int, len(summary.CountsByState)),
		CountsByCategory:      make(map[string]int, len(summary.CountsByCategory)),
		CountsByServiceType:   summary.CountsByServiceType,
		AverageServiceMinutes: summary.AverageServiceMinutes,
	}
	for state, count := range summary.CountsByState {
		response.CountsByState[string(state)] = count
	}
	for category, count := range summary.CountsByCategory {
		response.CountsByCategory[string(category)] = count
	}
	return c.JSON(fiber.Map{"data": response})
}

// parseRangeBound accepts a calendar date or a full RFC3339 timestamp.
func parseRangeBound(val string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
