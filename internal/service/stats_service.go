package service

import (
	"context"
	"math"
	"time"

	"github.com/spec-kit/turno-service/internal/domain"
	"github.com/spec-kit/turno-service/internal/repository"
	apperrors "github.com/spec-kit/turno-service/pkg/util"
)

// Summary aggregates historical ticket activity over a date range.
type Summary struct {
	TotalCount            int
	CountsByState         map[domain.TicketState]int
	CountsByCategory      map[domain.Category]int
	CountsByServiceType   map[string]int
	AverageServiceMinutes float64
}

// StatsService computes read-only aggregates over historical tickets.
type StatsService struct {
	tickets repository.TicketRepository
}

// NewStatsService constructs the service.
func NewStatsService(tickets repository.TicketRepository) *StatsService {
	return &StatsService{tickets: tickets}
}

// Summarize aggregates tickets requested in [from, to). The average service
// time covers completed tickets with both timestamps and is the arithmetic
// mean in minutes, rounded to two decimals. An empty range yields zero
// aggregates, not an error.
func (s *StatsService) Summarize(ctx context.Context, from, to time.Time) (*Summary, error) {
	if to.Before(from) {
		return nil, apperrors.NewValidationError("date range end precedes start", nil)
	}

	tickets, err := s.tickets.ListInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		TotalCount:          len(tickets),
		CountsByState:       make(map[domain.TicketState]int),
		CountsByCategory:    make(map[domain.Category]int),
		CountsByServiceType: make(map[string]int),
	}

	var totalMinutes float64
	var served int
	for _, ticket := range tickets {
		summary.CountsByState[ticket.State]++
		summary.CountsByCategory[ticket.Category]++
		summary.CountsByServiceType[ticket.ServiceTypeID]++

		if ticket.State == domain.TicketStateCompleted &&
			ticket.ServiceStartedAt != nil && ticket.CompletedAt != nil {
			totalMinutes += ticket.CompletedAt.Sub(*ticket.ServiceStartedAt).Minutes()
			served++
		}
	}
	if served > 0 {
		summary.AverageServiceMinutes = round2(totalMinutes / float64(served))
	}
	return summary, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
