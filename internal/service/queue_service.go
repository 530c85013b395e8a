package service

import (
	"context"
	"sort"
	"time"

	"github.com/spec-kit/turno-service/internal/domain"
	"github.com/spec-kit/turno-service/internal/repository"
)

// QueueScope narrows the queue to an agent's assigned service types. An
// empty assignment set sees every queue.
type QueueScope struct {
	ServiceTypeIDs []string
}

// QueueService produces the ordered, grouped view of today's work queue.
// The view is recomputed on every call; no cursor state is retained.
type QueueService struct {
	tickets repository.TicketRepository
	policy  *domain.CategoryPolicy
	now     func() time.Time
}

// NewQueueService constructs the service.
func NewQueueService(tickets repository.TicketRepository, policy *domain.CategoryPolicy, clock func() time.Time) *QueueService {
	if clock == nil {
		clock = time.Now
	}
	return &QueueService{tickets: tickets, policy: policy, now: clock}
}

// PendingQueue returns today's pending and in-service tickets ordered by
// category rank, then request time (FIFO within a category).
func (s *QueueService) PendingQueue(ctx context.Context, scope QueueScope) ([]domain.Ticket, error) {
	day := s.now().UTC().Truncate(24 * time.Hour)
	tickets, err := s.tickets.ListActiveOnDate(ctx, day, scope.ServiceTypeIDs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tickets, func(i, j int) bool {
		ri, rj := s.policy.Rank(tickets[i].Category), s.policy.Rank(tickets[j].Category)
		if ri != rj {
			return ri < rj
		}
		return tickets[i].RequestedAt.Before(tickets[j].RequestedAt)
	})
	return tickets, nil
}

// GroupedByCategory buckets the pending queue per category, keyed by every
// configured category so empty buckets render as empty lists.
func (s *QueueService) GroupedByCategory(ctx context.Context, scope QueueScope) (map[domain.Category][]domain.Ticket, error) {
	queue, err := s.PendingQueue(ctx, scope)
	if err != nil {
		return nil, err
	}
	groups := make(map[domain.Category][]domain.Ticket, len(s.policy.Categories()))
	for _, category := range s.policy.Categories() {
		groups[category] = []domain.Ticket{}
	}
	for _, ticket := range queue {
		category := ticket.Category
		if !s.policy.Known(category) {
			category = s.policy.Categories()[len(s.policy.Categories())-1]
		}
		groups[category] = append(groups[category], ticket)
	}
	return groups, nil
}
