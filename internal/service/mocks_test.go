package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/turno-service/internal/domain"
	"github.com/spec-kit/turno-service/internal/events"
	"github.com/spec-kit/turno-service/internal/repository"
)

type memTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket

	// overrides for failure-path tests
	numberExistsFn func(number string) (bool, error)
	createErr      error
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *memTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.tickets {
		if existing.Number == ticket.Number {
			return repository.ErrDuplicateNumber
		}
	}
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.UpdatedAt = time.Now()
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *memTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *memTicketRepo) ListByPrefixAndDate(ctx context.Context, prefix string, day time.Time) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day = day.UTC().Truncate(24 * time.Hour)
	var result []domain.Ticket
	for _, stored := range r.tickets {
		if strings.HasPrefix(stored.Number, prefix) &&
			stored.RequestedAt.UTC().Truncate(24*time.Hour).Equal(day) {
			result = append(result, *stored)
		}
	}
	return result, nil
}

func (r *memTicketRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	if r.numberExistsFn != nil {
		return r.numberExistsFn(number)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.tickets {
		if stored.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *memTicketRepo) ListActiveOnDate(ctx context.Context, day time.Time, serviceTypeIDs []string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day = day.UTC().Truncate(24 * time.Hour)
	var result []domain.Ticket
	for _, stored := range r.tickets {
		if stored.State != domain.TicketStatePending && stored.State != domain.TicketStateInService {
			continue
		}
		if !stored.RequestedAt.UTC().Truncate(24 * time.Hour).Equal(day) {
			continue
		}
		if len(serviceTypeIDs) > 0 && !containsString(serviceTypeIDs, stored.ServiceTypeID) {
			continue
		}
		result = append(result, *stored)
	}
	return result, nil
}

func (r *memTicketRepo) ListInRange(ctx context.Context, from, to time.Time) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, stored := range r.tickets {
		if !stored.RequestedAt.Before(from) && stored.RequestedAt.Before(to) {
			result = append(result, *stored)
		}
	}
	return result, nil
}

func (r *memTicketRepo) ListRecent(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, stored := range r.tickets {
		if filter.State != nil && stored.State != *filter.State {
			continue
		}
		if filter.Category != nil && stored.Category != *filter.Category {
			continue
		}
		result = append(result, *stored)
	}
	return result, nil
}

func (r *memTicketRepo) UpdateState(ctx context.Context, ticket *domain.Ticket, expected domain.TicketState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok || stored.State != expected {
		return repository.ErrStaleTicket
	}
	updated := *ticket
	updated.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = &updated
	return nil
}

func (r *memTicketRepo) IncrementCallCount(ctx context.Context, ticket *domain.Ticket, expectedCalls int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok || stored.CallCount != expectedCalls || stored.State.Terminal() {
		return repository.ErrStaleTicket
	}
	stored.CallCount++
	ticket.CallCount = expectedCalls + 1
	return nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

type memNotificationRepo struct {
	mu            sync.Mutex
	seq           int
	notifications map[string]*domain.Notification
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{notifications: make(map[string]*domain.Notification)}
}

func (r *memNotificationRepo) Create(ctx context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	notification.ID = fmt.Sprintf("notification-%d", r.seq)
	notification.CreatedAt = time.Now()
	stored := *notification
	r.notifications[notification.ID] = &stored
	return nil
}

func (r *memNotificationRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Notification, error) {
	return r.filter(ticketID, false), nil
}

func (r *memNotificationRepo) ListUnreadByTicket(ctx context.Context, ticketID string) ([]domain.Notification, error) {
	return r.filter(ticketID, true), nil
}

func (r *memNotificationRepo) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.notifications[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Read = true
	return nil
}

func (r *memNotificationRepo) filter(ticketID string, unreadOnly bool) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Notification
	for _, stored := range r.notifications {
		if stored.TicketID != ticketID {
			continue
		}
		if unreadOnly && stored.Read {
			continue
		}
		result = append(result, *stored)
	}
	return result
}

type memVisitorRepo struct {
	mu       sync.Mutex
	seq      int
	visitors map[string]*domain.Visitor
}

func newMemVisitorRepo() *memVisitorRepo {
	return &memVisitorRepo{visitors: make(map[string]*domain.Visitor)}
}

func (r *memVisitorRepo) Create(ctx context.Context, visitor *domain.Visitor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.visitors {
		if existing.Document == visitor.Document {
			return repository.ErrDuplicateDocument
		}
	}
	r.seq++
	visitor.ID = fmt.Sprintf("visitor-%d", r.seq)
	visitor.CreatedAt = time.Now()
	stored := *visitor
	r.visitors[visitor.ID] = &stored
	return nil
}

func (r *memVisitorRepo) GetByID(ctx context.Context, id string) (*domain.Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.visitors[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *memVisitorRepo) GetByDocument(ctx context.Context, document string) (*domain.Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.visitors {
		if stored.Document == document {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memVisitorRepo) UpdateCategory(ctx context.Context, id string, category domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.visitors[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Category = category
	return nil
}

type memServiceTypeRepo struct {
	mu    sync.Mutex
	types map[string]*domain.ServiceType
}

func newMemServiceTypeRepo() *memServiceTypeRepo {
	return &memServiceTypeRepo{types: make(map[string]*domain.ServiceType)}
}

func (r *memServiceTypeRepo) add(serviceType domain.ServiceType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[serviceType.ID] = &serviceType
}

func (r *memServiceTypeRepo) GetByID(ctx context.Context, id string) (*domain.ServiceType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.types[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *memServiceTypeRepo) ListActive(ctx context.Context) ([]domain.ServiceType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ServiceType
	for _, stored := range r.types {
		if stored.IsActive {
			result = append(result, *stored)
		}
	}
	return result, nil
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBroadcaster) Publish(ctx context.Context, event events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBroadcaster) Subscribe(eventType events.EventType, handler events.Handler) {}

func (b *recordingBroadcaster) SubscribeStream() *events.Subscription { return nil }

func (b *recordingBroadcaster) published() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]events.Event, len(b.events))
	copy(result, b.events)
	return result
}
