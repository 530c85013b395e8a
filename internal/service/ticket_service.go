package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/turno-service/internal/domain"
	"github.com/spec-kit/turno-service/internal/events"
	"github.com/spec-kit/turno-service/internal/repository"
	apperrors "github.com/spec-kit/turno-service/pkg/util"
)

// createRetries bounds re-issue attempts when an insert loses a number race
// against another instance.
const createRetries = 3

// TicketService owns the ticket lifecycle state machine. Every successful
// mutation is a single guarded write and emits exactly one broadcast event;
// broadcast failures never surface to the caller.
type TicketService struct {
	tickets       repository.TicketRepository
	notifications repository.NotificationRepository
	visitors      repository.VisitorRepository
	serviceTypes  repository.ServiceTypeRepository
	sequencer     *Sequencer
	broadcaster   events.Broadcaster
	logger        *zap.Logger
	now           func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo       repository.TicketRepository
	NotificationRepo repository.NotificationRepository
	VisitorRepo      repository.VisitorRepository
	ServiceTypeRepo  repository.ServiceTypeRepository
	Sequencer        *Sequencer
	Broadcaster      events.Broadcaster
	Logger           *zap.Logger
	Clock            func() time.Time
}

// TicketRequestInput describes a visitor's turn request. An empty Category
// uses the visitor's registered one.
type TicketRequestInput struct {
	VisitorID     string
	ServiceTypeID string
	Category      domain.Category
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		tickets:       deps.TicketRepo,
		notifications: deps.NotificationRepo,
		visitors:      deps.VisitorRepo,
		serviceTypes:  deps.ServiceTypeRepo,
		sequencer:     deps.Sequencer,
		broadcaster:   deps.Broadcaster,
		logger:        deps.Logger,
		now:           clock,
	}
}

var allowedTransitions = map[domain.TicketState][]domain.TicketState{
	domain.TicketStatePending:   {domain.TicketStateInService, domain.TicketStateCancelled},
	domain.TicketStateInService: {domain.TicketStateCompleted, domain.TicketStateCancelled},
	domain.TicketStateCompleted: {},
	domain.TicketStateCancelled: {},
}

func canTransition(current, next domain.TicketState) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// RequestTicket issues a number and creates a pending ticket for a visitor.
func (s *TicketService) RequestTicket(ctx context.Context, input TicketRequestInput) (*domain.Ticket, error) {
	if input.VisitorID == "" || input.ServiceTypeID == "" {
		return nil, apperrors.NewValidationError("visitor_id and service_type_id required", nil)
	}

	visitor, err := s.visitors.GetByID(ctx, input.VisitorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("visitor", map[string]any{"visitor_id": input.VisitorID})
		}
		return nil, err
	}

	serviceType, err := s.serviceTypes.GetByID(ctx, input.ServiceTypeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("unknown service type", map[string]any{"service_type_id": input.ServiceTypeID})
		}
		return nil, err
	}
	if !serviceType.IsActive {
		return nil, apperrors.NewValidationError("service type not available", map[string]any{"service_type_id": serviceType.ID})
	}

	category := input.Category
	if category == "" {
		category = visitor.Category
	}

	var ticket *domain.Ticket
	for attempt := 0; attempt < createRetries; attempt++ {
		now := s.now()
		number, err := s.sequencer.Issue(ctx, category, now)
		if err != nil {
			return nil, err
		}
		ticket = &domain.Ticket{
			Number:        number,
			VisitorID:     visitor.ID,
			ServiceTypeID: serviceType.ID,
			Category:      category,
			State:         domain.TicketStatePending,
			CallCount:     0,
			RequestedAt:   now,
		}
		err = s.tickets.Create(ctx, ticket)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateNumber) {
			// lost the number race against another instance; re-issue
			ticket = nil
			continue
		}
		return nil, err
	}
	if ticket == nil {
		return nil, apperrors.NewTransientStore(repository.ErrDuplicateNumber)
	}

	s.publish(ctx, events.EventTicketCreated, ticket, nil)
	return ticket, nil
}

// GetTicket fetches a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, err
	}
	return ticket, nil
}

// Call announces a ticket at the counter: bumps the call counter, records a
// notification for the holder, and broadcasts the call. Valid in any
// non-terminal state, capped at MaxCalls per ticket.
func (s *TicketService) Call(ctx context.Context, ticketID string) (*domain.Ticket, *domain.Notification, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if ticket.State.Terminal() {
		return nil, nil, apperrors.NewInvalidState(
			fmt.Sprintf("ticket %s cannot be called in state %s", ticket.Number, ticket.State), nil)
	}
	if ticket.CallCount >= domain.MaxCalls {
		return nil, nil, apperrors.NewCallLimitExceeded(ticket.Number)
	}

	if err := s.tickets.IncrementCallCount(ctx, ticket, ticket.CallCount); err != nil {
		if errors.Is(err, repository.ErrStaleTicket) {
			return nil, nil, s.explainCallConflict(ctx, ticketID)
		}
		return nil, nil, err
	}

	notification := &domain.Notification{
		TicketID: ticket.ID,
		Message: fmt.Sprintf("Call #%d: ticket %s is being called, please proceed to the service counter",
			ticket.CallCount, ticket.Number),
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.EventTicketCalled, ticket, notification)
	return ticket, notification, nil
}

// explainCallConflict re-reads the ticket after a lost call race so the
// caller gets the specific error kind.
func (s *TicketService) explainCallConflict(ctx context.Context, ticketID string) error {
	current, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if current.State.Terminal() {
		return apperrors.NewInvalidState(
			fmt.Sprintf("ticket %s cannot be called in state %s", current.Number, current.State), nil)
	}
	if current.CallCount >= domain.MaxCalls {
		return apperrors.NewCallLimitExceeded(current.Number)
	}
	return apperrors.NewTransientStore(repository.ErrStaleTicket)
}

// StartService moves a pending ticket into service, binding the serving
// agent and stamping the service-start time exactly once.
func (s *TicketService) StartService(ctx context.Context, ticketID, agentID string) (*domain.Ticket, error) {
	if agentID == "" {
		return nil, apperrors.NewValidationError("agent required", nil)
	}
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, ticket, domain.TicketStateInService, func(t *domain.Ticket) {
		now := s.now()
		t.ServiceStartedAt = &now
		t.AgentID = &agentID
	})
}

// Complete finishes an in-service ticket, stamping the completion time and
// appending optional notes.
func (s *TicketService) Complete(ctx context.Context, ticketID, notes string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, ticket, domain.TicketStateCompleted, func(t *domain.Ticket) {
		now := s.now()
		t.CompletedAt = &now
		if trimmed := strings.TrimSpace(notes); trimmed != "" {
			if t.Notes != "" {
				t.Notes += "\n" + trimmed
			} else {
				t.Notes = trimmed
			}
		}
	})
}

// Cancel aborts a pending or in-service ticket.
func (s *TicketService) Cancel(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, ticket, domain.TicketStateCancelled, nil)
}

// transition applies a guarded state change: verify the transition table,
// mutate, write with the previous state as precondition, broadcast.
func (s *TicketService) transition(ctx context.Context, ticket *domain.Ticket, next domain.TicketState, mutate func(*domain.Ticket)) (*domain.Ticket, error) {
	if !canTransition(ticket.State, next) {
		return nil, apperrors.NewInvalidState(
			fmt.Sprintf("ticket %s cannot move from %s to %s", ticket.Number, ticket.State, next),
			map[string]any{"current_state": string(ticket.State)})
	}
	previous := ticket.State
	ticket.State = next
	if mutate != nil {
		mutate(ticket)
	}
	if err := s.tickets.UpdateState(ctx, ticket, previous); err != nil {
		if errors.Is(err, repository.ErrStaleTicket) {
			return nil, apperrors.NewInvalidState(
				fmt.Sprintf("ticket %s changed state before the update was applied", ticket.Number), nil)
		}
		return nil, err
	}

	s.publish(ctx, events.EventTicketStateChanged, ticket, nil)
	return ticket, nil
}

// ListRecent returns recent tickets for staff review, newest first.
func (s *TicketService) ListRecent(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.ListRecent(ctx, filter)
}

// ListUnreadNotifications returns pending call announcements for a ticket.
func (s *TicketService) ListUnreadNotifications(ctx context.Context, ticketID string) ([]domain.Notification, error) {
	if _, err := s.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.notifications.ListUnreadByTicket(ctx, ticketID)
}

// MarkNotificationRead flags a call announcement as seen by the holder.
func (s *TicketService) MarkNotificationRead(ctx context.Context, notificationID string) error {
	err := s.notifications.MarkRead(ctx, notificationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("notification", map[string]any{"notification_id": notificationID})
	}
	return err
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, ticket *domain.Ticket, notification *domain.Notification) {
	if s.broadcaster == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: s.now(),
		Payload:   events.Payload{Ticket: events.SnapshotTicket(ticket)},
	}
	if notification != nil {
		snapshot := events.SnapshotNotification(notification)
		event.Payload.Notification = &snapshot
	}
	if err := s.broadcaster.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("event_type", string(eventType)),
			zap.String("ticket", ticket.Number),
			zap.Error(err))
	}
}
