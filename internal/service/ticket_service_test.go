package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/turno-service/internal/domain"
	"github.com/spec-kit/turno-service/internal/events"
	apperrors "github.com/spec-kit/turno-service/pkg/util"
)

type ticketFixture struct {
	tickets       *memTicketRepo
	notifications *memNotificationRepo
	visitors      *memVisitorRepo
	serviceTypes  *memServiceTypeRepo
	broadcaster   *recordingBroadcaster
	svc           *TicketService
	visitorID     string
	serviceTypeID string
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	fx := &ticketFixture{
		tickets:       newMemTicketRepo(),
		notifications: newMemNotificationRepo(),
		visitors:      newMemVisitorRepo(),
		serviceTypes:  newMemServiceTypeRepo(),
		broadcaster:   &recordingBroadcaster{},
	}

	visitor := &domain.Visitor{Document: "12345678", Name: "Ana", Category: domain.CategoryNone}
	require.NoError(t, fx.visitors.Create(context.Background(), visitor))
	fx.visitorID = visitor.ID

	fx.serviceTypes.add(domain.ServiceType{ID: "type-1", Name: "Renewal", IsActive: true})
	fx.serviceTypes.add(domain.ServiceType{ID: "type-off", Name: "Legacy", IsActive: false})
	fx.serviceTypeID = "type-1"

	policy := domain.DefaultCategoryPolicy()
	fx.svc = NewTicketService(TicketDependencies{
		TicketRepo:       fx.tickets,
		NotificationRepo: fx.notifications,
		VisitorRepo:      fx.visitors,
		ServiceTypeRepo:  fx.serviceTypes,
		Sequencer:        NewSequencer(fx.tickets, policy, 0),
		Broadcaster:      fx.broadcaster,
		Logger:           zap.NewNop(),
		Clock: func() time.Time {
			return time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
		},
	})
	return fx
}

func (fx *ticketFixture) request(t *testing.T, category domain.Category) *domain.Ticket {
	t.Helper()
	ticket, err := fx.svc.RequestTicket(context.Background(), TicketRequestInput{
		VisitorID:     fx.visitorID,
		ServiceTypeID: fx.serviceTypeID,
		Category:      category,
	})
	require.NoError(t, err)
	return ticket
}

func TestRequestTicket(t *testing.T) {
	fx := newTicketFixture(t)

	ticket := fx.request(t, "")

	assert.Equal(t, "N001", ticket.Number)
	assert.Equal(t, domain.CategoryNone, ticket.Category)
	assert.Equal(t, domain.TicketStatePending, ticket.State)
	assert.Equal(t, 0, ticket.CallCount)
	assert.NotEmpty(t, ticket.ID)

	published := fx.broadcaster.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventTicketCreated, published[0].Type)
	assert.Equal(t, "N001", published[0].Payload.Ticket.Number)
}

func TestRequestTicketCategoryOverride(t *testing.T) {
	fx := newTicketFixture(t)

	ticket := fx.request(t, domain.CategoryElderly)

	assert.Equal(t, "A001", ticket.Number)
	assert.Equal(t, domain.CategoryElderly, ticket.Category)
}

func TestRequestTicketValidation(t *testing.T) {
	fx := newTicketFixture(t)

	tests := []struct {
		name     string
		input    TicketRequestInput
		wantCode string
	}{
		{
			name:     "missing ids",
			input:    TicketRequestInput{},
			wantCode: apperrors.CodeValidationFailed,
		},
		{
			name:     "unknown visitor",
			input:    TicketRequestInput{VisitorID: "visitor-nope", ServiceTypeID: fx.serviceTypeID},
			wantCode: apperrors.CodeNotFound,
		},
		{
			name:     "unknown service type",
			input:    TicketRequestInput{VisitorID: fx.visitorID, ServiceTypeID: "type-nope"},
			wantCode: apperrors.CodeValidationFailed,
		},
		{
			name:     "inactive service type",
			input:    TicketRequestInput{VisitorID: fx.visitorID, ServiceTypeID: "type-off"},
			wantCode: apperrors.CodeValidationFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.svc.RequestTicket(context.Background(), tc.input)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tc.wantCode), "got %v", err)
		})
	}
}

func TestRequestTicketConcurrentNumbersUnique(t *testing.T) {
	fx := newTicketFixture(t)

	const workers = 20
	var wg sync.WaitGroup
	numbers := make(chan string, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket, err := fx.svc.RequestTicket(context.Background(), TicketRequestInput{
				VisitorID:     fx.visitorID,
				ServiceTypeID: fx.serviceTypeID,
			})
			if err == nil {
				numbers <- ticket.Number
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for number := range numbers {
		assert.False(t, seen[number], "number %s issued twice", number)
		seen[number] = true
	}
	assert.Len(t, seen, workers)
}

func TestCallTicket(t *testing.T) {
	fx := newTicketFixture(t)
	ticket := fx.request(t, "")

	for i := 1; i <= domain.MaxCalls; i++ {
		called, notification, err := fx.svc.Call(context.Background(), ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, i, called.CallCount)
		assert.Contains(t, notification.Message, called.Number)
		assert.False(t, notification.Read)
	}

	_, _, err := fx.svc.Call(context.Background(), ticket.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeCallLimitExceeded))
}

func TestCallTicketTerminalState(t *testing.T) {
	fx := newTicketFixture(t)
	ticket := fx.request(t, "")

	_, err := fx.svc.Cancel(context.Background(), ticket.ID)
	require.NoError(t, err)

	_, _, err = fx.svc.Call(context.Background(), ticket.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))
}

func TestCallEmitsEventWithNotification(t *testing.T) {
	fx := newTicketFixture(t)
	ticket := fx.request(t, "")

	_, _, err := fx.svc.Call(context.Background(), ticket.ID)
	require.NoError(t, err)

	published := fx.broadcaster.published()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventTicketCalled, published[1].Type)
	require.NotNil(t, published[1].Payload.Notification)
	assert.Equal(t, ticket.ID, published[1].Payload.Notification.TicketID)
}

func TestLifecycleHappyPath(t *testing.T) {
	fx := newTicketFixture(t)
	ticket := fx.request(t, "")

	started, err := fx.svc.StartService(context.Background(), ticket.ID, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStateInService, started.State)
	require.NotNil(t, started.AgentID)
	assert.Equal(t, "agent-1", *started.AgentID)
	require.NotNil(t, started.ServiceStartedAt)

	completed, err := fx.svc.Complete(context.Background(), ticket.ID, "  all done  ")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStateCompleted, completed.State)
	require.NotNil(t, completed.CompletedAt)
	assert.Equal(t, "all done", completed.Notes)

	published := fx.broadcaster.published()
	require.Len(t, published, 3)
	assert.Equal(t, events.EventTicketStateChanged, published[1].Type)
	assert.Equal(t, events.EventTicketStateChanged, published[2].Type)
}

func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T, fx *ticketFixture, ticketID string) error
	}{
		{
			name: "complete from pending",
			run: func(t *testing.T, fx *ticketFixture, ticketID string) error {
				_, err := fx.svc.Complete(context.Background(), ticketID, "")
				return err
			},
		},
		{
			name: "start after cancel",
			run: func(t *testing.T, fx *ticketFixture, ticketID string) error {
				_, err := fx.svc.Cancel(context.Background(), ticketID)
				require.NoError(t, err)
				_, err = fx.svc.StartService(context.Background(), ticketID, "agent-1")
				return err
			},
		},
		{
			name: "cancel twice",
			run: func(t *testing.T, fx *ticketFixture, ticketID string) error {
				_, err := fx.svc.Cancel(context.Background(), ticketID)
				require.NoError(t, err)
				_, err = fx.svc.Cancel(context.Background(), ticketID)
				return err
			},
		},
		{
			name: "cancel after complete",
			run: func(t *testing.T, fx *ticketFixture, ticketID string) error {
				_, err := fx.svc.StartService(context.Background(), ticketID, "agent-1")
				require.NoError(t, err)
				_, err = fx.svc.Complete(context.Background(), ticketID, "")
				require.NoError(t, err)
				_, err = fx.svc.Cancel(context.Background(), ticketID)
				return err
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fx := newTicketFixture(t)
			ticket := fx.request(t, "")
			err := tc.run(t, fx, ticket.ID)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState), "got %v", err)
		})
	}
}

func TestStartServiceRequiresAgent(t *testing.T) {
	fx := newTicketFixture(t)
	ticket := fx.request(t, "")

	_, err := fx.svc.StartService(context.Background(), ticket.ID, "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestNotificationReadFlow(t *testing.T) {
	fx := newTicketFixture(t)
	ticket := fx.request(t, "")

	_, notification, err := fx.svc.Call(context.Background(), ticket.ID)
	require.NoError(t, err)

	unread, err := fx.svc.ListUnreadNotifications(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, unread, 1)

	require.NoError(t, fx.svc.MarkNotificationRead(context.Background(), notification.ID))

	unread, err = fx.svc.ListUnreadNotifications(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, unread)

	err = fx.svc.MarkNotificationRead(context.Background(), "notification-nope")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestGetTicketNotFound(t *testing.T) {
	fx := newTicketFixture(t)

	_, err := fx.svc.GetTicket(context.Background(), "ticket-nope")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
