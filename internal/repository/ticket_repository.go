package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/turno-service/internal/domain"
)

// ErrDuplicateNumber signals a ticket-number collision on insert; callers
// re-issue a number and retry.
var ErrDuplicateNumber = errors.New("duplicate ticket number")

// ErrStaleTicket signals that an optimistic precondition no longer held at
// write time (another caller mutated the ticket first).
var ErrStaleTicket = errors.New("ticket changed since read")

// TicketFilter captures staff listing parameters.
type TicketFilter struct {
	State    *domain.TicketState
	Category *domain.Category
	Day      *time.Time
	Limit    int
}

// TicketRepository encapsulates ticket persistence. Updates are atomic per
// record and carry optimistic preconditions on state and call count.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByPrefixAndDate(ctx context.Context, prefix string, day time.Time) ([]domain.Ticket, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	ListActiveOnDate(ctx context.Context, day time.Time, serviceTypeIDs []string) ([]domain.Ticket, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]domain.Ticket, error)
	ListRecent(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateState(ctx context.Context, ticket *domain.Ticket, expected domain.TicketState) error
	IncrementCallCount(ctx context.Context, ticket *domain.Ticket, expectedCalls int) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, number, visitor_id, service_type_id, category, state, agent_id,
               call_count, notes, requested_at, service_started_at, completed_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (number, visitor_id, service_type_id, category, state, call_count, notes, requested_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.Number,
		ticket.VisitorID,
		ticket.ServiceTypeID,
		ticket.Category,
		ticket.State,
		ticket.CallCount,
		ticket.Notes,
		ticket.RequestedAt,
	).Scan(&ticket.ID, &ticket.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateNumber
		}
		return err
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.VisitorID,
		&ticket.ServiceTypeID,
		&ticket.Category,
		&ticket.State,
		&ticket.AgentID,
		&ticket.CallCount,
		&ticket.Notes,
		&ticket.RequestedAt,
		&ticket.ServiceStartedAt,
		&ticket.CompletedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByPrefixAndDate(ctx context.Context, prefix string, day time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE number LIKE $1 AND requested_at >= $2 AND requested_at < $3
        ORDER BY number`
	start, end := dayBounds(day)
	rows, err := r.pool.Query(ctx, query, prefix+"%", start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM tickets WHERE number=$1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, number).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ticketRepository) ListActiveOnDate(ctx context.Context, day time.Time, serviceTypeIDs []string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE requested_at >= $1 AND requested_at < $2 AND state = ANY($3)`
	start, end := dayBounds(day)
	args := []any{start, end, []string{string(domain.TicketStatePending), string(domain.TicketStateInService)}}
	if len(serviceTypeIDs) > 0 {
		args = append(args, serviceTypeIDs)
		query += fmt.Sprintf(" AND service_type_id = ANY($%d)", len(args))
	}
	query += " ORDER BY requested_at"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListInRange(ctx context.Context, from, to time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE requested_at >= $1 AND requested_at < $2
        ORDER BY requested_at`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListRecent(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{}
	args := []any{}

	if filter.State != nil {
		args = append(args, *filter.State)
		clauses = append(clauses, fmt.Sprintf("state=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.Day != nil {
		start, end := dayBounds(*filter.Day)
		args = append(args, start)
		clauses = append(clauses, fmt.Sprintf("requested_at >= $%d", len(args)))
		args = append(args, end)
		clauses = append(clauses, fmt.Sprintf("requested_at < $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY requested_at DESC LIMIT %d", limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// UpdateState writes the mutated ticket guarded by the expected current
// state. Zero affected rows means the precondition no longer held.
func (r *ticketRepository) UpdateState(ctx context.Context, ticket *domain.Ticket, expected domain.TicketState) error {
	const query = `
        UPDATE tickets SET state=$1, agent_id=$2, notes=$3, service_started_at=$4, completed_at=$5, updated_at=NOW()
        WHERE id=$6 AND state=$7`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.State,
		ticket.AgentID,
		ticket.Notes,
		ticket.ServiceStartedAt,
		ticket.CompletedAt,
		ticket.ID,
		expected,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleTicket
	}
	return nil
}

// IncrementCallCount bumps the call counter guarded by the expected current
// count and a non-terminal state.
func (r *ticketRepository) IncrementCallCount(ctx context.Context, ticket *domain.Ticket, expectedCalls int) error {
	const query = `
        UPDATE tickets SET call_count = call_count + 1, updated_at=NOW()
        WHERE id=$1 AND call_count=$2 AND state = ANY($3)`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.ID,
		expectedCalls,
		[]string{string(domain.TicketStatePending), string(domain.TicketStateInService)},
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleTicket
	}
	ticket.CallCount = expectedCalls + 1
	return nil
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	start := day.UTC().Truncate(24 * time.Hour)
	return start, start.Add(24 * time.Hour)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Number,
			&ticket.VisitorID,
			&ticket.ServiceTypeID,
			&ticket.Category,
			&ticket.State,
			&ticket.AgentID,
			&ticket.CallCount,
			&ticket.Notes,
			&ticket.RequestedAt,
			&ticket.ServiceStartedAt,
			&ticket.CompletedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
