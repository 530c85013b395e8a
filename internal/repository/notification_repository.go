package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/turno-service/internal/domain"
)

// NotificationRepository persists call announcements for tickets.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Notification, error)
	ListUnreadByTicket(ctx context.Context, ticketID string) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates the repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (ticket_id, message, read_flag)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		notification.TicketID,
		notification.Message,
		notification.Read,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *notificationRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Notification, error) {
	const query = `
        SELECT id, ticket_id, message, read_flag, created_at
        FROM notifications WHERE ticket_id=$1
        ORDER BY created_at DESC`
	return r.list(ctx, query, ticketID)
}

func (r *notificationRepository) ListUnreadByTicket(ctx context.Context, ticketID string) ([]domain.Notification, error) {
	const query = `
        SELECT id, ticket_id, message, read_flag, created_at
        FROM notifications WHERE ticket_id=$1 AND read_flag = FALSE
        ORDER BY created_at DESC`
	return r.list(ctx, query, ticketID)
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	const query = `UPDATE notifications SET read_flag = TRUE WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Notification, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var notification domain.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.TicketID,
			&notification.Message,
			&notification.Read,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, notification)
	}
	return result, rows.Err()
}
