package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/turno-service/internal/domain"
)

// ErrDuplicateDocument reports an insert that collided with an existing
// visitor document.
var ErrDuplicateDocument = errors.New("visitor document already registered")

// VisitorRepository defines persistence access for visitors.
type VisitorRepository interface {
	Create(ctx context.Context, visitor *domain.Visitor) error
	GetByID(ctx context.Context, id string) (*domain.Visitor, error)
	GetByDocument(ctx context.Context, document string) (*domain.Visitor, error)
	UpdateCategory(ctx context.Context, id string, category domain.Category) error
}

type visitorRepository struct {
	pool *pgxpool.Pool
}

// NewVisitorRepository returns a Postgres-backed implementation.
func NewVisitorRepository(pool *pgxpool.Pool) VisitorRepository {
	return &visitorRepository{pool: pool}
}

func (r *visitorRepository) Create(ctx context.Context, visitor *domain.Visitor) error {
	const query = `
        INSERT INTO visitors (document, name, phone, email, category)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		visitor.Document,
		visitor.Name,
		visitor.Phone,
		visitor.Email,
		visitor.Category,
	).Scan(&visitor.ID, &visitor.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateDocument
	}
	return err
}

func (r *visitorRepository) GetByID(ctx context.Context, id string) (*domain.Visitor, error) {
	const query = `
        SELECT id, document, name, phone, email, category, created_at
        FROM visitors WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *visitorRepository) GetByDocument(ctx context.Context, document string) (*domain.Visitor, error) {
	const query = `
        SELECT id, document, name, phone, email, category, created_at
        FROM visitors WHERE document=$1`
	return r.fetchSingle(ctx, query, document)
}

func (r *visitorRepository) UpdateCategory(ctx context.Context, id string, category domain.Category) error {
	const query = `UPDATE visitors SET category=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, category, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *visitorRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Visitor, error) {
	var visitor domain.Visitor
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&visitor.ID,
		&visitor.Document,
		&visitor.Name,
		&visitor.Phone,
		&visitor.Email,
		&visitor.Category,
		&visitor.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &visitor, nil
}
