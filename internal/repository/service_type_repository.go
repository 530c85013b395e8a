package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/turno-service/internal/domain"
)

// ServiceTypeRepository reads the catalog of counter procedures. The catalog
// is administered outside this service; the core only consults it.
type ServiceTypeRepository interface {
	GetByID(ctx context.Context, id string) (*domain.ServiceType, error)
	ListActive(ctx context.Context) ([]domain.ServiceType, error)
}

type serviceTypeRepository struct {
	pool *pgxpool.Pool
}

// NewServiceTypeRepository builds the repository.
func NewServiceTypeRepository(pool *pgxpool.Pool) ServiceTypeRepository {
	return &serviceTypeRepository{pool: pool}
}

func (r *serviceTypeRepository) GetByID(ctx context.Context, id string) (*domain.ServiceType, error) {
	const query = `
        SELECT id, name, description, estimated_minutes, is_active, created_at, updated_at
        FROM service_types WHERE id=$1`
	var serviceType domain.ServiceType
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&serviceType.ID,
		&serviceType.Name,
		&serviceType.Description,
		&serviceType.EstimatedMinutes,
		&serviceType.IsActive,
		&serviceType.CreatedAt,
		&serviceType.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &serviceType, nil
}

func (r *serviceTypeRepository) ListActive(ctx context.Context) ([]domain.ServiceType, error) {
	const query = `
        SELECT id, name, description, estimated_minutes, is_active, created_at, updated_at
        FROM service_types WHERE is_active = TRUE
        ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceType
	for rows.Next() {
		var serviceType domain.ServiceType
		if err := rows.Scan(
			&serviceType.ID,
			&serviceType.Name,
			&serviceType.Description,
			&serviceType.EstimatedMinutes,
			&serviceType.IsActive,
			&serviceType.CreatedAt,
			&serviceType.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, serviceType)
	}
	return result, rows.Err()
}
