package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/turno-service/internal/domain"
	"github.com/spec-kit/turno-service/internal/repository"
	apperrors "github.com/spec-kit/turno-service/pkg/util"
)

// RegistryService manages the visitor registry and the read-only service
// type catalog consulted before a turn request.
type RegistryService struct {
	visitors     repository.VisitorRepository
	serviceTypes repository.ServiceTypeRepository
	policy       *domain.CategoryPolicy
}

// NewRegistryService constructs the service.
func NewRegistryService(visitors repository.VisitorRepository, serviceTypes repository.ServiceTypeRepository, policy *domain.CategoryPolicy) *RegistryService {
	return &RegistryService{visitors: visitors, serviceTypes: serviceTypes, policy: policy}
}

// VisitorInput describes a registration request.
type VisitorInput struct {
	Document string
	Name     string
	Phone    string
	Email    string
	Category domain.Category
}

// RegisterVisitor creates a visitor keyed by national id document. An empty
// category defaults to the lowest-priority one.
func (s *RegistryService) RegisterVisitor(ctx context.Context, input VisitorInput) (*domain.Visitor, error) {
	document := strings.TrimSpace(input.Document)
	name := strings.TrimSpace(input.Name)
	if document == "" || name == "" {
		return nil, apperrors.NewValidationError("document and name required", nil)
	}

	category := input.Category
	if category == "" {
		category = s.policy.Categories()[len(s.policy.Categories())-1]
	}
	if !s.policy.Known(category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": string(category)})
	}

	visitor := &domain.Visitor{
		Document: document,
		Name:     name,
		Phone:    strings.TrimSpace(input.Phone),
		Email:    strings.TrimSpace(input.Email),
		Category: category,
	}
	if err := s.visitors.Create(ctx, visitor); err != nil {
		if errors.Is(err, repository.ErrDuplicateDocument) {
			return nil, apperrors.NewConflict("visitor already registered", map[string]any{"document": document})
		}
		return nil, err
	}
	return visitor, nil
}

// LookupVisitor resolves a visitor by document.
func (s *RegistryService) LookupVisitor(ctx context.Context, document string) (*domain.Visitor, error) {
	document = strings.TrimSpace(document)
	if document == "" {
		return nil, apperrors.NewValidationError("document required", nil)
	}
	visitor, err := s.visitors.GetByDocument(ctx, document)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("visitor", map[string]any{"document": document})
		}
		return nil, err
	}
	return visitor, nil
}

// UpdateVisitorCategory changes a visitor's registered category. Existing
// tickets keep the category they were issued under.
func (s *RegistryService) UpdateVisitorCategory(ctx context.Context, visitorID string, category domain.Category) error {
	if !s.policy.Known(category) {
		return apperrors.NewValidationError("unknown category", map[string]any{"category": string(category)})
	}
	err := s.visitors.UpdateCategory(ctx, visitorID, category)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("visitor", map[string]any{"visitor_id": visitorID})
	}
	return err
}

// ListServiceTypes returns the active catalog.
func (s *RegistryService) ListServiceTypes(ctx context.Context) ([]domain.ServiceType, error) {
	return s.serviceTypes.ListActive(ctx)
}
