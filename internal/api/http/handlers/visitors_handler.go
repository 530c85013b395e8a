package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/turno-service/internal/api/dto"
	"github.com/spec-kit/turno-service/internal/domain"
	"github.com/spec-kit/turno-service/internal/service"
	apperrors "github.com/spec-kit/turno-service/pkg/util"
)

// VisitorsHandler serves the visitor registry and the service type catalog.
type VisitorsHandler struct {
	registry *service.RegistryService
}

// NewVisitorsHandler constructs handler.
func NewVisitorsHandler(registry *service.RegistryService) *VisitorsHandler {
	return &VisitorsHandler{registry: registry}
}

// RegisterVisitor POST /visitors.
func (h *VisitorsHandler) RegisterVisitor(c *fiber.Ctx) error {
	var req dto.RegisterVisitorRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	visitor, err := h.registry.RegisterVisitor(c.Context(), service.VisitorInput{
		Document: req.Document,
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Category: req.Category,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": visitorResponse(visitor)})
}

// LookupVisitor GET /visitors/lookup?document=.
func (h *VisitorsHandler) LookupVisitor(c *fiber.Ctx) error {
	visitor, err := h.registry.LookupVisitor(c.Context(), c.Query("document"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": visitorResponse(visitor)})
}

// UpdateCategory PATCH /visitors/:id/category.
func (h *VisitorsHandler) UpdateCategory(c *fiber.Ctx) error {
	var req dto.UpdateVisitorCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.registry.UpdateVisitorCategory(c.Context(), c.Params("id"), req.Category); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": true}})
}

// ListServiceTypes GET /service-types.
func (h *VisitorsHandler) ListServiceTypes(c *fiber.Ctx) error {
	serviceTypes, err := h.registry.ListServiceTypes(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.ServiceTypeResponse, 0, len(serviceTypes))
	for _, st := range serviceTypes {
		items = append(items, dto.ServiceTypeResponse{
			ID:               st.ID,
			Name:             st.Name,
			Description:      st.Description,
			EstimatedMinutes: st.EstimatedMinutes,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func visitorResponse(visitor *domain.Visitor) dto.VisitorResponse {
	return dto.VisitorResponse{
		ID:        visitor.ID,
		Document:  visitor.Document,
		Name:      visitor.Name,
		Phone:     visitor.Phone,
		Email:     visitor.Email,
		Category:  visitor.Category,
		CreatedAt: visitor.CreatedAt,
	}
}
