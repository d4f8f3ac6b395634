package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"capacity-manager/internal/app/service"
	"capacity-manager/internal/transport/httpserver/dto"
	"capacity-manager/internal/validator"
)

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	service   *service.CapacityService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *service.CapacityService, v *validator.Validator, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// Acquisitions handles GET /api/v1/admin/acquisitions
func (h *AdminHandler) Acquisitions(c *fiber.Ctx) error {
	var req dto.AcquisitionsRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid query parameters",
			Code:  "INVALID_PARAMS",
		})
	}
	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	records, err := h.service.History(c.Context(), req.Limit)
	if err != nil {
		h.logger.Error("acquisition history query failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to list acquisitions",
			Code:  "INTERNAL_ERROR",
		})
	}

	acquisitions := make([]dto.AcquisitionResponse, len(records))
	for i, rec := range records {
		acquisitions[i] = dto.FromAuditRecord(rec)
	}

	return c.JSON(fiber.Map{
		"acquisitions": acquisitions,
		"count":        len(acquisitions),
	})
}

// Refresh handles POST /api/v1/admin/refresh
func (h *AdminHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "invalid request body",
				Code:  "INVALID_BODY",
			})
		}
		if err := h.validator.Validate(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error:   "validation failed",
				Code:    "VALIDATION_ERROR",
				Details: err,
			})
		}
	}

	resourceClass := h.service.ResolveClass(req.ResourceClass, nil)

	h.logger.Info("manual snapshot refresh triggered",
		zap.String("resource_class", resourceClass),
	)

	snap, err := h.service.RefreshSnapshot(c.Context(), resourceClass)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: "snapshot refresh failed",
			Code:  "DISCOVERY_ERROR",
		})
	}

	return c.JSON(snapshotResponse(snap))
}
