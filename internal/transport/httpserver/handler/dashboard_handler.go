package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"capacity-manager/internal/app/service"
	"capacity-manager/internal/transport/httpserver/dto"
)

// DashboardHandler handles dashboard-related HTTP requests.
type DashboardHandler struct {
	service *service.CapacityService
	logger  *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(svc *service.CapacityService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: svc,
		logger:  logger,
	}
}

// Render handles GET /dashboard
// Renders the operator dashboard using Fiber's template engine. Snapshot and
// history failures degrade to an empty view rather than a 500.
func (h *DashboardHandler) Render(c *fiber.Ctx) error {
	resourceClass := h.service.ResolveClass("", nil)

	var blocks []dto.CapacityBlockResponse
	hasActive := false
	refreshedAt := ""

	snap, err := h.service.Status(c.Context(), resourceClass)
	if err != nil {
		h.logger.Warn("dashboard snapshot unavailable", zap.Error(err))
	} else {
		resp := snapshotResponse(snap)
		blocks = resp.Blocks
		hasActive = resp.HasActive
		refreshedAt = resp.RefreshedAt
	}

	var acquisitions []dto.AcquisitionResponse
	records, err := h.service.History(c.Context(), 20)
	if err != nil {
		h.logger.Warn("dashboard history unavailable", zap.Error(err))
	} else {
		for _, rec := range records {
			acquisitions = append(acquisitions, dto.FromAuditRecord(rec))
		}
	}

	counts, err := h.service.AcquisitionCounts(c.Context())
	if err != nil {
		h.logger.Warn("dashboard acquisition counts unavailable", zap.Error(err))
		counts = nil
	}

	return c.Render("pages/dashboard", fiber.Map{
		"Title":         "Capacity Manager",
		"ResourceClass": resourceClass,
		"Blocks":        blocks,
		"HasActive":     hasActive,
		"RefreshedAt":   refreshedAt,
		"Acquisitions":  acquisitions,
		"Counts":        counts,
	}, "layouts/base")
}
