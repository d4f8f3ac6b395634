// Package handler provides HTTP handlers for the API.
package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"capacity-manager/internal/app/service"
	"capacity-manager/internal/domain"
	"capacity-manager/internal/transport/httpserver/dto"
	"capacity-manager/internal/validator"
)

// CapacityHandler handles capacity-related HTTP requests.
type CapacityHandler struct {
	service   *service.CapacityService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewCapacityHandler creates a new CapacityHandler.
func NewCapacityHandler(svc *service.CapacityService, v *validator.Validator, logger *zap.Logger) *CapacityHandler {
	return &CapacityHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// Invoke handles POST /api/v1/capacity. Validation failures return 400 with
// no side effects: the lease is never touched for a malformed request.
func (h *CapacityHandler) Invoke(c *fiber.Ctx) error {
	var req dto.InvokeRequest
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

	resourceClass := h.service.ResolveClass(req.ResourceClass, req.Labels)

	if req.ReadOnly() {
		return h.check(c, req, resourceClass)
	}

	switch req.Action {
	case dto.ActionEnsure, dto.ActionAcquire:
		return h.ensure(c, req, resourceClass)
	default:
		// Unreachable behind the oneof validation; kept so a routing change
		// can never silently treat an unknown action as ensure.
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: domain.ErrUnknownAction.Error(),
			Code:  "UNKNOWN_ACTION",
		})
	}
}

// check serves the read-only actions.
func (h *CapacityHandler) check(c *fiber.Ctx, req dto.InvokeRequest, resourceClass string) error {
	blocks, err := h.service.Check(c.Context(), resourceClass, req.Zone)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: "reservation query failed",
			Code:  "DISCOVERY_ERROR",
		})
	}

	resp := dto.InvokeResponse{
		StatusCode:           fiber.StatusOK,
		Action:               req.Action,
		ResourceClass:        resourceClass,
		Zone:                 req.Zone,
		ActiveCapacityBlocks: blockResponses(blocks),
	}
	resp.HasActive = len(resp.ActiveCapacityBlocks) > 0

	return c.JSON(resp)
}

// ensure runs the ensure-or-acquire workflow.
func (h *CapacityHandler) ensure(c *fiber.Ctx, req dto.InvokeRequest, resourceClass string) error {
	outcome := h.service.Ensure(c.Context(), resourceClass, req.DurationHours, req.Zone)

	resp := dto.InvokeResponse{
		Action:        req.Action,
		ResourceClass: resourceClass,
		Zone:          req.Zone,
		Result:        string(outcome.Result),
		ReservationID: outcome.ReservationID,
	}

	if outcome.Block != nil {
		// Any reservation on the books counts: a pending or payment-pending
		// block is capacity the fleet can rely on, same as an active one.
		block := dto.FromDomainBlock(outcome.Block)
		resp.CapacityBlock = &block
		resp.ActiveCapacityBlocks = []dto.CapacityBlockResponse{block}
		resp.HasActive = true
	}
	if resp.ActiveCapacityBlocks == nil {
		resp.ActiveCapacityBlocks = []dto.CapacityBlockResponse{}
	}
	if outcome.Offering != nil {
		offering := dto.FromDomainOffering(outcome.Offering)
		resp.Offering = &offering
	}
	if outcome.Err != nil {
		resp.Error = outcome.Err.Error()
	}

	resp.StatusCode = statusForResult(outcome.Result)

	return c.Status(resp.StatusCode).JSON(resp)
}

// Status handles GET /api/v1/capacity/status, served from the snapshot cache.
func (h *CapacityHandler) Status(c *fiber.Ctx) error {
	var req dto.StatusRequest
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

	resourceClass := h.service.ResolveClass(req.ResourceClass, nil)

	snap, err := h.service.Status(c.Context(), resourceClass)
	if err != nil {
		h.logger.Error("status snapshot failed",
			zap.String("resource_class", resourceClass),
			zap.Error(err),
		)

		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: "status query failed",
			Code:  "DISCOVERY_ERROR",
		})
	}

	return c.JSON(snapshotResponse(snap))
}

func snapshotResponse(snap *service.Snapshot) dto.StatusResponse {
	blocks := make([]dto.CapacityBlockResponse, len(snap.Blocks))
	for i := range snap.Blocks {
		blocks[i] = dto.FromDomainBlock(&snap.Blocks[i])
	}

	return dto.StatusResponse{
		ResourceClass: snap.ResourceClass,
		Blocks:        blocks,
		HasActive:     snap.HasActive,
		RefreshedAt:   snap.RefreshedAt.Format(time.RFC3339),
	}
}

// blockResponses converts every discovered reservation. The directory already
// scopes results to active, pending and payment-pending states, and all of
// them count as capacity on the books.
func blockResponses(blocks []domain.CapacityBlock) []dto.CapacityBlockResponse {
	out := []dto.CapacityBlockResponse{}
	for i := range blocks {
		out = append(out, dto.FromDomainBlock(&blocks[i]))
	}

	return out
}

// statusForResult maps a workflow result to an HTTP status. Every terminal
// state except failed is a successful, well-understood answer.
func statusForResult(result domain.EnsureResult) int {
	switch result {
	case domain.ResultFailed:
		return fiber.StatusBadGateway
	case domain.ResultLocked:
		return fiber.StatusConflict
	default:
		return fiber.StatusOK
	}
}
