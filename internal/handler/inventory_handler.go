package handler

import (
	"go-repairshop/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	service service.InventoryService
	logger  *zap.Logger
}

func NewInventoryHandler(s service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{service: s, logger: logger}
}

func (h *InventoryHandler) CreatePart(c *fiber.Ctx) error {
	var req service.PartRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	part, err := h.service.CreatePart(c.UserContext(), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Part created", "data": part})
}

func (h *InventoryHandler) UpdatePart(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req service.PartRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	part, err := h.service.UpdatePart(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Part updated", "data": part})
}

func (h *InventoryHandler) GetParts(c *fiber.Ctx) error {
	if c.QueryBool("low_stock") {
		parts, err := h.service.ListLowStock(c.UserContext())
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return c.JSON(parts)
	}

	parts, err := h.service.ListParts(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(parts)
}

func (h *InventoryHandler) GetPart(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	part, err := h.service.GetPart(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(part)
}

// ReceiveStock books goods received from a supplier.
// POST /api/v1/parts/:id/receive
func (h *InventoryHandler) ReceiveStock(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req service.ReceiveStockRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	part, err := h.service.ReceiveStock(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Stock received", "data": part})
}
