package handler

import (
	"go-repairshop/internal/model"
	"go-repairshop/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SaleHandler struct {
	service service.SaleService
	logger  *zap.Logger
}

func NewSaleHandler(s service.SaleService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{service: s, logger: logger}
}

// CreateSale
// POST /api/v1/pos/sales
func (h *SaleHandler) CreateSale(c *fiber.Ctx) error {
	var req service.CreateSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	sale, err := h.service.CreateSale(c.UserContext(), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Sale completed", "data": sale})
}

// VoidSale
// POST /api/v1/pos/sales/:id/void
func (h *SaleHandler) VoidSale(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	var req service.VoidSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	sale, err := h.service.VoidSale(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Sale voided", "data": sale})
}

func (h *SaleHandler) GetSale(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	sale, err := h.service.GetSale(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(sale)
}

// GetSales
// Query params: status, limit (default 50)
func (h *SaleHandler) GetSales(c *fiber.Ctx) error {
	status := model.SaleStatus(c.Query("status"))
	sales, err := h.service.ListSales(c.UserContext(), status, c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(sales)
}
