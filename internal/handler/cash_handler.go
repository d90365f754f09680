package handler

import (
	"go-repairshop/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CashHandler struct {
	service service.CashRegisterService
	logger  *zap.Logger
}

func NewCashHandler(s service.CashRegisterService, logger *zap.Logger) *CashHandler {
	return &CashHandler{service: s, logger: logger}
}

// Open
// POST /api/v1/cash-register/open
func (h *CashHandler) Open(c *fiber.Ctx) error {
	var req service.OpenRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	reg, err := h.service.Open(c.UserContext(), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Cash register opened", "data": reg})
}

// Current returns the open register with its running balance.
func (h *CashHandler) Current(c *fiber.Ctx) error {
	sum, err := h.service.Current(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(sum)
}

// RecordTransaction
// POST /api/v1/cash-register/transactions
func (h *CashHandler) RecordTransaction(c *fiber.Ctx) error {
	var req service.CashTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	entry, err := h.service.RecordTransaction(c.UserContext(), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Transaction recorded", "data": entry})
}

// Close
// POST /api/v1/cash-register/close
func (h *CashHandler) Close(c *fiber.Ctx) error {
	var req service.CloseRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	sum, err := h.service.Close(c.UserContext(), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Cash register closed", "data": sum})
}

func (h *CashHandler) GetRegisters(c *fiber.Ctx) error {
	regs, err := h.service.List(c.UserContext(), c.QueryInt("limit", 30))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(regs)
}

func (h *CashHandler) GetRegister(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	sum, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(sum)
}

func (h *CashHandler) GetTransactions(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	entries, err := h.service.ListTransactions(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(entries)
}
