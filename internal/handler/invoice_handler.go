package handler

import (
	"go-repairshop/internal/model"
	"go-repairshop/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type InvoiceHandler struct {
	service service.InvoiceService
	logger  *zap.Logger
}

func NewInvoiceHandler(s service.InvoiceService, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{service: s, logger: logger}
}

func (h *InvoiceHandler) CreateInvoice(c *fiber.Ctx) error {
	var req service.CreateInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	inv, err := h.service.CreateInvoice(c.UserContext(), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Invoice created", "data": inv})
}

func (h *InvoiceHandler) GetInvoices(c *fiber.Ctx) error {
	invoices, err := h.service.ListInvoices(c.UserContext(), model.InvoiceStatus(c.Query("status")))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(invoices)
}

func (h *InvoiceHandler) GetInvoice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	inv, err := h.service.GetInvoice(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(inv)
}

// IssueInvoice moves a draft to pending.
// POST /api/v1/invoices/:id/issue
func (h *InvoiceHandler) IssueInvoice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	inv, err := h.service.IssueInvoice(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Invoice issued", "data": inv})
}

func (h *InvoiceHandler) CancelInvoice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	inv, err := h.service.CancelInvoice(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Invoice cancelled", "data": inv})
}

// RegisterPayment
// POST /api/v1/invoices/:id/payments
func (h *InvoiceHandler) RegisterPayment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	var req service.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	res, err := h.service.RegisterPayment(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Payment registered", "data": res})
}

func (h *InvoiceHandler) GetPayments(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	payments, err := h.service.ListPayments(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(payments)
}
