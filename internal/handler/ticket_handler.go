package handler

import (
	"go-repairshop/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TicketHandler serves customers, tickets, part usages and templates.
type TicketHandler struct {
	tickets   service.TicketService
	usages    service.UsageService
	templates service.TemplateService
	logger    *zap.Logger
}

func NewTicketHandler(tickets service.TicketService, usages service.UsageService, templates service.TemplateService, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{tickets: tickets, usages: usages, templates: templates, logger: logger}
}

func (h *TicketHandler) CreateCustomer(c *fiber.Ctx) error {
	var req service.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	customer, err := h.tickets.CreateCustomer(c.UserContext(), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Customer created", "data": customer})
}

func (h *TicketHandler) GetCustomers(c *fiber.Ctx) error {
	customers, err := h.tickets.ListCustomers(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(customers)
}

func (h *TicketHandler) CreateTicket(c *fiber.Ctx) error {
	var req service.TicketRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Ticket created", "data": ticket})
}

// CreateFromTemplate
// POST /api/v1/tickets/from-template
func (h *TicketHandler) CreateFromTemplate(c *fiber.Ctx) error {
	var req service.FromTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	ticket, err := h.templates.CreateTicketFromTemplate(c.UserContext(), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Ticket created", "data": ticket})
}

func (h *TicketHandler) GetTicket(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(ticket)
}

// AddUsage
// POST /api/v1/tickets/:id/parts
func (h *TicketHandler) AddUsage(c *fiber.Ctx) error {
	ticketID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	var req service.AddUsageRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	usage, err := h.usages.AddUsage(c.UserContext(), ticketID, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Part added", "data": usage})
}

func (h *TicketHandler) GetUsages(c *fiber.Ctx) error {
	ticketID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	usages, err := h.usages.ListUsages(c.UserContext(), ticketID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(usages)
}

// UpdateUsage
// PUT /api/v1/usages/:id
func (h *TicketHandler) UpdateUsage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	var req service.UpdateUsageRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	usage, err := h.usages.UpdateUsage(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Part usage updated", "data": usage})
}

// RemoveUsage
// DELETE /api/v1/usages/:id
func (h *TicketHandler) RemoveUsage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if err := h.usages.RemoveUsage(c.UserContext(), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Part usage removed"})
}

func (h *TicketHandler) CreateTemplate(c *fiber.Ctx) error {
	var req service.TemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	tmpl, err := h.templates.CreateTemplate(c.UserContext(), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Template created", "data": tmpl})
}

func (h *TicketHandler) GetTemplates(c *fiber.Ctx) error {
	templates, err := h.templates.ListTemplates(c.UserContext(), c.QueryBool("active", false))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(templates)
}
