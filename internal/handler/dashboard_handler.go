package handler

import (
	"strconv"
	"time"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	service service.ReportService
	logger  *zap.Logger
}

func NewDashboardHandler(s service.ReportService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{service: s, logger: logger}
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7)
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", "7"))
	if err != nil || days <= 0 {
		days = 7
	}

	data, err := h.service.GetStockMovement(c.UserContext(), days)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetStats(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(stats)
}

// GetFinancialSummary totals sales in a date range.
// Query params: from, to (YYYY-MM-DD, default last 30 days)
func (h *DashboardHandler) GetFinancialSummary(c *fiber.Ctx) error {
	end := time.Now()
	start := end.AddDate(0, 0, -30)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return respondError(c, h.logger, apperr.Validation("from must be YYYY-MM-DD"))
		}
		start = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return respondError(c, h.logger, apperr.Validation("to must be YYYY-MM-DD"))
		}
		end = t.AddDate(0, 0, 1)
	}

	sum, err := h.service.GetFinancialSummary(c.UserContext(), start, end)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(sum)
}

// GetMovements lists the stock movement log, optionally for one part.
func (h *DashboardHandler) GetMovements(c *fiber.Ctx) error {
	var partID *uuid.UUID
	if v := c.Query("part_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return respondError(c, h.logger, apperr.Validation("invalid part_id"))
		}
		partID = &id
	}

	movements, err := h.service.ListMovements(c.UserContext(), partID, c.QueryInt("limit", 100))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(movements)
}
