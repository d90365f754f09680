package service

import (
	"context"
	"time"

	"go-repairshop/internal/model"
	"go-repairshop/internal/repository"
	"go-repairshop/internal/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReportService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetStats(ctx context.Context) (*DashboardStats, error)
	GetFinancialSummary(ctx context.Context, startDate, endDate time.Time) (*FinancialSummary, error)
	ListMovements(ctx context.Context, partID *uuid.UUID, limit int) ([]model.StockMovement, error)
}

type DashboardStats struct {
	TotalParts     int             `json:"total_parts"`
	LowStockCount  int             `json:"low_stock_count"`
	StockValuation decimal.Decimal `json:"stock_valuation"`
	RegisterOpen   bool            `json:"register_open"`
}

type FinancialSummary struct {
	SalesCount  int             `json:"sales_count"`
	SalesTotal  decimal.Decimal `json:"sales_total"`
	VoidedCount int             `json:"voided_count"`
	VoidedTotal decimal.Decimal `json:"voided_total"`
	TaxTotal    decimal.Decimal `json:"tax_total"`
}

type reportService struct {
	runner    *tenancy.Runner
	reports   repository.ReportRepository
	parts     repository.PartRepository
	registers repository.CashRegisterRepository
}

func NewReportService(runner *tenancy.Runner, reports repository.ReportRepository, parts repository.PartRepository, registers repository.CashRegisterRepository) ReportService {
	return &reportService{runner: runner, reports: reports, parts: parts, registers: registers}
}

func (s *reportService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 {
		days = 7
	}
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	var data []repository.StockMovementData
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) (err error) {
		data, err = s.reports.GetStockMovement(tx, startDate, endDate)
		return err
	})
	return data, err
}

// GetStats values stock at cost.
func (s *reportService) GetStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{StockValuation: decimal.Zero}
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		parts, err := s.parts.FindAll(tx)
		if err != nil {
			return err
		}
		stats.TotalParts = len(parts)
		for i := range parts {
			if parts[i].IsLowStock() {
				stats.LowStockCount++
			}
			stats.StockValuation = stats.StockValuation.Add(parts[i].Cost.Mul(decimal.NewFromInt(int64(parts[i].Quantity))))
		}

		if _, err := s.registers.FindOpen(tx); err == nil {
			stats.RegisterOpen = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *reportService) GetFinancialSummary(ctx context.Context, startDate, endDate time.Time) (*FinancialSummary, error) {
	sum := &FinancialSummary{SalesTotal: decimal.Zero, VoidedTotal: decimal.Zero, TaxTotal: decimal.Zero}
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		sales, err := s.reports.SalesBetween(tx, startDate, endDate)
		if err != nil {
			return err
		}
		for _, sale := range sales {
			if sale.Status == model.SaleVoided {
				sum.VoidedCount++
				sum.VoidedTotal = sum.VoidedTotal.Add(sale.Total)
				continue
			}
			sum.SalesCount++
			sum.SalesTotal = sum.SalesTotal.Add(sale.Total)
			sum.TaxTotal = sum.TaxTotal.Add(sale.TaxAmount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

func (s *reportService) ListMovements(ctx context.Context, partID *uuid.UUID, limit int) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) (err error) {
		movements, err = s.reports.Movements(tx, partID, limit)
		return err
	})
	return movements, err
}
