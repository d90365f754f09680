package repository

import (
	"time"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/tenancy"

	"github.com/google/uuid"
)

// StockMovementData is one day of the stock movement chart.
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type ReportRepository interface {
	GetStockMovement(tx *tenancy.Tx, startDate, endDate time.Time) ([]StockMovementData, error)
	Movements(tx *tenancy.Tx, partID *uuid.UUID, limit int) ([]model.StockMovement, error)
	SalesBetween(tx *tenancy.Tx, startDate, endDate time.Time) ([]model.POSSale, error)
}

type reportRepo struct{}

func NewReportRepo() ReportRepository {
	return &reportRepo{}
}

// GetStockMovement buckets movements per calendar day. Consumption counts as
// outbound; restores and receipts count as inbound.
func (r *reportRepo) GetStockMovement(tx *tenancy.Tx, startDate, endDate time.Time) ([]StockMovementData, error) {
	var movements []model.StockMovement
	err := tx.Query().
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Order("created_at ASC").
		Find(&movements).Error
	if err != nil {
		return nil, apperr.Internal("load stock movements", err)
	}

	results := []StockMovementData{}
	index := map[string]int{}
	for _, m := range movements {
		day := m.CreatedAt.Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			results = append(results, StockMovementData{Date: day})
			i = len(results) - 1
			index[day] = i
		}
		if m.Type == model.MovementConsume {
			results[i].Outbound += m.Quantity
		} else {
			results[i].Inbound += m.Quantity
		}
	}
	return results, nil
}

func (r *reportRepo) Movements(tx *tenancy.Tx, partID *uuid.UUID, limit int) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	q := tx.Query().Order("created_at DESC")
	if partID != nil {
		q = q.Where("part_id = ?", *partID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&movements).Error; err != nil {
		return nil, apperr.Internal("list stock movements", err)
	}
	return movements, nil
}

func (r *reportRepo) SalesBetween(tx *tenancy.Tx, startDate, endDate time.Time) ([]model.POSSale, error) {
	var sales []model.POSSale
	err := tx.Query().
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Find(&sales).Error
	if err != nil {
		return nil, apperr.Internal("load sales", err)
	}
	return sales, nil
}
