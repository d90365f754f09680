package repository

import (
	"fmt"
	"time"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/tenancy"

	"github.com/google/uuid"
)

type SaleRepository interface {
	NextNumber(tx *tenancy.Tx) (string, error)
	// Create inserts the sale header followed by its items and payments.
	Create(tx *tenancy.Tx, sale *model.POSSale) error
	FindByID(tx *tenancy.Tx, id uuid.UUID, opts ...tenancy.QueryOption) (*model.POSSale, error)
	FindAll(tx *tenancy.Tx, status model.SaleStatus, limit int) ([]model.POSSale, error)
	// MarkVoided flips a COMPLETED sale to VOIDED. It matches nothing once the
	// sale left COMPLETED, so a second void loses the race cleanly.
	MarkVoided(tx *tenancy.Tx, id uuid.UUID, reason string, at time.Time) error
}

type saleRepo struct{}

func NewSaleRepo() SaleRepository {
	return &saleRepo{}
}

func (r *saleRepo) NextNumber(tx *tenancy.Tx) (string, error) {
	var count int64
	if err := tx.Model(&model.POSSale{}).Unscoped().Count(&count).Error; err != nil {
		return "", apperr.Internal("count sales", err)
	}
	return fmt.Sprintf("POS-%06d", count+1), nil
}

func (r *saleRepo) Create(tx *tenancy.Tx, sale *model.POSSale) error {
	if err := tx.Create(sale); err != nil {
		return err
	}
	for i := range sale.Items {
		sale.Items[i].SaleID = sale.ID
		sale.Items[i].CreatedBy = sale.CreatedBy
	}
	for i := range sale.Payments {
		sale.Payments[i].SaleID = sale.ID
		sale.Payments[i].CreatedBy = sale.CreatedBy
	}
	if len(sale.Items) > 0 {
		if err := tx.CreateDetail(&sale.Items); err != nil {
			return err
		}
	}
	if len(sale.Payments) > 0 {
		if err := tx.CreateDetail(&sale.Payments); err != nil {
			return err
		}
	}
	return nil
}

func (r *saleRepo) FindByID(tx *tenancy.Tx, id uuid.UUID, opts ...tenancy.QueryOption) (*model.POSSale, error) {
	var sale model.POSSale
	opts = append(opts, tenancy.Preload("Items"), tenancy.Preload("Payments"))
	if err := tx.First(&sale, id, opts...); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) FindAll(tx *tenancy.Tx, status model.SaleStatus, limit int) ([]model.POSSale, error) {
	var sales []model.POSSale
	q := tx.Query().Preload("Items").Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&sales).Error; err != nil {
		return nil, apperr.Internal("list sales", err)
	}
	return sales, nil
}

func (r *saleRepo) MarkVoided(tx *tenancy.Tx, id uuid.UUID, reason string, at time.Time) error {
	res := tx.Model(&model.POSSale{}).
		Where("id = ? AND status = ?", id, model.SaleCompleted).
		Updates(map[string]interface{}{
			"status":      model.SaleVoided,
			"void_reason": reason,
			"voided_at":   at,
			"voided_by":   tx.Actor(),
			"updated_by":  tx.Actor(),
		})
	if res.Error != nil {
		return apperr.Internal("void sale", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.StateConflict("sale is not completed")
	}
	return nil
}
