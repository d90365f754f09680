package repository

import (
	"errors"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PartRepository interface {
	Create(tx *tenancy.Tx, part *model.Part) error
	FindAll(tx *tenancy.Tx) ([]model.Part, error)
	FindByID(tx *tenancy.Tx, id uuid.UUID) (*model.Part, error)
	FindByIDs(tx *tenancy.Tx, ids []uuid.UUID) (map[uuid.UUID]*model.Part, error)
	FindBySKU(tx *tenancy.Tx, sku string) (*model.Part, error)
	FindLowStock(tx *tenancy.Tx) ([]model.Part, error)
	// UpdateDetails writes everything except quantity, which belongs to the stock ledger.
	UpdateDetails(tx *tenancy.Tx, part *model.Part) error
}

type partRepo struct{}

func NewPartRepo() PartRepository {
	return &partRepo{}
}

func (r *partRepo) Create(tx *tenancy.Tx, part *model.Part) error {
	return tx.Create(part)
}

func (r *partRepo) FindAll(tx *tenancy.Tx) ([]model.Part, error) {
	var parts []model.Part
	if err := tx.Query().Order("name ASC").Find(&parts).Error; err != nil {
		return nil, apperr.Internal("list parts", err)
	}
	return parts, nil
}

func (r *partRepo) FindByID(tx *tenancy.Tx, id uuid.UUID) (*model.Part, error) {
	var part model.Part
	if err := tx.First(&part, id); err != nil {
		return nil, err
	}
	return &part, nil
}

// FindByIDs loads every requested part. A missing id or one owned by another
// tenant fails the whole lookup.
func (r *partRepo) FindByIDs(tx *tenancy.Tx, ids []uuid.UUID) (map[uuid.UUID]*model.Part, error) {
	var parts []model.Part
	if len(ids) > 0 {
		if err := tx.Query().Where("id IN ?", ids).Find(&parts).Error; err != nil {
			return nil, apperr.Internal("load parts", err)
		}
	}

	byID := make(map[uuid.UUID]*model.Part, len(parts))
	for i := range parts {
		byID[parts[i].ID] = &parts[i]
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			if err := tx.Verify(&model.Part{}, id); err != nil {
				return nil, err
			}
			return nil, apperr.NotFound("part")
		}
	}
	return byID, nil
}

func (r *partRepo) FindBySKU(tx *tenancy.Tx, sku string) (*model.Part, error) {
	var part model.Part
	err := tx.Query().Where("sku = ?", sku).First(&part).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("part")
	}
	if err != nil {
		return nil, apperr.Internal("find part by sku", err)
	}
	return &part, nil
}

func (r *partRepo) FindLowStock(tx *tenancy.Tx) ([]model.Part, error) {
	var parts []model.Part
	if err := tx.Query().Where("quantity <= min_stock").Order("quantity ASC").Find(&parts).Error; err != nil {
		return nil, apperr.Internal("list low stock parts", err)
	}
	return parts, nil
}

func (r *partRepo) UpdateDetails(tx *tenancy.Tx, part *model.Part) error {
	err := tx.Model(&model.Part{}).
		Where("id = ?", part.ID).
		Updates(map[string]interface{}{
			"sku":        part.SKU,
			"name":       part.Name,
			"min_stock":  part.MinStock,
			"unit":       part.Unit,
			"cost":       part.Cost,
			"price":      part.Price,
			"updated_by": tx.Actor(),
		}).Error
	if err != nil {
		return apperr.Internal("update part", err)
	}
	return nil
}
