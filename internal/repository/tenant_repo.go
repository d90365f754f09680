package repository

import (
	"errors"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/tenancy"

	"gorm.io/gorm"
)

type TenantRepository interface {
	// Current loads the settings of the session's tenant.
	Current(tx *tenancy.Tx) (*model.Tenant, error)
	Create(db *gorm.DB, tenant *model.Tenant) error
}

type tenantRepo struct{}

func NewTenantRepo() TenantRepository {
	return &tenantRepo{}
}

func (r *tenantRepo) Current(tx *tenancy.Tx) (*model.Tenant, error) {
	var tenant model.Tenant
	err := tx.Detail().Where("id = ?", tx.TenantID()).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("tenant")
	}
	if err != nil {
		return nil, apperr.Internal("load tenant", err)
	}
	return &tenant, nil
}

func (r *tenantRepo) Create(db *gorm.DB, tenant *model.Tenant) error {
	return db.Create(tenant).Error
}
