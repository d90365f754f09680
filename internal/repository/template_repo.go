package repository

import (
	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/tenancy"

	"github.com/google/uuid"
)

type TemplateRepository interface {
	Create(tx *tenancy.Tx, tmpl *model.ServiceTemplate) error
	CreateDefaultPart(tx *tenancy.Tx, dp *model.TemplateDefaultPart) error
	// FindByID loads the template with its default parts and their current quantities.
	FindByID(tx *tenancy.Tx, id uuid.UUID) (*model.ServiceTemplate, error)
	FindAll(tx *tenancy.Tx, activeOnly bool) ([]model.ServiceTemplate, error)
}

type templateRepo struct{}

func NewTemplateRepo() TemplateRepository {
	return &templateRepo{}
}

func (r *templateRepo) Create(tx *tenancy.Tx, tmpl *model.ServiceTemplate) error {
	return tx.Create(tmpl)
}

func (r *templateRepo) CreateDefaultPart(tx *tenancy.Tx, dp *model.TemplateDefaultPart) error {
	return tx.Create(dp)
}

func (r *templateRepo) FindByID(tx *tenancy.Tx, id uuid.UUID) (*model.ServiceTemplate, error) {
	var tmpl model.ServiceTemplate
	if err := tx.First(&tmpl, id, tenancy.Preload("DefaultParts.Part")); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (r *templateRepo) FindAll(tx *tenancy.Tx, activeOnly bool) ([]model.ServiceTemplate, error) {
	var templates []model.ServiceTemplate
	q := tx.Query().Preload("DefaultParts.Part").Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&templates).Error; err != nil {
		return nil, apperr.Internal("list templates", err)
	}
	return templates, nil
}
