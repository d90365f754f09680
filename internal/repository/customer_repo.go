package repository

import (
	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/tenancy"

	"github.com/google/uuid"
)

type CustomerRepository interface {
	Create(tx *tenancy.Tx, customer *model.Customer) error
	FindByID(tx *tenancy.Tx, id uuid.UUID) (*model.Customer, error)
	FindAll(tx *tenancy.Tx) ([]model.Customer, error)
}

type customerRepo struct{}

func NewCustomerRepo() CustomerRepository {
	return &customerRepo{}
}

func (r *customerRepo) Create(tx *tenancy.Tx, customer *model.Customer) error {
	return tx.Create(customer)
}

func (r *customerRepo) FindByID(tx *tenancy.Tx, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := tx.First(&customer, id); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) FindAll(tx *tenancy.Tx) ([]model.Customer, error) {
	var customers []model.Customer
	if err := tx.Query().Order("name ASC").Find(&customers).Error; err != nil {
		return nil, apperr.Internal("list customers", err)
	}
	return customers, nil
}
