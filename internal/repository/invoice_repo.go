package repository

import (
	"fmt"
	"time"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	NextNumber(tx *tenancy.Tx) (string, error)
	Create(tx *tenancy.Tx, inv *model.Invoice) error
	// FindForUpdate loads the invoice with its payments and locks the row, so
	// concurrent payments on one invoice are applied one after another.
	FindForUpdate(tx *tenancy.Tx, id uuid.UUID) (*model.Invoice, error)
	FindByID(tx *tenancy.Tx, id uuid.UUID) (*model.Invoice, error)
	FindAll(tx *tenancy.Tx, status model.InvoiceStatus) ([]model.Invoice, error)
	CreatePayment(tx *tenancy.Tx, p *model.Payment) error
	Payments(tx *tenancy.Tx, invoiceID uuid.UUID) ([]model.Payment, error)
	// Transition moves the invoice to status when it is currently one of from.
	Transition(tx *tenancy.Tx, id uuid.UUID, to model.InvoiceStatus, from []model.InvoiceStatus, extra map[string]interface{}) error
	// MarkOverdue flips every PENDING invoice due before now, across tenants.
	MarkOverdue(db *gorm.DB, now time.Time) (int64, error)
}

type invoiceRepo struct{}

func NewInvoiceRepo() InvoiceRepository {
	return &invoiceRepo{}
}

func (r *invoiceRepo) NextNumber(tx *tenancy.Tx) (string, error) {
	var count int64
	if err := tx.Model(&model.Invoice{}).Unscoped().Count(&count).Error; err != nil {
		return "", apperr.Internal("count invoices", err)
	}
	return fmt.Sprintf("INV-%06d", count+1), nil
}

func (r *invoiceRepo) Create(tx *tenancy.Tx, inv *model.Invoice) error {
	if err := tx.Create(inv); err != nil {
		return err
	}
	for i := range inv.Items {
		inv.Items[i].InvoiceID = inv.ID
		inv.Items[i].CreatedBy = inv.CreatedBy
	}
	if len(inv.Items) > 0 {
		return tx.CreateDetail(&inv.Items)
	}
	return nil
}

func (r *invoiceRepo) FindForUpdate(tx *tenancy.Tx, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	if err := tx.First(&inv, id, tenancy.ForUpdate); err != nil {
		return nil, err
	}
	payments, err := r.Payments(tx, id)
	if err != nil {
		return nil, err
	}
	inv.Payments = payments
	return &inv, nil
}

func (r *invoiceRepo) FindByID(tx *tenancy.Tx, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := tx.First(&inv, id,
		tenancy.Preload("Items"),
		tenancy.Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }),
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) FindAll(tx *tenancy.Tx, status model.InvoiceStatus) ([]model.Invoice, error) {
	var invoices []model.Invoice
	q := tx.Query().Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&invoices).Error; err != nil {
		return nil, apperr.Internal("list invoices", err)
	}
	return invoices, nil
}

func (r *invoiceRepo) CreatePayment(tx *tenancy.Tx, p *model.Payment) error {
	return tx.Create(p)
}

func (r *invoiceRepo) Payments(tx *tenancy.Tx, invoiceID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	err := tx.Query().
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, apperr.Internal("list payments", err)
	}
	return payments, nil
}

func (r *invoiceRepo) Transition(tx *tenancy.Tx, id uuid.UUID, to model.InvoiceStatus, from []model.InvoiceStatus, extra map[string]interface{}) error {
	values := map[string]interface{}{
		"status":     to,
		"updated_by": tx.Actor(),
	}
	for k, v := range extra {
		values[k] = v
	}
	res := tx.Model(&model.Invoice{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if res.Error != nil {
		return apperr.Internal("update invoice status", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.StateConflict(fmt.Sprintf("invoice cannot move to %s", to))
	}
	return nil
}

func (r *invoiceRepo) MarkOverdue(db *gorm.DB, now time.Time) (int64, error) {
	res := db.Model(&model.Invoice{}).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", model.InvoicePending, now).
		Updates(map[string]interface{}{
			"status":     model.InvoiceOverdue,
			"updated_by": "system",
		})
	if res.Error != nil {
		return 0, apperr.Internal("mark overdue invoices", res.Error)
	}
	return res.RowsAffected, nil
}
