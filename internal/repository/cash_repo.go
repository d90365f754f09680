package repository

import (
	"errors"
	"time"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CloseRecord is what a register stores when it is counted out.
type CloseRecord struct {
	Expected    decimal.Decimal
	Counted     decimal.Decimal
	Discrepancy decimal.Decimal
	Notes       string
	At          time.Time
}

type CashRegisterRepository interface {
	// Create inserts an open register. A second open register for the same
	// tenant violates idx_cash_registers_open_slot.
	Create(tx *tenancy.Tx, reg *model.CashRegister) error
	FindByID(tx *tenancy.Tx, id uuid.UUID) (*model.CashRegister, error)
	// FindOpen returns the tenant's open register or ErrNoOpenRegister.
	FindOpen(tx *tenancy.Tx) (*model.CashRegister, error)
	// Claim touches the register row while it is still open. On postgres this
	// holds the row lock until commit, serializing appends against Close.
	Claim(tx *tenancy.Tx, id uuid.UUID) error
	Append(tx *tenancy.Tx, entry *model.CashTransaction) error
	Transactions(tx *tenancy.Tx, registerID uuid.UUID) ([]model.CashTransaction, error)
	Close(tx *tenancy.Tx, id uuid.UUID, rec CloseRecord) error
	FindAll(tx *tenancy.Tx, limit int) ([]model.CashRegister, error)
}

type cashRegisterRepo struct{}

func NewCashRegisterRepo() CashRegisterRepository {
	return &cashRegisterRepo{}
}

func (r *cashRegisterRepo) Create(tx *tenancy.Tx, reg *model.CashRegister) error {
	open := true
	reg.OpenSlot = &open
	reg.IsOpen = true
	err := tx.Create(reg)
	if apperr.IsUniqueViolation(err) {
		return apperr.ErrRegisterAlreadyOpen
	}
	return err
}

func (r *cashRegisterRepo) FindByID(tx *tenancy.Tx, id uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	if err := tx.First(&reg, id); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *cashRegisterRepo) FindOpen(tx *tenancy.Tx) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := tx.Query().Where("is_open = ?", true).First(&reg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNoOpenRegister
	}
	if err != nil {
		return nil, apperr.Internal("load open register", err)
	}
	return &reg, nil
}

func (r *cashRegisterRepo) Claim(tx *tenancy.Tx, id uuid.UUID) error {
	res := tx.Model(&model.CashRegister{}).
		Where("id = ? AND is_open = ?", id, true).
		Update("updated_by", tx.Actor())
	if res.Error != nil {
		return apperr.Internal("claim register", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.StateConflict("cash register is closed")
	}
	return nil
}

func (r *cashRegisterRepo) Append(tx *tenancy.Tx, entry *model.CashTransaction) error {
	entry.CreatedBy = tx.Actor()
	return tx.Create(entry)
}

func (r *cashRegisterRepo) Transactions(tx *tenancy.Tx, registerID uuid.UUID) ([]model.CashTransaction, error) {
	var entries []model.CashTransaction
	err := tx.Query().
		Where("cash_register_id = ?", registerID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, apperr.Internal("list cash transactions", err)
	}
	return entries, nil
}

func (r *cashRegisterRepo) Close(tx *tenancy.Tx, id uuid.UUID, rec CloseRecord) error {
	fields := map[string]interface{}{
		"is_open":          false,
		"open_slot":        nil,
		"closed_at":        rec.At,
		"closed_by":        tx.Actor(),
		"expected_balance": rec.Expected,
		"closing_balance":  rec.Counted,
		"discrepancy":      rec.Discrepancy,
		"updated_by":       tx.Actor(),
	}
	if rec.Notes != "" {
		fields["notes"] = rec.Notes
	}
	res := tx.Model(&model.CashRegister{}).
		Where("id = ? AND is_open = ?", id, true).
		Updates(fields)
	if res.Error != nil {
		return apperr.Internal("close register", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.StateConflict("cash register already closed")
	}
	return nil
}

func (r *cashRegisterRepo) FindAll(tx *tenancy.Tx, limit int) ([]model.CashRegister, error) {
	var regs []model.CashRegister
	q := tx.Query().Order("opened_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&regs).Error; err != nil {
		return nil, apperr.Internal("list registers", err)
	}
	return regs, nil
}
