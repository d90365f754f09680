package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrAppendOnly is returned by hooks on ledger rows that must never change.
var ErrAppendOnly = errors.New("ledger entries are append-only")

// CashRegister is a till session. OpenSlot is true while the register is open
// and NULL once closed; the unique index on (tenant_id, open_slot) lets the
// database reject a second open register for the same tenant.
type CashRegister struct {
	BaseModel
	TenantID        uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_cash_registers_open_slot,priority:1" json:"tenant_id"`
	OpenSlot        *bool            `gorm:"uniqueIndex:idx_cash_registers_open_slot,priority:2" json:"-"`
	IsOpen          bool             `gorm:"not null;default:true" json:"is_open"`
	OpeningBalance  decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"opening_balance"`
	OpenedAt        time.Time        `gorm:"not null" json:"opened_at"`
	OpenedBy        string           `gorm:"type:varchar(255)" json:"opened_by"`
	ClosedAt        *time.Time       `json:"closed_at,omitempty"`
	ClosedBy        string           `gorm:"type:varchar(255)" json:"closed_by,omitempty"`
	ExpectedBalance *decimal.Decimal `gorm:"type:decimal(12,2)" json:"expected_balance,omitempty"`
	ClosingBalance  *decimal.Decimal `gorm:"type:decimal(12,2)" json:"closing_balance,omitempty"`
	Discrepancy     *decimal.Decimal `gorm:"type:decimal(12,2)" json:"discrepancy,omitempty"`
	Notes           string           `gorm:"type:text" json:"notes,omitempty"`

	Transactions []CashTransaction `gorm:"foreignKey:CashRegisterID" json:"transactions,omitempty"`
}

func (r CashRegister) OwnerTenant() uuid.UUID { return r.TenantID }

func (r *CashRegister) AssignTenant(id uuid.UUID) { r.TenantID = id }

type CashTransactionType string

const (
	CashIncome     CashTransactionType = "INCOME"
	CashExpense    CashTransactionType = "EXPENSE"
	CashWithdrawal CashTransactionType = "WITHDRAWAL"
)

func (t CashTransactionType) Valid() bool {
	return t == CashIncome || t == CashExpense || t == CashWithdrawal
}

// CashTransaction is an append-only ledger entry. Corrections are new
// entries, never edits.
type CashTransaction struct {
	ID             uuid.UUID           `gorm:"type:uuid;primary_key;" json:"id"`
	TenantID       uuid.UUID           `gorm:"type:uuid;not null;index" json:"tenant_id"`
	CashRegisterID uuid.UUID           `gorm:"type:uuid;not null;index" json:"cash_register_id"`
	Type           CashTransactionType `gorm:"type:varchar(20);not null" json:"type"`
	Amount         decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description    string              `gorm:"type:text" json:"description"`
	ReferenceType  string              `gorm:"type:varchar(30)" json:"reference_type,omitempty"`
	Reference      string              `gorm:"type:varchar(100);index" json:"reference,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	CreatedBy      string              `gorm:"type:varchar(255)" json:"created_by"`
}

func (t CashTransaction) OwnerTenant() uuid.UUID { return t.TenantID }

func (t *CashTransaction) AssignTenant(id uuid.UUID) { t.TenantID = id }

func (t *CashTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *CashTransaction) BeforeUpdate(tx *gorm.DB) error { return ErrAppendOnly }

func (t *CashTransaction) BeforeDelete(tx *gorm.DB) error { return ErrAppendOnly }

// Signed is the entry's contribution to the register balance.
func (t *CashTransaction) Signed() decimal.Decimal {
	if t.Type == CashIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}
