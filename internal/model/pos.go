package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleCompleted SaleStatus = "COMPLETED"
	SaleVoided    SaleStatus = "VOIDED"
)

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodCard     PaymentMethod = "CARD"
	MethodTransfer PaymentMethod = "TRANSFER"
	MethodOther    PaymentMethod = "OTHER"
)

// POSSale is immutable once VOIDED.
type POSSale struct {
	TenantModel
	Number         string          `gorm:"type:varchar(40);not null;index" json:"number"`
	CashRegisterID uuid.UUID       `gorm:"type:uuid;not null;index" json:"cash_register_id"`
	CustomerID     *uuid.UUID      `gorm:"type:uuid" json:"customer_id,omitempty"`
	Status         SaleStatus      `gorm:"type:varchar(20);not null" json:"status"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_amount"`
	Discount       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_paid"`
	ChangeGiven    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"change_given"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	VoidReason     string          `gorm:"type:text" json:"void_reason,omitempty"`
	VoidedAt       *time.Time      `json:"voided_at,omitempty"`
	VoidedBy       string          `gorm:"type:varchar(255)" json:"voided_by,omitempty"`

	Items    []POSSaleItem    `gorm:"foreignKey:SaleID" json:"items,omitempty"`
	Payments []POSSalePayment `gorm:"foreignKey:SaleID" json:"payments,omitempty"`
}

func (POSSale) TableName() string { return "pos_sales" }

// POSSaleItem keeps the price as it was at sale time.
type POSSaleItem struct {
	BaseModel
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	PartID    uuid.UUID       `gorm:"type:uuid;not null" json:"part_id"`
	PartName  string          `gorm:"type:varchar(255)" json:"part_name"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
}

func (POSSaleItem) TableName() string { return "pos_sale_items" }

type POSSalePayment struct {
	BaseModel
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	Method    PaymentMethod   `gorm:"type:varchar(20);not null" json:"method"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Reference string          `gorm:"type:varchar(100)" json:"reference,omitempty"`
}

func (POSSalePayment) TableName() string { return "pos_sale_payments" }
