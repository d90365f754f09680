package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoicePending   InvoiceStatus = "PENDING"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceOverdue   InvoiceStatus = "OVERDUE"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

type Invoice struct {
	TenantModel
	Number     string          `gorm:"type:varchar(40);not null;index" json:"number"`
	CustomerID *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	TicketID   *uuid.UUID      `gorm:"type:uuid;index" json:"ticket_id,omitempty"`
	Status     InvoiceStatus   `gorm:"type:varchar(20);not null" json:"status"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxRate    decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
	TaxAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_amount"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	DueDate    *time.Time      `json:"due_date,omitempty"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	Notes      string          `gorm:"type:text" json:"notes,omitempty"`

	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	Payments []Payment     `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

// PaidAmount sums the loaded payments.
func (i *Invoice) PaidAmount() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range i.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

type InvoiceItem struct {
	BaseModel
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	PartID      *uuid.UUID      `gorm:"type:uuid" json:"part_id,omitempty"`
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
}

type Payment struct {
	TenantModel
	InvoiceID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod     PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	TransactionRef    string          `gorm:"type:varchar(100)" json:"transaction_ref,omitempty"`
	CashTransactionID *uuid.UUID      `gorm:"type:uuid" json:"cash_transaction_id,omitempty"`
}
