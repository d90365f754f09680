package model

import "github.com/shopspring/decimal"

// Tenant is an isolated business account. TaxRate is a percentage applied to
// point-of-sale and invoice subtotals.
type Tenant struct {
	BaseModel
	Name     string          `gorm:"type:varchar(255);not null" json:"name"`
	TaxRate  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`
	Currency string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
}
