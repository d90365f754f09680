package model

import "github.com/shopspring/decimal"

// Part is a stocked item. Quantity is only ever changed through the stock
// ledger; the check constraint is the last line of defence against negatives.
type Part struct {
	TenantModel
	SKU      string          `gorm:"type:varchar(50);not null;index" json:"sku" validate:"required"`
	Name     string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Quantity int             `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	MinStock int             `gorm:"not null;default:0" json:"min_stock"`
	Unit     string          `gorm:"type:varchar(20)" json:"unit"`
	Cost     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost"`
	Price    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
}

// IsLowStock reports whether the quantity reached the reorder threshold.
func (p *Part) IsLowStock() bool {
	return p.Quantity <= p.MinStock
}
