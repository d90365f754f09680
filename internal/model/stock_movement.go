package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementType string

const (
	MovementConsume MovementType = "CONSUME"
	MovementRestore MovementType = "RESTORE"
	MovementReceive MovementType = "RECEIVE"
)

type ReferenceType string

const (
	RefTicketUsage ReferenceType = "TICKET_USAGE"
	RefTemplate    ReferenceType = "TEMPLATE"
	RefPOSSale     ReferenceType = "POS_SALE"
	RefPOSVoid     ReferenceType = "POS_VOID"
	RefRestock     ReferenceType = "RESTOCK"
	RefInvoice     ReferenceType = "INVOICE"
	RefManual      ReferenceType = "MANUAL"
)

// StockMovement is written by the stock ledger in the same transaction as
// every quantity change.
type StockMovement struct {
	ID            uuid.UUID     `gorm:"type:uuid;primary_key;" json:"id"`
	TenantID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"tenant_id"`
	PartID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"part_id"`
	Type          MovementType  `gorm:"type:varchar(10);not null" json:"type"`
	Quantity      int           `gorm:"not null" json:"quantity"`
	QuantityAfter int           `gorm:"not null" json:"quantity_after"`
	ReferenceType ReferenceType `gorm:"type:varchar(20)" json:"reference_type"`
	ReferenceID   *uuid.UUID    `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	Note          string        `gorm:"type:text" json:"note,omitempty"`
	CreatedAt     time.Time     `gorm:"index" json:"created_at"`
	CreatedBy     string        `gorm:"type:varchar(255)" json:"created_by"`
}

func (m StockMovement) OwnerTenant() uuid.UUID { return m.TenantID }

func (m *StockMovement) AssignTenant(id uuid.UUID) { m.TenantID = id }

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
