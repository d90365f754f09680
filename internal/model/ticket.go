package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "OPEN"
	TicketInProgress TicketStatus = "IN_PROGRESS"
	TicketCompleted  TicketStatus = "COMPLETED"
	TicketCancelled  TicketStatus = "CANCELLED"
)

type TicketPriority string

const (
	PriorityLow    TicketPriority = "LOW"
	PriorityMedium TicketPriority = "MEDIUM"
	PriorityHigh   TicketPriority = "HIGH"
	PriorityUrgent TicketPriority = "URGENT"
)

// Ticket is a repair job for a customer's device.
type Ticket struct {
	TenantModel
	CustomerID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer     *Customer      `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	TemplateID   *uuid.UUID     `gorm:"type:uuid;index" json:"template_id,omitempty"`
	Title        string         `gorm:"type:varchar(255);not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Priority     TicketPriority `gorm:"type:varchar(10);not null;default:'MEDIUM'" json:"priority"`
	Status       TicketStatus   `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"`
	DeviceType   string         `gorm:"type:varchar(100)" json:"device_type"`
	DeviceBrand  string         `gorm:"type:varchar(100)" json:"device_brand"`
	DeviceModel  string         `gorm:"type:varchar(100)" json:"device_model"`
	SerialNumber string         `gorm:"type:varchar(100)" json:"serial_number"`

	Usages      []PartUsage            `gorm:"foreignKey:TicketID" json:"usages,omitempty"`
	Suggestions []TicketPartSuggestion `gorm:"foreignKey:TicketID" json:"suggestions,omitempty"`
}

// PartUsage is one stock-consuming event tied to a ticket. UnitPrice and
// UnitCost are snapshots taken when the stock was consumed.
type PartUsage struct {
	TenantModel
	TicketID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"ticket_id"`
	PartID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"part_id"`
	Part      *Part           `gorm:"foreignKey:PartID" json:"part,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"unit_price"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"unit_cost"`
}

// TicketPartSuggestion records an optional template part. It never touches stock.
type TicketPartSuggestion struct {
	TenantModel
	TicketID uuid.UUID `gorm:"type:uuid;not null;index" json:"ticket_id"`
	PartID   uuid.UUID `gorm:"type:uuid;not null" json:"part_id"`
	Part     *Part     `gorm:"foreignKey:PartID" json:"part,omitempty"`
	Quantity int       `gorm:"not null" json:"quantity"`
}
