package model

import "github.com/google/uuid"

// ServiceTemplate describes a standard repair. Required default parts are
// consumed when a ticket is created from it; optional ones are only suggested.
type ServiceTemplate struct {
	TenantModel
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Priority    TicketPriority `gorm:"type:varchar(10);not null;default:'MEDIUM'" json:"priority"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`

	DefaultParts []TemplateDefaultPart `gorm:"foreignKey:TemplateID" json:"default_parts,omitempty"`
}

type TemplateDefaultPart struct {
	TenantModel
	TemplateID uuid.UUID `gorm:"type:uuid;not null;index" json:"template_id"`
	PartID     uuid.UUID `gorm:"type:uuid;not null" json:"part_id"`
	Part       *Part     `gorm:"foreignKey:PartID" json:"part,omitempty"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	Required   bool      `gorm:"not null;default:false" json:"required"`
}
