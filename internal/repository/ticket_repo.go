package repository

import (
	"time"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketRepository interface {
	Create(tx *tenancy.Tx, ticket *model.Ticket) error
	FindByID(tx *tenancy.Tx, id uuid.UUID) (*model.Ticket, error)
	CreateUsage(tx *tenancy.Tx, usage *model.PartUsage) error
	FindUsage(tx *tenancy.Tx, id uuid.UUID) (*model.PartUsage, error)
	UpdateUsageQuantity(tx *tenancy.Tx, id uuid.UUID, qty int) error
	DeleteUsage(tx *tenancy.Tx, id uuid.UUID) error
	FindUsagesByTicket(tx *tenancy.Tx, ticketID uuid.UUID) ([]model.PartUsage, error)
	CreateSuggestion(tx *tenancy.Tx, s *model.TicketPartSuggestion) error
}

type ticketRepo struct{}

func NewTicketRepo() TicketRepository {
	return &ticketRepo{}
}

func (r *ticketRepo) Create(tx *tenancy.Tx, ticket *model.Ticket) error {
	return tx.Create(ticket)
}

func (r *ticketRepo) FindByID(tx *tenancy.Tx, id uuid.UUID) (*model.Ticket, error) {
	var ticket model.Ticket
	err := tx.First(&ticket, id,
		tenancy.Preload("Customer"),
		tenancy.Preload("Usages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }),
		tenancy.Preload("Usages.Part"),
		tenancy.Preload("Suggestions.Part"),
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepo) CreateUsage(tx *tenancy.Tx, usage *model.PartUsage) error {
	return tx.Create(usage)
}

func (r *ticketRepo) FindUsage(tx *tenancy.Tx, id uuid.UUID) (*model.PartUsage, error) {
	var usage model.PartUsage
	if err := tx.First(&usage, id, tenancy.ForUpdate); err != nil {
		return nil, err
	}
	return &usage, nil
}

// UpdateUsageQuantity only matches while the row still exists, so a
// concurrent delete surfaces as a state conflict instead of a lost update.
func (r *ticketRepo) UpdateUsageQuantity(tx *tenancy.Tx, id uuid.UUID, qty int) error {
	res := tx.Model(&model.PartUsage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity":   qty,
			"updated_by": tx.Actor(),
		})
	if res.Error != nil {
		return apperr.Internal("update part usage", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.StateConflict("part usage changed concurrently")
	}
	return nil
}

// DeleteUsage soft deletes the usage row, stamping the actor.
func (r *ticketRepo) DeleteUsage(tx *tenancy.Tx, id uuid.UUID) error {
	res := tx.Model(&model.PartUsage{}).Where("id = ?", id).Updates(map[string]interface{}{
		"deleted_at": time.Now(),
		"deleted_by": tx.Actor(),
	})
	if res.Error != nil {
		return apperr.Internal("delete part usage", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.StateConflict("part usage already removed")
	}
	return nil
}

func (r *ticketRepo) FindUsagesByTicket(tx *tenancy.Tx, ticketID uuid.UUID) ([]model.PartUsage, error) {
	var usages []model.PartUsage
	err := tx.Query().Preload("Part").
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&usages).Error
	if err != nil {
		return nil, apperr.Internal("list part usages", err)
	}
	return usages, nil
}

func (r *ticketRepo) CreateSuggestion(tx *tenancy.Tx, s *model.TicketPartSuggestion) error {
	return tx.Create(s)
}
