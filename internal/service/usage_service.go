package service

import (
	"context"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/notify"
	"go-repairshop/internal/repository"
	"go-repairshop/internal/tenancy"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UsageService records parts consumed on a ticket. Every change to a usage row
// is paired with exactly one stock ledger call in the same transaction.
type UsageService interface {
	AddUsage(ctx context.Context, ticketID uuid.UUID, req *AddUsageRequest) (*model.PartUsage, error)
	UpdateUsage(ctx context.Context, usageID uuid.UUID, req *UpdateUsageRequest) (*model.PartUsage, error)
	RemoveUsage(ctx context.Context, usageID uuid.UUID) error
	ListUsages(ctx context.Context, ticketID uuid.UUID) ([]model.PartUsage, error)
}

type AddUsageRequest struct {
	PartID   uuid.UUID `json:"part_id" validate:"uuid_required"`
	Quantity int       `json:"quantity" validate:"gt=0"`
}

type UpdateUsageRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

type usageService struct {
	runner   *tenancy.Runner
	tickets  repository.TicketRepository
	ledger   repository.StockLedger
	notifier *notify.Dispatcher
	logger   *zap.Logger
}

func NewUsageService(runner *tenancy.Runner, tickets repository.TicketRepository, ledger repository.StockLedger, notifier *notify.Dispatcher, logger *zap.Logger) UsageService {
	return &usageService{
		runner:   runner,
		tickets:  tickets,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *usageService) AddUsage(ctx context.Context, ticketID uuid.UUID, req *AddUsageRequest) (*model.PartUsage, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var (
		usage   *model.PartUsage
		part    *model.Part
		session tenancy.Session
	)
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		session = tx.Session()
		if err := s.requireEditableTicket(tx, ticketID); err != nil {
			return err
		}

		usage = &model.PartUsage{TicketID: ticketID, PartID: req.PartID, Quantity: req.Quantity}
		usage.ID = uuid.New()
		usage.CreatedBy = tx.Actor()

		var err error
		part, err = s.ledger.Consume(tx, req.PartID, req.Quantity, repository.StockRef{
			Type: model.RefTicketUsage,
			ID:   &usage.ID,
		})
		if err != nil {
			return err
		}

		usage.UnitPrice = part.Price
		usage.UnitCost = part.Cost
		return s.tickets.CreateUsage(tx, usage)
	})
	if err != nil {
		return nil, err
	}

	usage.Part = part
	s.notifier.Dispatch(lowStockEvents(session.TenantID, session.Actor(), part)...)
	return usage, nil
}

func (s *usageService) UpdateUsage(ctx context.Context, usageID uuid.UUID, req *UpdateUsageRequest) (*model.PartUsage, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var (
		usage   *model.PartUsage
		part    *model.Part
		session tenancy.Session
	)
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		session = tx.Session()
		var err error
		usage, err = s.tickets.FindUsage(tx, usageID)
		if err != nil {
			return err
		}
		if err := s.requireEditableTicket(tx, usage.TicketID); err != nil {
			return err
		}

		ref := repository.StockRef{Type: model.RefTicketUsage, ID: &usage.ID}
		switch delta := req.Quantity - usage.Quantity; {
		case delta > 0:
			part, err = s.ledger.Consume(tx, usage.PartID, delta, ref)
		case delta < 0:
			part, err = s.ledger.Restore(tx, usage.PartID, -delta, ref)
		default:
			return nil
		}
		if err != nil {
			return err
		}

		if err := s.tickets.UpdateUsageQuantity(tx, usage.ID, req.Quantity); err != nil {
			return err
		}
		usage.Quantity = req.Quantity
		return nil
	})
	if err != nil {
		return nil, err
	}

	if part != nil {
		usage.Part = part
		s.notifier.Dispatch(lowStockEvents(session.TenantID, session.Actor(), part)...)
	}
	return usage, nil
}

func (s *usageService) RemoveUsage(ctx context.Context, usageID uuid.UUID) error {
	return s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		usage, err := s.tickets.FindUsage(tx, usageID)
		if err != nil {
			return err
		}
		if err := s.requireEditableTicket(tx, usage.TicketID); err != nil {
			return err
		}

		// Delete first: a concurrent removal loses here before any stock moves.
		if err := s.tickets.DeleteUsage(tx, usage.ID); err != nil {
			return err
		}
		_, err = s.ledger.Restore(tx, usage.PartID, usage.Quantity, repository.StockRef{
			Type: model.RefTicketUsage,
			ID:   &usage.ID,
			Note: "usage removed",
		})
		return err
	})
}

func (s *usageService) ListUsages(ctx context.Context, ticketID uuid.UUID) ([]model.PartUsage, error) {
	var usages []model.PartUsage
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		if err := tx.Verify(&model.Ticket{}, ticketID); err != nil {
			return err
		}
		var err error
		usages, err = s.tickets.FindUsagesByTicket(tx, ticketID)
		return err
	})
	return usages, err
}

func (s *usageService) requireEditableTicket(tx *tenancy.Tx, ticketID uuid.UUID) error {
	var ticket model.Ticket
	if err := tx.First(&ticket, ticketID); err != nil {
		return err
	}
	if ticket.Status == model.TicketCancelled {
		return apperr.StateConflict("ticket is cancelled")
	}
	return nil
}
