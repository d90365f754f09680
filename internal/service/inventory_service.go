package service

import (
	"context"
	"errors"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/notify"
	"go-repairshop/internal/repository"
	"go-repairshop/internal/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type InventoryService interface {
	CreatePart(ctx context.Context, req *PartRequest) (*model.Part, error)
	UpdatePart(ctx context.Context, id uuid.UUID, req *PartRequest) (*model.Part, error)
	GetPart(ctx context.Context, id uuid.UUID) (*model.Part, error)
	ListParts(ctx context.Context) ([]model.Part, error)
	ListLowStock(ctx context.Context) ([]model.Part, error)
	ReceiveStock(ctx context.Context, id uuid.UUID, req *ReceiveStockRequest) (*model.Part, error)
}

// PartRequest creates or edits a part. Quantity is only honoured on create;
// afterwards stock moves through ReceiveStock and the consuming workflows.
type PartRequest struct {
	SKU      string          `json:"sku" validate:"required,max=50"`
	Name     string          `json:"name" validate:"required,max=255"`
	Quantity int             `json:"quantity" validate:"gte=0"`
	MinStock int             `json:"min_stock" validate:"gte=0"`
	Unit     string          `json:"unit" validate:"max=20"`
	Cost     decimal.Decimal `json:"cost" validate:"dec_gte=0"`
	Price    decimal.Decimal `json:"price" validate:"dec_gte=0"`
}

type ReceiveStockRequest struct {
	Quantity int    `json:"quantity" validate:"gt=0"`
	Note     string `json:"note" validate:"max=500"`
}

type inventoryService struct {
	runner   *tenancy.Runner
	parts    repository.PartRepository
	ledger   repository.StockLedger
	notifier *notify.Dispatcher
	logger   *zap.Logger
}

func NewInventoryService(runner *tenancy.Runner, parts repository.PartRepository, ledger repository.StockLedger, notifier *notify.Dispatcher, logger *zap.Logger) InventoryService {
	return &inventoryService{
		runner:   runner,
		parts:    parts,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *inventoryService) CreatePart(ctx context.Context, req *PartRequest) (*model.Part, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var part *model.Part
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		if _, err := s.parts.FindBySKU(tx, req.SKU); err == nil {
			return apperr.Validation("SKU already exists")
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}

		part = &model.Part{
			SKU:      req.SKU,
			Name:     req.Name,
			MinStock: req.MinStock,
			Unit:     req.Unit,
			Cost:     req.Cost,
			Price:    req.Price,
		}
		part.CreatedBy = tx.Actor()
		part.UpdatedBy = tx.Actor()
		if err := s.parts.Create(tx, part); err != nil {
			return err
		}
		if req.Quantity > 0 {
			// Opening stock goes through the ledger so it shows up in the movement log.
			received, err := s.ledger.Receive(tx, part.ID, req.Quantity, repository.StockRef{
				Type: model.RefRestock,
				Note: "opening stock",
			})
			if err != nil {
				return err
			}
			part = received
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("part created", zap.String("part_id", part.ID.String()), zap.String("sku", part.SKU))
	return part, nil
}

func (s *inventoryService) UpdatePart(ctx context.Context, id uuid.UUID, req *PartRequest) (*model.Part, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var part *model.Part
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		existing, err := s.parts.FindByID(tx, id)
		if err != nil {
			return err
		}
		if existing.SKU != req.SKU {
			if other, err := s.parts.FindBySKU(tx, req.SKU); err == nil && other.ID != id {
				return apperr.Validation("SKU already exists")
			} else if err != nil && !errors.Is(err, apperr.ErrNotFound) {
				return err
			}
		}

		existing.SKU = req.SKU
		existing.Name = req.Name
		existing.MinStock = req.MinStock
		existing.Unit = req.Unit
		existing.Cost = req.Cost
		existing.Price = req.Price
		if err := s.parts.UpdateDetails(tx, existing); err != nil {
			return err
		}
		part, err = s.parts.FindByID(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return part, nil
}

func (s *inventoryService) GetPart(ctx context.Context, id uuid.UUID) (*model.Part, error) {
	var part *model.Part
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) (err error) {
		part, err = s.parts.FindByID(tx, id)
		return err
	})
	return part, err
}

func (s *inventoryService) ListParts(ctx context.Context) ([]model.Part, error) {
	var parts []model.Part
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) (err error) {
		parts, err = s.parts.FindAll(tx)
		return err
	})
	return parts, err
}

func (s *inventoryService) ListLowStock(ctx context.Context) ([]model.Part, error) {
	var parts []model.Part
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) (err error) {
		parts, err = s.parts.FindLowStock(tx)
		return err
	})
	return parts, err
}

func (s *inventoryService) ReceiveStock(ctx context.Context, id uuid.UUID, req *ReceiveStockRequest) (*model.Part, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var part *model.Part
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) (err error) {
		part, err = s.ledger.Receive(tx, id, req.Quantity, repository.StockRef{
			Type: model.RefRestock,
			Note: req.Note,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock received",
		zap.String("part_id", part.ID.String()),
		zap.Int("quantity", req.Quantity),
		zap.Int("on_hand", part.Quantity),
	)
	return part, nil
}
