package service

import (
	"context"
	"strings"
	"time"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/notify"
	"go-repairshop/internal/repository"
	"go-repairshop/internal/tenancy"
	"go-repairshop/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SaleService interface {
	CreateSale(ctx context.Context, req *CreateSaleRequest) (*model.POSSale, error)
	VoidSale(ctx context.Context, saleID uuid.UUID, req *VoidSaleRequest) (*model.POSSale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*model.POSSale, error)
	ListSales(ctx context.Context, status model.SaleStatus, limit int) ([]model.POSSale, error)
}

type SaleItemInput struct {
	PartID   uuid.UUID `json:"part_id" validate:"uuid_required"`
	Quantity int       `json:"quantity" validate:"gt=0"`
}

type SalePaymentInput struct {
	Method    model.PaymentMethod `json:"method" validate:"required,oneof=CASH CARD TRANSFER OTHER"`
	Amount    decimal.Decimal     `json:"amount" validate:"dec_gt=0"`
	Reference string              `json:"reference" validate:"max=100"`
}

type CreateSaleRequest struct {
	CustomerID *uuid.UUID         `json:"customer_id"`
	Items      []SaleItemInput    `json:"items" validate:"required,min=1,dive"`
	Payments   []SalePaymentInput `json:"payments" validate:"required,min=1,dive"`
	Discount   decimal.Decimal    `json:"discount" validate:"dec_gte=0"`
	Notes      string             `json:"notes"`
}

type VoidSaleRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type salePayload struct {
	SaleID   uuid.UUID       `json:"sale_id"`
	Number   string          `json:"number"`
	Total    decimal.Decimal `json:"total"`
	Items    int             `json:"items"`
	Reason   string          `json:"reason,omitempty"`
	Register uuid.UUID       `json:"cash_register_id"`
}

type saleService struct {
	runner    *tenancy.Runner
	tenants   repository.TenantRepository
	parts     repository.PartRepository
	sales     repository.SaleRepository
	registers repository.CashRegisterRepository
	ledger    repository.StockLedger
	notifier  *notify.Dispatcher
	logger    *zap.Logger
}

func NewSaleService(runner *tenancy.Runner, tenants repository.TenantRepository, parts repository.PartRepository, sales repository.SaleRepository, registers repository.CashRegisterRepository, ledger repository.StockLedger, notifier *notify.Dispatcher, logger *zap.Logger) SaleService {
	return &saleService{
		runner:    runner,
		tenants:   tenants,
		parts:     parts,
		sales:     sales,
		registers: registers,
		ledger:    ledger,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateSale books a completed sale on the open register. Prices and the tax
// rate are read inside the transaction; stock for every line is consumed or
// nothing is.
func (s *saleService) CreateSale(ctx context.Context, req *CreateSaleRequest) (*model.POSSale, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(req.Items))
	qtys := make([]int, len(req.Items))
	for i, it := range req.Items {
		ids[i], qtys[i] = it.PartID, it.Quantity
	}
	order, quantities := mergeQuantities(ids, qtys)

	var (
		sale     *model.POSSale
		consumed []*model.Part
		session  tenancy.Session
	)
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		session = tx.Session()
		consumed = nil

		parts, err := s.parts.FindByIDs(tx, order)
		if err != nil {
			return err
		}
		if req.CustomerID != nil {
			if err := tx.Verify(&model.Customer{}, *req.CustomerID); err != nil {
				return err
			}
		}

		register, err := s.registers.FindOpen(tx)
		if err != nil {
			return err
		}
		if err := s.registers.Claim(tx, register.ID); err != nil {
			return err
		}

		tenant, err := s.tenants.Current(tx)
		if err != nil {
			return err
		}

		sale = &model.POSSale{
			CashRegisterID: register.ID,
			CustomerID:     req.CustomerID,
			Status:         model.SaleCompleted,
			TaxRate:        tenant.TaxRate,
			Discount:       money.Round(req.Discount),
			Notes:          req.Notes,
		}
		sale.ID = uuid.New()
		sale.CreatedBy = tx.Actor()

		lineTotals := make([]decimal.Decimal, 0, len(order))
		for _, id := range order {
			part := parts[id]
			line := model.POSSaleItem{
				PartID:    id,
				PartName:  part.Name,
				Quantity:  quantities[id],
				UnitPrice: part.Price,
				Total:     money.LineTotal(part.Price, quantities[id]),
			}
			lineTotals = append(lineTotals, line.Total)
			sale.Items = append(sale.Items, line)
		}
		sale.Subtotal = money.Sum(lineTotals...)
		sale.TaxAmount = money.Tax(sale.Subtotal, sale.TaxRate)
		gross := sale.Subtotal.Add(sale.TaxAmount)
		if sale.Discount.GreaterThan(gross) {
			return apperr.Validation("discount exceeds sale amount")
		}
		sale.Total = gross.Sub(sale.Discount)

		paid := decimal.Zero
		for _, p := range req.Payments {
			amount := money.Round(p.Amount)
			if !amount.IsPositive() {
				return apperr.Validation("payment amount must be positive")
			}
			paid = paid.Add(amount)
			sale.Payments = append(sale.Payments, model.POSSalePayment{
				Method:    p.Method,
				Amount:    amount,
				Reference: p.Reference,
			})
		}
		if paid.LessThan(sale.Total) {
			return &apperr.InsufficientPaymentError{Total: sale.Total, Paid: paid}
		}
		sale.AmountPaid = paid
		sale.ChangeGiven = paid.Sub(sale.Total)

		ref := repository.StockRef{Type: model.RefPOSSale, ID: &sale.ID}
		for _, id := range order {
			part, err := s.ledger.Consume(tx, id, quantities[id], ref)
			if err != nil {
				return err
			}
			consumed = append(consumed, part)
		}

		if sale.Number, err = s.sales.NextNumber(tx); err != nil {
			return err
		}
		if err := s.sales.Create(tx, sale); err != nil {
			return err
		}

		return s.registers.Append(tx, &model.CashTransaction{
			CashRegisterID: register.ID,
			Type:           model.CashIncome,
			Amount:         sale.Total,
			Description:    "POS sale " + sale.Number,
			ReferenceType:  string(model.RefPOSSale),
			Reference:      sale.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sale completed",
		zap.String("sale_id", sale.ID.String()),
		zap.String("number", sale.Number),
		zap.String("total", sale.Total.StringFixed(2)),
	)
	events := []notify.Event{notify.NewEvent(notify.SaleCompleted, session.TenantID, session.Actor(), salePayload{
		SaleID:   sale.ID,
		Number:   sale.Number,
		Total:    sale.Total,
		Items:    len(sale.Items),
		Register: sale.CashRegisterID,
	})}
	events = append(events, lowStockEvents(session.TenantID, session.Actor(), consumed...)...)
	s.notifier.Dispatch(events...)
	return sale, nil
}

// VoidSale reverses a completed sale: stock recorded on the sale comes back,
// the sale turns VOIDED and the register gets a compensating EXPENSE. The
// expense lands on the sale's register while it is open, otherwise on the
// register open now.
func (s *saleService) VoidSale(ctx context.Context, saleID uuid.UUID, req *VoidSaleRequest) (*model.POSSale, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, apperr.Validation("void reason is required")
	}

	var (
		sale    *model.POSSale
		session tenancy.Session
	)
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		session = tx.Session()
		var err error
		sale, err = s.sales.FindByID(tx, saleID, tenancy.ForUpdate)
		if err != nil {
			return err
		}
		if sale.Status != model.SaleCompleted {
			return apperr.StateConflict("sale is already voided")
		}

		register, err := s.registers.FindByID(tx, sale.CashRegisterID)
		if err != nil {
			return err
		}
		if !register.IsOpen {
			if register, err = s.registers.FindOpen(tx); err != nil {
				return err
			}
		}
		if err := s.registers.Claim(tx, register.ID); err != nil {
			return err
		}

		now := time.Now()
		if err := s.sales.MarkVoided(tx, sale.ID, reason, now); err != nil {
			return err
		}

		ref := repository.StockRef{Type: model.RefPOSVoid, ID: &sale.ID, Note: reason}
		for _, item := range sale.Items {
			if _, err := s.ledger.Restore(tx, item.PartID, item.Quantity, ref); err != nil {
				return err
			}
		}

		if err := s.registers.Append(tx, &model.CashTransaction{
			CashRegisterID: register.ID,
			Type:           model.CashExpense,
			Amount:         sale.Total,
			Description:    "Void of POS sale " + sale.Number + ": " + reason,
			ReferenceType:  string(model.RefPOSVoid),
			Reference:      sale.ID.String(),
		}); err != nil {
			return err
		}

		sale.Status = model.SaleVoided
		sale.VoidReason = reason
		sale.VoidedAt = &now
		sale.VoidedBy = tx.Actor()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sale voided", zap.String("sale_id", sale.ID.String()), zap.String("reason", reason))
	s.notifier.Dispatch(notify.NewEvent(notify.SaleVoided, session.TenantID, session.Actor(), salePayload{
		SaleID:   sale.ID,
		Number:   sale.Number,
		Total:    sale.Total,
		Items:    len(sale.Items),
		Reason:   reason,
		Register: sale.CashRegisterID,
	}))
	return sale, nil
}

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*model.POSSale, error) {
	var sale *model.POSSale
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) (err error) {
		sale, err = s.sales.FindByID(tx, id)
		return err
	})
	return sale, err
}

func (s *saleService) ListSales(ctx context.Context, status model.SaleStatus, limit int) ([]model.POSSale, error) {
	var sales []model.POSSale
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) (err error) {
		sales, err = s.sales.FindAll(tx, status, limit)
		return err
	})
	return sales, err
}
