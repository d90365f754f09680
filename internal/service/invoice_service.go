package service

import (
	"context"
	"errors"
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

const noRegisterNote = "no cash register is open; the cash payment was not recorded in the register"

type InvoiceService interface {
	CreateInvoice(ctx context.Context, req *CreateInvoiceRequest) (*model.Invoice, error)
	IssueInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	CancelInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	ListInvoices(ctx context.Context, status model.InvoiceStatus) ([]model.Invoice, error)
	ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]model.Payment, error)
	RegisterPayment(ctx context.Context, invoiceID uuid.UUID, req *PaymentRequest) (*PaymentResult, error)
	// MarkOverdue is a system job; it is not bound to a session.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

type InvoiceItemInput struct {
	PartID      *uuid.UUID      `json:"part_id"`
	Description string          `json:"description" validate:"required,max=255"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"dec_gte=0"`
}

type CreateInvoiceRequest struct {
	CustomerID *uuid.UUID         `json:"customer_id"`
	TicketID   *uuid.UUID         `json:"ticket_id"`
	Items      []InvoiceItemInput `json:"items" validate:"required,min=1,dive"`
	DueDate    *time.Time         `json:"due_date"`
	Draft      bool               `json:"draft"`
	Notes      string             `json:"notes"`
}

type PaymentRequest struct {
	Amount         decimal.Decimal     `json:"amount" validate:"dec_gt=0"`
	PaymentMethod  model.PaymentMethod `json:"payment_method" validate:"required,oneof=CASH CARD TRANSFER OTHER"`
	TransactionRef string              `json:"transaction_ref" validate:"max=100"`
}

// PaymentResult reports whether a cash payment was mirrored into the open
// register. CashMirrorNote explains a skipped mirror.
type PaymentResult struct {
	Payment        *model.Payment  `json:"payment"`
	Invoice        *model.Invoice  `json:"invoice"`
	Remaining      decimal.Decimal `json:"remaining"`
	CashMirrored   bool            `json:"cash_mirrored"`
	CashMirrorNote string          `json:"cash_mirror_note,omitempty"`
}

type paymentPayload struct {
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Number    string          `json:"number"`
	Amount    decimal.Decimal `json:"amount"`
	Remaining decimal.Decimal `json:"remaining"`
	Status    string          `json:"status"`
}

type invoiceService struct {
	runner    *tenancy.Runner
	tenants   repository.TenantRepository
	invoices  repository.InvoiceRepository
	registers repository.CashRegisterRepository
	notifier  *notify.Dispatcher
	logger    *zap.Logger
}

func NewInvoiceService(runner *tenancy.Runner, tenants repository.TenantRepository, invoices repository.InvoiceRepository, registers repository.CashRegisterRepository, notifier *notify.Dispatcher, logger *zap.Logger) InvoiceService {
	return &invoiceService{
		runner:    runner,
		tenants:   tenants,
		invoices:  invoices,
		registers: registers,
		notifier:  notifier,
		logger:    logger,
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req *CreateInvoiceRequest) (*model.Invoice, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var inv *model.Invoice
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		if req.CustomerID != nil {
			if err := tx.Verify(&model.Customer{}, *req.CustomerID); err != nil {
				return err
			}
		}
		if req.TicketID != nil {
			if err := tx.Verify(&model.Ticket{}, *req.TicketID); err != nil {
				return err
			}
		}
		for _, it := range req.Items {
			if it.PartID != nil {
				if err := tx.Verify(&model.Part{}, *it.PartID); err != nil {
					return err
				}
			}
		}

		tenant, err := s.tenants.Current(tx)
		if err != nil {
			return err
		}

		status := model.InvoicePending
		if req.Draft {
			status = model.InvoiceDraft
		}
		inv = &model.Invoice{
			CustomerID: req.CustomerID,
			TicketID:   req.TicketID,
			Status:     status,
			TaxRate:    tenant.TaxRate,
			DueDate:    req.DueDate,
			Notes:      req.Notes,
		}
		inv.CreatedBy = tx.Actor()

		lines := make([]decimal.Decimal, 0, len(req.Items))
		for _, it := range req.Items {
			item := model.InvoiceItem{
				PartID:      it.PartID,
				Description: it.Description,
				Quantity:    it.Quantity,
				UnitPrice:   money.Round(it.UnitPrice),
			}
			item.Total = money.LineTotal(item.UnitPrice, it.Quantity)
			lines = append(lines, item.Total)
			inv.Items = append(inv.Items, item)
		}
		inv.Subtotal = money.Sum(lines...)
		inv.TaxAmount = money.Tax(inv.Subtotal, inv.TaxRate)
		inv.Total = inv.Subtotal.Add(inv.TaxAmount)

		if inv.Number, err = s.invoices.NextNumber(tx); err != nil {
			return err
		}
		return s.invoices.Create(tx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invoiceService) IssueInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv *model.Invoice
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		if err := tx.Verify(&model.Invoice{}, id); err != nil {
			return err
		}
		if err := s.invoices.Transition(tx, id, model.InvoicePending, []model.InvoiceStatus{model.InvoiceDraft}, nil); err != nil {
			return err
		}
		var err error
		inv, err = s.invoices.FindByID(tx, id)
		return err
	})
	return inv, err
}

func (s *invoiceService) CancelInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv *model.Invoice
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		current, err := s.invoices.FindForUpdate(tx, id)
		if err != nil {
			return err
		}
		if len(current.Payments) > 0 {
			return apperr.StateConflict("invoice has payments")
		}
		open := []model.InvoiceStatus{model.InvoiceDraft, model.InvoicePending, model.InvoiceOverdue}
		if err := s.invoices.Transition(tx, id, model.InvoiceCancelled, open, nil); err != nil {
			return err
		}
		inv, err = s.invoices.FindByID(tx, id)
		return err
	})
	return inv, err
}

func (s *invoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv *model.Invoice
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) (err error) {
		inv, err = s.invoices.FindByID(tx, id)
		return err
	})
	return inv, err
}

func (s *invoiceService) ListInvoices(ctx context.Context, status model.InvoiceStatus) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) (err error) {
		invoices, err = s.invoices.FindAll(tx, status)
		return err
	})
	return invoices, err
}

func (s *invoiceService) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		if err := tx.Verify(&model.Invoice{}, invoiceID); err != nil {
			return err
		}
		var err error
		payments, err = s.invoices.Payments(tx, invoiceID)
		return err
	})
	return payments, err
}

// RegisterPayment applies a partial or full payment. The invoice row is locked
// for the duration, so the sum of payments can never pass the total.
func (s *invoiceService) RegisterPayment(ctx context.Context, invoiceID uuid.UUID, req *PaymentRequest) (*PaymentResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	amount := money.Round(req.Amount)
	if !amount.IsPositive() {
		return nil, apperr.Validation("payment amount must be positive")
	}

	var (
		result  *PaymentResult
		session tenancy.Session
	)
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		session = tx.Session()
		result = &PaymentResult{}

		inv, err := s.invoices.FindForUpdate(tx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status == model.InvoiceCancelled {
			return apperr.StateConflict("invoice is cancelled")
		}

		remaining := inv.Total.Sub(inv.PaidAmount())
		if amount.GreaterThan(remaining) {
			return &apperr.OverpaymentError{Remaining: remaining, Attempted: amount}
		}

		payment := &model.Payment{
			InvoiceID:      inv.ID,
			Amount:         amount,
			PaymentMethod:  req.PaymentMethod,
			TransactionRef: req.TransactionRef,
		}
		payment.CreatedBy = tx.Actor()

		if req.PaymentMethod == model.MethodCash {
			entryID, err := s.mirrorCash(tx, inv, amount)
			switch {
			case errors.Is(err, apperr.ErrNoOpenRegister):
				result.CashMirrorNote = noRegisterNote
			case err != nil:
				return err
			default:
				result.CashMirrored = true
				payment.CashTransactionID = &entryID
			}
		}

		if err := s.invoices.CreatePayment(tx, payment); err != nil {
			return err
		}

		result.Remaining = remaining.Sub(amount)
		from := []model.InvoiceStatus{inv.Status}
		switch {
		case result.Remaining.IsZero():
			now := time.Now()
			err = s.invoices.Transition(tx, inv.ID, model.InvoicePaid, from, map[string]interface{}{"paid_at": now})
		case inv.Status == model.InvoiceDraft:
			err = s.invoices.Transition(tx, inv.ID, model.InvoicePending, from, nil)
		}
		if err != nil {
			return err
		}

		result.Payment = payment
		result.Invoice, err = s.invoices.FindByID(tx, inv.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.CashMirrorNote != "" {
		s.logger.Warn("cash payment not mirrored", zap.String("invoice_id", invoiceID.String()))
	}
	s.notifier.Dispatch(notify.NewEvent(notify.InvoicePaymentRegistered, session.TenantID, session.Actor(), paymentPayload{
		InvoiceID: result.Invoice.ID,
		Number:    result.Invoice.Number,
		Amount:    amount,
		Remaining: result.Remaining,
		Status:    string(result.Invoice.Status),
	}))
	return result, nil
}

func (s *invoiceService) mirrorCash(tx *tenancy.Tx, inv *model.Invoice, amount decimal.Decimal) (uuid.UUID, error) {
	reg, err := s.registers.FindOpen(tx)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.registers.Claim(tx, reg.ID); err != nil {
		return uuid.Nil, err
	}
	entry := &model.CashTransaction{
		CashRegisterID: reg.ID,
		Type:           model.CashIncome,
		Amount:         amount,
		Description:    "Payment for invoice " + inv.Number,
		ReferenceType:  string(model.RefInvoice),
		Reference:      inv.ID.String(),
	}
	if err := s.registers.Append(tx, entry); err != nil {
		return uuid.Nil, err
	}
	return entry.ID, nil
}

func (s *invoiceService) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.invoices.MarkOverdue(s.runner.DB().WithContext(ctx), now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("invoices marked overdue", zap.Int64("count", n))
	}
	return n, nil
}
