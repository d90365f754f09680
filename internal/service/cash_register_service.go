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

// CashRegisterService runs the till. The balance is never stored while the
// register is open; it is folded from the transaction log on every read.
type CashRegisterService interface {
	Open(ctx context.Context, req *OpenRegisterRequest) (*model.CashRegister, error)
	RecordTransaction(ctx context.Context, req *CashTransactionRequest) (*model.CashTransaction, error)
	Current(ctx context.Context) (*RegisterSummary, error)
	Get(ctx context.Context, id uuid.UUID) (*RegisterSummary, error)
	ExpectedBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
	Close(ctx context.Context, req *CloseRegisterRequest) (*RegisterSummary, error)
	ListTransactions(ctx context.Context, id uuid.UUID) ([]model.CashTransaction, error)
	List(ctx context.Context, limit int) ([]model.CashRegister, error)
}

type OpenRegisterRequest struct {
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"dec_gte=0"`
	Notes          string          `json:"notes"`
}

type CashTransactionRequest struct {
	Type        model.CashTransactionType `json:"type" validate:"required,oneof=INCOME EXPENSE WITHDRAWAL"`
	Amount      decimal.Decimal           `json:"amount" validate:"dec_gt=0"`
	Description string                    `json:"description" validate:"max=500"`
	Reference   string                    `json:"reference" validate:"max=100"`
}

type CloseRegisterRequest struct {
	CountedBalance decimal.Decimal `json:"counted_balance" validate:"dec_gte=0"`
	Notes          string          `json:"notes"`
}

// RegisterSummary is a register with its totals derived from the log.
type RegisterSummary struct {
	Register        *model.CashRegister `json:"register"`
	Income          decimal.Decimal     `json:"income"`
	Expense         decimal.Decimal     `json:"expense"`
	Withdrawal      decimal.Decimal     `json:"withdrawal"`
	ExpectedBalance decimal.Decimal     `json:"expected_balance"`
	Transactions    int                 `json:"transactions"`
}

// Summarize computes openingBalance + income - (expense + withdrawal).
func Summarize(reg *model.CashRegister, entries []model.CashTransaction) *RegisterSummary {
	sum := &RegisterSummary{
		Register:     reg,
		Income:       decimal.Zero,
		Expense:      decimal.Zero,
		Withdrawal:   decimal.Zero,
		Transactions: len(entries),
	}
	for _, e := range entries {
		switch e.Type {
		case model.CashIncome:
			sum.Income = sum.Income.Add(e.Amount)
		case model.CashExpense:
			sum.Expense = sum.Expense.Add(e.Amount)
		case model.CashWithdrawal:
			sum.Withdrawal = sum.Withdrawal.Add(e.Amount)
		}
	}
	sum.ExpectedBalance = reg.OpeningBalance.Add(sum.Income).Sub(sum.Expense).Sub(sum.Withdrawal)
	return sum
}

type registerPayload struct {
	RegisterID      uuid.UUID        `json:"cash_register_id"`
	OpeningBalance  decimal.Decimal  `json:"opening_balance"`
	ExpectedBalance *decimal.Decimal `json:"expected_balance,omitempty"`
	ClosingBalance  *decimal.Decimal `json:"closing_balance,omitempty"`
	Discrepancy     *decimal.Decimal `json:"discrepancy,omitempty"`
}

type cashRegisterService struct {
	runner    *tenancy.Runner
	registers repository.CashRegisterRepository
	notifier  *notify.Dispatcher
	logger    *zap.Logger
}

func NewCashRegisterService(runner *tenancy.Runner, registers repository.CashRegisterRepository, notifier *notify.Dispatcher, logger *zap.Logger) CashRegisterService {
	return &cashRegisterService{
		runner:    runner,
		registers: registers,
		notifier:  notifier,
		logger:    logger,
	}
}

func (s *cashRegisterService) Open(ctx context.Context, req *OpenRegisterRequest) (*model.CashRegister, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var (
		reg     *model.CashRegister
		session tenancy.Session
	)
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		session = tx.Session()
		if _, err := s.registers.FindOpen(tx); err == nil {
			return apperr.ErrRegisterAlreadyOpen
		} else if !errors.Is(err, apperr.ErrNoOpenRegister) {
			return err
		}

		reg = &model.CashRegister{
			OpeningBalance: money.Round(req.OpeningBalance),
			OpenedAt:       time.Now(),
			OpenedBy:       tx.Actor(),
			Notes:          req.Notes,
		}
		reg.CreatedBy = tx.Actor()
		// The unique open slot index rejects a concurrent open that passed the check above.
		return s.registers.Create(tx, reg)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cash register opened",
		zap.String("register_id", reg.ID.String()),
		zap.String("opening_balance", reg.OpeningBalance.StringFixed(2)),
	)
	s.notifier.Dispatch(notify.NewEvent(notify.RegisterOpened, session.TenantID, session.Actor(), registerPayload{
		RegisterID:     reg.ID,
		OpeningBalance: reg.OpeningBalance,
	}))
	return reg, nil
}

func (s *cashRegisterService) RecordTransaction(ctx context.Context, req *CashTransactionRequest) (*model.CashTransaction, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if !req.Type.Valid() {
		return nil, apperr.Validation("unknown cash transaction type")
	}
	amount := money.Round(req.Amount)
	if !amount.IsPositive() {
		return nil, apperr.Validation("amount must be positive")
	}

	var entry *model.CashTransaction
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		reg, err := s.registers.FindOpen(tx)
		if err != nil {
			return err
		}
		if err := s.registers.Claim(tx, reg.ID); err != nil {
			return err
		}
		entry = &model.CashTransaction{
			CashRegisterID: reg.ID,
			Type:           req.Type,
			Amount:         amount,
			Description:    req.Description,
			ReferenceType:  string(model.RefManual),
			Reference:      req.Reference,
		}
		return s.registers.Append(tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *cashRegisterService) Current(ctx context.Context) (*RegisterSummary, error) {
	var sum *RegisterSummary
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		reg, err := s.registers.FindOpen(tx)
		if err != nil {
			return err
		}
		sum, err = s.summarize(tx, reg)
		return err
	})
	return sum, err
}

func (s *cashRegisterService) Get(ctx context.Context, id uuid.UUID) (*RegisterSummary, error) {
	var sum *RegisterSummary
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		reg, err := s.registers.FindByID(tx, id)
		if err != nil {
			return err
		}
		sum, err = s.summarize(tx, reg)
		return err
	})
	return sum, err
}

func (s *cashRegisterService) ExpectedBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	sum, err := s.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return sum.ExpectedBalance, nil
}

// Close counts out the open register. The claim on the register row keeps
// concurrent appends out until the close commits.
func (s *cashRegisterService) Close(ctx context.Context, req *CloseRegisterRequest) (*RegisterSummary, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var (
		sum     *RegisterSummary
		session tenancy.Session
	)
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		session = tx.Session()
		reg, err := s.registers.FindOpen(tx)
		if err != nil {
			return err
		}
		if err := s.registers.Claim(tx, reg.ID); err != nil {
			return err
		}
		if sum, err = s.summarize(tx, reg); err != nil {
			return err
		}

		counted := money.Round(req.CountedBalance)
		rec := repository.CloseRecord{
			Expected:    sum.ExpectedBalance,
			Counted:     counted,
			Discrepancy: counted.Sub(sum.ExpectedBalance),
			Notes:       req.Notes,
			At:          time.Now(),
		}
		if err := s.registers.Close(tx, reg.ID, rec); err != nil {
			return err
		}

		reg.IsOpen = false
		reg.OpenSlot = nil
		reg.ClosedAt = &rec.At
		reg.ClosedBy = tx.Actor()
		reg.ExpectedBalance = &rec.Expected
		reg.ClosingBalance = &rec.Counted
		reg.Discrepancy = &rec.Discrepancy
		if req.Notes != "" {
			reg.Notes = req.Notes
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reg := sum.Register
	if !reg.Discrepancy.IsZero() {
		s.logger.Warn("cash register closed with discrepancy",
			zap.String("register_id", reg.ID.String()),
			zap.String("discrepancy", reg.Discrepancy.StringFixed(2)),
		)
	}
	s.notifier.Dispatch(notify.NewEvent(notify.RegisterClosed, session.TenantID, session.Actor(), registerPayload{
		RegisterID:      reg.ID,
		OpeningBalance:  reg.OpeningBalance,
		ExpectedBalance: reg.ExpectedBalance,
		ClosingBalance:  reg.ClosingBalance,
		Discrepancy:     reg.Discrepancy,
	}))
	return sum, nil
}

func (s *cashRegisterService) ListTransactions(ctx context.Context, id uuid.UUID) ([]model.CashTransaction, error) {
	var entries []model.CashTransaction
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		if err := tx.Verify(&model.CashRegister{}, id); err != nil {
			return err
		}
		var err error
		entries, err = s.registers.Transactions(tx, id)
		return err
	})
	return entries, err
}

func (s *cashRegisterService) List(ctx context.Context, limit int) ([]model.CashRegister, error) {
	var regs []model.CashRegister
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) (err error) {
		regs, err = s.registers.FindAll(tx, limit)
		return err
	})
	return regs, err
}

func (s *cashRegisterService) summarize(tx *tenancy.Tx, reg *model.CashRegister) (*RegisterSummary, error) {
	entries, err := s.registers.Transactions(tx, reg.ID)
	if err != nil {
		return nil, err
	}
	return Summarize(reg, entries), nil
}
