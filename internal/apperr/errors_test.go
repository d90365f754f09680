package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestKindOf(t *testing.T) {
	partID := uuid.New()
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"stock", InsufficientStock(partID, "Screen", 3, 1), KindInsufficientStock},
		{"wrapped stock", fmt.Errorf("create sale: %w", InsufficientStock(partID, "", 1, 0)), KindInsufficientStock},
		{"payment", &InsufficientPaymentError{Total: decimal.NewFromInt(10), Paid: decimal.NewFromInt(5)}, KindInsufficientPayment},
		{"overpayment", &OverpaymentError{Remaining: decimal.Zero, Attempted: decimal.NewFromInt(1)}, KindOverpayment},
		{"tenant", fmt.Errorf("%w: customer", ErrTenantIsolation), KindTenantIsolation},
		{"register open", ErrRegisterAlreadyOpen, KindRegisterAlreadyOpen},
		{"no register", ErrNoOpenRegister, KindNoOpenRegister},
		{"state", StateConflict("sale already voided"), KindStateConflict},
		{"validation", Validation("quantity must be positive"), KindValidation},
		{"not found", NotFound("part"), KindNotFound},
		{"gorm not found", gorm.ErrRecordNotFound, KindNotFound},
		{"internal", Internal("load part", errors.New("conn reset")), KindInternal},
		{"unknown", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMessageIsDeterministic(t *testing.T) {
	a := InsufficientStock(uuid.New(), "A", 5, 1)
	b := InsufficientStock(uuid.New(), "B", 9, 0)
	assert.Equal(t, Message(a), Message(b))
	assert.NotEmpty(t, Message(ErrNoOpenRegister))
	assert.NotEqual(t, Message(ErrNoOpenRegister), Message(ErrRegisterAlreadyOpen))
}

func TestInsufficientStockListsEveryPart(t *testing.T) {
	err := &InsufficientStockError{Items: []StockShortage{
		{PartName: "Battery", Requested: 2, Available: 1},
		{PartName: "Screen", Requested: 1, Available: 0},
	}}
	assert.Contains(t, err.Error(), "Battery (requested 2, available 1)")
	assert.Contains(t, err.Error(), "Screen (requested 1, available 0)")
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("open register", cause)
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Internal("noop", nil))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(&pgconn.PgError{Code: "40001"}))
	assert.True(t, Retryable(fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"})))
	assert.True(t, Retryable(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, Retryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, Retryable(ErrNoOpenRegister))
	assert.False(t, Retryable(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: cash_registers.tenant_id")))
	assert.False(t, IsUniqueViolation(errors.New("other")))
}
