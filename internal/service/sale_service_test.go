package service

import (
	"errors"
	"testing"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cashSale(items []SaleItemInput, paid string) *CreateSaleRequest {
	return &CreateSaleRequest{
		Items:    items,
		Payments: []SalePaymentInput{{Method: model.MethodCash, Amount: dec(paid)}},
	}
}

func TestSaleRequiresOpenRegister(t *testing.T) {
	f := newFixture(t)
	part := f.part(f.ctx, "CBL-01", 10, "10")

	_, err := f.sales.CreateSale(f.ctx, cashSale([]SaleItemInput{{PartID: part.ID, Quantity: 1}}, "20"))
	assert.ErrorIs(t, err, apperr.ErrNoOpenRegister)
	assert.Equal(t, 10, f.quantity(f.ctx, part.ID))
}

func TestSaleTotalsAndChange(t *testing.T) {
	f := newFixture(t)
	reg := f.openRegister(f.ctx, "100")
	part := f.part(f.ctx, "CBL-01", 10, "19.99")

	sale, err := f.sales.CreateSale(f.ctx, cashSale([]SaleItemInput{{PartID: part.ID, Quantity: 3}}, "70"))
	require.NoError(t, err)

	requireDecimal(t, "59.97", sale.Subtotal)
	requireDecimal(t, "6.00", sale.TaxAmount)
	requireDecimal(t, "65.97", sale.Total)
	requireDecimal(t, "70", sale.AmountPaid)
	requireDecimal(t, "4.03", sale.ChangeGiven)
	assert.Equal(t, model.SaleCompleted, sale.Status)
	assert.Equal(t, reg.ID, sale.CashRegisterID)
	assert.Equal(t, "POS-000001", sale.Number)
	assert.Equal(t, 7, f.quantity(f.ctx, part.ID))

	balance, err := f.registers.ExpectedBalance(f.ctx, reg.ID)
	require.NoError(t, err)
	requireDecimal(t, "165.97", balance)

	stored, err := f.sales.GetSale(f.ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	require.Len(t, stored.Payments, 1)
	requireDecimal(t, "19.99", stored.Items[0].UnitPrice)

	f.notifier.Wait()
	assert.Contains(t, f.recorder.Types(), notify.SaleCompleted)
}

func TestSaleMergesDuplicateLines(t *testing.T) {
	f := newFixture(t)
	f.openRegister(f.ctx, "0")
	part := f.part(f.ctx, "CBL-01", 10, "10")

	sale, err := f.sales.CreateSale(f.ctx, cashSale([]SaleItemInput{
		{PartID: part.ID, Quantity: 2},
		{PartID: part.ID, Quantity: 3},
	}, "100"))
	require.NoError(t, err)

	require.Len(t, sale.Items, 1)
	assert.Equal(t, 5, sale.Items[0].Quantity)
	assert.Equal(t, 5, f.quantity(f.ctx, part.ID))
}

func TestSaleUnderpaymentChangesNothing(t *testing.T) {
	f := newFixture(t)
	reg := f.openRegister(f.ctx, "0")
	part := f.part(f.ctx, "CBL-01", 10, "10")

	_, err := f.sales.CreateSale(f.ctx, cashSale([]SaleItemInput{{PartID: part.ID, Quantity: 2}}, "21"))

	var short *apperr.InsufficientPaymentError
	require.True(t, errors.As(err, &short))
	requireDecimal(t, "22", short.Total)
	assert.Equal(t, 10, f.quantity(f.ctx, part.ID))

	entries, err := f.registers.ListTransactions(f.ctx, reg.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaleIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	f.openRegister(f.ctx, "0")
	plenty := f.part(f.ctx, "CBL-01", 10, "10")
	scarce := f.part(f.ctx, "CBL-02", 1, "10")

	_, err := f.sales.CreateSale(f.ctx, cashSale([]SaleItemInput{
		{PartID: plenty.ID, Quantity: 4},
		{PartID: scarce.ID, Quantity: 2},
	}, "1000"))
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	assert.Equal(t, 10, f.quantity(f.ctx, plenty.ID))
	assert.Equal(t, 1, f.quantity(f.ctx, scarce.ID))

	sales, err := f.sales.ListSales(f.ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestSaleDiscount(t *testing.T) {
	f := newFixture(t)
	f.openRegister(f.ctx, "0")
	part := f.part(f.ctx, "CBL-01", 10, "10")

	req := cashSale([]SaleItemInput{{PartID: part.ID, Quantity: 1}}, "10")
	req.Discount = dec("1")
	sale, err := f.sales.CreateSale(f.ctx, req)
	require.NoError(t, err)
	requireDecimal(t, "10", sale.Total)

	req = cashSale([]SaleItemInput{{PartID: part.ID, Quantity: 1}}, "10")
	req.Discount = dec("50")
	_, err = f.sales.CreateSale(f.ctx, req)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestVoidSaleRestoresStockAndBooksExpense(t *testing.T) {
	f := newFixture(t)
	reg := f.openRegister(f.ctx, "50")
	part := f.part(f.ctx, "CBL-01", 10, "10")

	sale, err := f.sales.CreateSale(f.ctx, cashSale([]SaleItemInput{{PartID: part.ID, Quantity: 3}}, "40"))
	require.NoError(t, err)
	assert.Equal(t, 7, f.quantity(f.ctx, part.ID))

	_, err = f.sales.VoidSale(f.ctx, sale.ID, &VoidSaleRequest{Reason: "  "})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	voided, err := f.sales.VoidSale(f.ctx, sale.ID, &VoidSaleRequest{Reason: "customer changed mind"})
	require.NoError(t, err)
	assert.Equal(t, model.SaleVoided, voided.Status)
	assert.Equal(t, "customer changed mind", voided.VoidReason)
	assert.NotNil(t, voided.VoidedAt)
	assert.Equal(t, 10, f.quantity(f.ctx, part.ID))

	summary, err := f.registers.Get(f.ctx, reg.ID)
	require.NoError(t, err)
	requireDecimal(t, "33", summary.Income)
	requireDecimal(t, "33", summary.Expense)
	requireDecimal(t, "50", summary.ExpectedBalance)

	_, err = f.sales.VoidSale(f.ctx, sale.ID, &VoidSaleRequest{Reason: "again"})
	assert.ErrorIs(t, err, apperr.ErrStateConflict)
	assert.Equal(t, 10, f.quantity(f.ctx, part.ID))

	voidedOnly, err := f.sales.ListSales(f.ctx, model.SaleVoided, 0)
	require.NoError(t, err)
	assert.Len(t, voidedOnly, 1)
}

func TestVoidAfterRegisterClosed(t *testing.T) {
	f := newFixture(t)
	f.openRegister(f.ctx, "0")
	part := f.part(f.ctx, "CBL-01", 10, "10")

	sale, err := f.sales.CreateSale(f.ctx, cashSale([]SaleItemInput{{PartID: part.ID, Quantity: 1}}, "11"))
	require.NoError(t, err)
	_, err = f.registers.Close(f.ctx, &CloseRegisterRequest{CountedBalance: dec("11")})
	require.NoError(t, err)

	_, err = f.sales.VoidSale(f.ctx, sale.ID, &VoidSaleRequest{Reason: "wrong item"})
	assert.ErrorIs(t, err, apperr.ErrNoOpenRegister)
	assert.Equal(t, 9, f.quantity(f.ctx, part.ID))

	next := f.openRegister(f.ctx, "20")
	_, err = f.sales.VoidSale(f.ctx, sale.ID, &VoidSaleRequest{Reason: "wrong item"})
	require.NoError(t, err)

	summary, err := f.registers.Get(f.ctx, next.ID)
	require.NoError(t, err)
	requireDecimal(t, "11", summary.Expense)
	requireDecimal(t, "9", summary.ExpectedBalance)
}

func TestSaleRejectsForeignPartsAndSales(t *testing.T) {
	f := newFixture(t)
	f.openRegister(f.ctx, "0")
	own := f.part(f.ctx, "CBL-01", 10, "10")

	_, otherCtx := f.newTenant("Other Shop", dec("0"))
	foreign := f.part(otherCtx, "CBL-01", 10, "10")

	_, err := f.sales.CreateSale(f.ctx, cashSale([]SaleItemInput{
		{PartID: own.ID, Quantity: 1},
		{PartID: foreign.ID, Quantity: 1},
	}, "100"))
	assert.ErrorIs(t, err, apperr.ErrTenantIsolation)
	assert.Equal(t, 10, f.quantity(f.ctx, own.ID))
	assert.Equal(t, 10, f.quantity(otherCtx, foreign.ID))

	sale, err := f.sales.CreateSale(f.ctx, cashSale([]SaleItemInput{{PartID: own.ID, Quantity: 1}}, "100"))
	require.NoError(t, err)

	_, err = f.sales.GetSale(otherCtx, sale.ID)
	assert.ErrorIs(t, err, apperr.ErrTenantIsolation)
	_, err = f.sales.VoidSale(otherCtx, sale.ID, &VoidSaleRequest{Reason: "not mine"})
	assert.ErrorIs(t, err, apperr.ErrTenantIsolation)
}

func TestSaleRejectsSubCentPayment(t *testing.T) {
	f := newFixture(t)
	reg := f.openRegister(f.ctx, "0")
	part := f.part(f.ctx, "CBL-01", 10, "10")

	req := cashSale([]SaleItemInput{{PartID: part.ID, Quantity: 1}}, "20")
	req.Payments = append(req.Payments, SalePaymentInput{Method: model.MethodCard, Amount: dec("0.004")})

	_, err := f.sales.CreateSale(f.ctx, req)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 10, f.quantity(f.ctx, part.ID))

	entries, err := f.registers.ListTransactions(f.ctx, reg.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
