package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) invoice(ctx context.Context, total string, draft bool) *model.Invoice {
	f.t.Helper()
	inv, err := f.invoices.CreateInvoice(ctx, &CreateInvoiceRequest{
		Items: []InvoiceItemInput{{Description: "Screen replacement", Quantity: 1, UnitPrice: dec(total)}},
		Draft: draft,
	})
	require.NoError(f.t, err)
	return inv
}

func pay(amount string, method model.PaymentMethod) *PaymentRequest {
	return &PaymentRequest{Amount: dec(amount), PaymentMethod: method}
}

func TestInvoicePaymentsUpToTotal(t *testing.T) {
	f := newFixture(t)
	_, ctx := f.newTenant("No Tax Repairs", dec("0"))
	inv := f.invoice(ctx, "100", false)
	assert.Equal(t, model.InvoicePending, inv.Status)
	assert.Equal(t, "INV-000001", inv.Number)
	requireDecimal(t, "100", inv.Total)

	res, err := f.invoices.RegisterPayment(ctx, inv.ID, pay("40", model.MethodCard))
	require.NoError(t, err)
	requireDecimal(t, "60", res.Remaining)
	assert.Equal(t, model.InvoicePending, res.Invoice.Status)

	_, err = f.invoices.RegisterPayment(ctx, inv.ID, pay("60.01", model.MethodCard))
	var over *apperr.OverpaymentError
	require.True(t, errors.As(err, &over))
	requireDecimal(t, "60", over.Remaining)

	res, err = f.invoices.RegisterPayment(ctx, inv.ID, pay("60", model.MethodTransfer))
	require.NoError(t, err)
	assert.True(t, res.Remaining.IsZero())
	assert.Equal(t, model.InvoicePaid, res.Invoice.Status)
	assert.NotNil(t, res.Invoice.PaidAt)

	_, err = f.invoices.RegisterPayment(ctx, inv.ID, pay("1", model.MethodCard))
	assert.Equal(t, apperr.KindOverpayment, apperr.KindOf(err))

	payments, err := f.invoices.ListPayments(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)

	f.notifier.Wait()
	assert.Contains(t, f.recorder.Types(), notify.InvoicePaymentRegistered)
}

func TestInvoiceAppliesTenantTax(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(f.ctx, "100", false)
	requireDecimal(t, "100", inv.Subtotal)
	requireDecimal(t, "10", inv.TaxAmount)
	requireDecimal(t, "110", inv.Total)
}

func TestCashPaymentMirrorsIntoOpenRegister(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(f.ctx, "100", false)

	res, err := f.invoices.RegisterPayment(f.ctx, inv.ID, pay("30", model.MethodCash))
	require.NoError(t, err)
	assert.False(t, res.CashMirrored)
	assert.NotEmpty(t, res.CashMirrorNote)
	assert.Nil(t, res.Payment.CashTransactionID)

	reg := f.openRegister(f.ctx, "0")
	res, err = f.invoices.RegisterPayment(f.ctx, inv.ID, pay("20", model.MethodCash))
	require.NoError(t, err)
	assert.True(t, res.CashMirrored)
	require.NotNil(t, res.Payment.CashTransactionID)
	requireDecimal(t, "60", res.Remaining)

	entries, err := f.registers.ListTransactions(f.ctx, reg.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, *res.Payment.CashTransactionID, entries[0].ID)
	assert.Equal(t, model.CashIncome, entries[0].Type)
	requireDecimal(t, "20", entries[0].Amount)

	res, err = f.invoices.RegisterPayment(f.ctx, inv.ID, pay("10", model.MethodCard))
	require.NoError(t, err)
	assert.False(t, res.CashMirrored)
	assert.Empty(t, res.CashMirrorNote)
}

func TestDraftInvoiceLifecycle(t *testing.T) {
	f := newFixture(t)
	draft := f.invoice(f.ctx, "10", true)
	assert.Equal(t, model.InvoiceDraft, draft.Status)

	issued, err := f.invoices.IssueInvoice(f.ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoicePending, issued.Status)

	_, err = f.invoices.IssueInvoice(f.ctx, draft.ID)
	assert.ErrorIs(t, err, apperr.ErrStateConflict)

	other := f.invoice(f.ctx, "10", true)
	res, err := f.invoices.RegisterPayment(f.ctx, other.ID, pay("5", model.MethodCard))
	require.NoError(t, err)
	assert.Equal(t, model.InvoicePending, res.Invoice.Status)
}

func TestCancelInvoice(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(f.ctx, "10", false)

	cancelled, err := f.invoices.CancelInvoice(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceCancelled, cancelled.Status)

	_, err = f.invoices.RegisterPayment(f.ctx, inv.ID, pay("1", model.MethodCard))
	assert.ErrorIs(t, err, apperr.ErrStateConflict)

	paid := f.invoice(f.ctx, "10", false)
	_, err = f.invoices.RegisterPayment(f.ctx, paid.ID, pay("1", model.MethodCard))
	require.NoError(t, err)
	_, err = f.invoices.CancelInvoice(f.ctx, paid.ID)
	assert.ErrorIs(t, err, apperr.ErrStateConflict)

	list, err := f.invoices.ListInvoices(f.ctx, model.InvoiceCancelled)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMarkOverdue(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	late, err := f.invoices.CreateInvoice(f.ctx, &CreateInvoiceRequest{
		Items:   []InvoiceItemInput{{Description: "Labour", Quantity: 1, UnitPrice: dec("50")}},
		DueDate: &past,
	})
	require.NoError(t, err)
	_, err = f.invoices.CreateInvoice(f.ctx, &CreateInvoiceRequest{
		Items:   []InvoiceItemInput{{Description: "Labour", Quantity: 1, UnitPrice: dec("50")}},
		DueDate: &future,
	})
	require.NoError(t, err)

	n, err := f.invoices.MarkOverdue(f.ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := f.invoices.GetInvoice(f.ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceOverdue, got.Status)

	res, err := f.invoices.RegisterPayment(f.ctx, late.ID, pay("55", model.MethodCard))
	require.NoError(t, err)
	assert.Equal(t, model.InvoicePaid, res.Invoice.Status)

	n, err = f.invoices.MarkOverdue(f.ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInvoiceRejectsForeignReferences(t *testing.T) {
	f := newFixture(t)
	_, otherCtx := f.newTenant("Other Shop", dec("0"))
	foreign := f.customer(otherCtx)

	_, err := f.invoices.CreateInvoice(f.ctx, &CreateInvoiceRequest{
		CustomerID: &foreign.ID,
		Items:      []InvoiceItemInput{{Description: "Labour", Quantity: 1, UnitPrice: dec("50")}},
	})
	assert.ErrorIs(t, err, apperr.ErrTenantIsolation)

	inv := f.invoice(f.ctx, "10", false)
	_, err = f.invoices.RegisterPayment(otherCtx, inv.ID, pay("1", model.MethodCard))
	assert.ErrorIs(t, err, apperr.ErrTenantIsolation)
}
