package service

import (
	"testing"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/notify"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageLifecycleKeepsStockInStep(t *testing.T) {
	f := newFixture(t)
	part := f.part(f.ctx, "BAT-01", 10, "40")
	ticket := f.ticket(f.ctx)

	usage, err := f.usages.AddUsage(f.ctx, ticket.ID, &AddUsageRequest{PartID: part.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 8, f.quantity(f.ctx, part.ID))
	requireDecimal(t, "40", usage.UnitPrice)
	requireDecimal(t, "20", usage.UnitCost)

	_, err = f.usages.UpdateUsage(f.ctx, usage.ID, &UpdateUsageRequest{Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, f.quantity(f.ctx, part.ID))

	_, err = f.usages.UpdateUsage(f.ctx, usage.ID, &UpdateUsageRequest{Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, f.quantity(f.ctx, part.ID))

	require.NoError(t, f.usages.RemoveUsage(f.ctx, usage.ID))
	assert.Equal(t, 10, f.quantity(f.ctx, part.ID))

	usages, err := f.usages.ListUsages(f.ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, usages)

	err = f.usages.RemoveUsage(f.ctx, usage.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, 10, f.quantity(f.ctx, part.ID))
}

func TestAddUsageShortStockChangesNothing(t *testing.T) {
	f := newFixture(t)
	part := f.part(f.ctx, "BAT-01", 1, "40")
	ticket := f.ticket(f.ctx)

	_, err := f.usages.AddUsage(f.ctx, ticket.ID, &AddUsageRequest{PartID: part.ID, Quantity: 2})
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	assert.Equal(t, 1, f.quantity(f.ctx, part.ID))

	usages, err := f.usages.ListUsages(f.ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, usages)
}

func TestUpdateUsageBeyondStock(t *testing.T) {
	f := newFixture(t)
	part := f.part(f.ctx, "BAT-01", 4, "40")
	ticket := f.ticket(f.ctx)

	usage, err := f.usages.AddUsage(f.ctx, ticket.ID, &AddUsageRequest{PartID: part.ID, Quantity: 3})
	require.NoError(t, err)

	_, err = f.usages.UpdateUsage(f.ctx, usage.ID, &UpdateUsageRequest{Quantity: 6})
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	assert.Equal(t, 1, f.quantity(f.ctx, part.ID))

	usages, err := f.usages.ListUsages(f.ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.Equal(t, 3, usages[0].Quantity)
}

func TestUpdateUsageRejectsZero(t *testing.T) {
	f := newFixture(t)
	_, err := f.usages.UpdateUsage(f.ctx, uuid.New(), &UpdateUsageRequest{Quantity: 0})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUsageKeepsPriceSnapshot(t *testing.T) {
	f := newFixture(t)
	part := f.part(f.ctx, "BAT-01", 10, "40")
	ticket := f.ticket(f.ctx)

	_, err := f.usages.AddUsage(f.ctx, ticket.ID, &AddUsageRequest{PartID: part.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = f.inventory.UpdatePart(f.ctx, part.ID, &PartRequest{SKU: part.SKU, Name: part.Name, MinStock: 1, Cost: dec("30"), Price: dec("55")})
	require.NoError(t, err)
	assert.Equal(t, 9, f.quantity(f.ctx, part.ID))

	got, err := f.tickets.GetTicket(f.ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, got.Usages, 1)
	requireDecimal(t, "40", got.Usages[0].UnitPrice)
}

func TestUsageOnCancelledTicket(t *testing.T) {
	f := newFixture(t)
	part := f.part(f.ctx, "BAT-01", 10, "40")
	ticket := f.ticket(f.ctx)
	require.NoError(t, f.db.Model(&model.Ticket{}).Where("id = ?", ticket.ID).Update("status", model.TicketCancelled).Error)

	_, err := f.usages.AddUsage(f.ctx, ticket.ID, &AddUsageRequest{PartID: part.ID, Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrStateConflict)
	assert.Equal(t, 10, f.quantity(f.ctx, part.ID))
}

func TestUsageRejectsForeignPart(t *testing.T) {
	f := newFixture(t)
	ticket := f.ticket(f.ctx)

	_, otherCtx := f.newTenant("Other Shop", dec("0"))
	foreign := f.part(otherCtx, "BAT-99", 10, "40")

	_, err := f.usages.AddUsage(f.ctx, ticket.ID, &AddUsageRequest{PartID: foreign.ID, Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrTenantIsolation)
	assert.Equal(t, 10, f.quantity(otherCtx, foreign.ID))

	_, err = f.usages.ListUsages(otherCtx, ticket.ID)
	assert.ErrorIs(t, err, apperr.ErrTenantIsolation)
}

func TestUsageEmitsLowStock(t *testing.T) {
	f := newFixture(t)
	part := f.part(f.ctx, "BAT-01", 3, "40")
	ticket := f.ticket(f.ctx)

	_, err := f.usages.AddUsage(f.ctx, ticket.ID, &AddUsageRequest{PartID: part.ID, Quantity: 2})
	require.NoError(t, err)
	f.notifier.Wait()

	assert.Contains(t, f.recorder.Types(), notify.PartLowStock)
}
