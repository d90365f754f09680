package service

import (
	"context"
	"testing"

	"go-repairshop/internal/model"
	"go-repairshop/internal/notify"
	"go-repairshop/internal/repository"
	"go-repairshop/internal/tenancy"
	"go-repairshop/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fixture struct {
	t        *testing.T
	db       *gorm.DB
	ctx      context.Context
	session  tenancy.Session
	recorder *notify.Recorder
	notifier *notify.Dispatcher

	inventory InventoryService
	tickets   TicketService
	usages    UsageService
	templates TemplateService
	sales     SaleService
	registers CashRegisterService
	invoices  InvoiceService
	reports   ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	runner := tenancy.NewRunner(db, 3, logger)
	recorder := &notify.Recorder{}
	notifier := notify.NewDispatcher(logger, recorder)

	partRepo := repository.NewPartRepo()
	ticketRepo := repository.NewTicketRepo()
	tenantRepo := repository.NewTenantRepo()
	cashRepo := repository.NewCashRegisterRepo()
	ledger := repository.NewStockLedger()

	f := &fixture{
		t:         t,
		db:        db,
		recorder:  recorder,
		notifier:  notifier,
		inventory: NewInventoryService(runner, partRepo, ledger, notifier, logger),
		tickets:   NewTicketService(runner, repository.NewCustomerRepo(), ticketRepo, notifier, logger),
		usages:    NewUsageService(runner, ticketRepo, ledger, notifier, logger),
		templates: NewTemplateService(runner, repository.NewTemplateRepo(), partRepo, ticketRepo, ledger, notifier, logger),
		sales:     NewSaleService(runner, tenantRepo, partRepo, repository.NewSaleRepo(), cashRepo, ledger, notifier, logger),
		registers: NewCashRegisterService(runner, cashRepo, notifier, logger),
		invoices:  NewInvoiceService(runner, tenantRepo, repository.NewInvoiceRepo(), cashRepo, notifier, logger),
		reports:   NewReportService(runner, repository.NewReportRepo(), partRepo, cashRepo),
	}
	f.session, f.ctx = f.newTenant("Fixit Lab", decimal.NewFromInt(10))
	return f
}

// newTenant creates a tenant and returns a context acting as its owner.
func (f *fixture) newTenant(name string, taxRate decimal.Decimal) (tenancy.Session, context.Context) {
	f.t.Helper()
	tenant := &model.Tenant{Name: name, TaxRate: taxRate, Currency: "USD"}
	require.NoError(f.t, repository.NewTenantRepo().Create(f.db, tenant))

	session := tenancy.Session{UserID: uuid.New(), TenantID: tenant.ID, Role: model.RoleOwner, Name: "owner"}
	return session, tenancy.WithSession(context.Background(), session)
}

func (f *fixture) part(ctx context.Context, sku string, qty int, price string) *model.Part {
	f.t.Helper()
	p, err := f.inventory.CreatePart(ctx, &PartRequest{
		SKU:      sku,
		Name:     "Part " + sku,
		Quantity: qty,
		MinStock: 1,
		Cost:     decimal.RequireFromString(price).Div(decimal.NewFromInt(2)),
		Price:    decimal.RequireFromString(price),
	})
	require.NoError(f.t, err)
	return p
}

func (f *fixture) customer(ctx context.Context) *model.Customer {
	f.t.Helper()
	c, err := f.tickets.CreateCustomer(ctx, &CustomerRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(f.t, err)
	return c
}

func (f *fixture) ticket(ctx context.Context) *model.Ticket {
	f.t.Helper()
	c := f.customer(ctx)
	tk, err := f.tickets.CreateTicket(ctx, &TicketRequest{CustomerID: c.ID, Title: "Cracked screen"})
	require.NoError(f.t, err)
	return tk
}

func (f *fixture) openRegister(ctx context.Context, opening string) *model.CashRegister {
	f.t.Helper()
	reg, err := f.registers.Open(ctx, &OpenRegisterRequest{OpeningBalance: decimal.RequireFromString(opening)})
	require.NoError(f.t, err)
	return reg
}

func (f *fixture) quantity(ctx context.Context, id uuid.UUID) int {
	f.t.Helper()
	p, err := f.inventory.GetPart(ctx, id)
	require.NoError(f.t, err)
	return p.Quantity
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// requireDecimal compares by value so 10 and 10.00 are equal.
func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}
