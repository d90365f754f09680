package handler

import (
	"go-repairshop/internal/middleware"
	"go-repairshop/internal/model"
	"go-repairshop/internal/service"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Dashboard *DashboardHandler
	Inventory *InventoryHandler
	Tickets   *TicketHandler
	Sales     *SaleHandler
	Cash      *CashHandler
	Invoices  *InvoiceHandler
}

// RegisterRoutes mounts the REST API under /api/v1. loginLimiter may be nil.
func RegisterRoutes(app *fiber.App, h Handlers, auth service.AuthService, loginLimiter fiber.Handler) {
	api := app.Group("/api/v1")
	requireAuth := middleware.RequireAuth(auth)

	// ============ PUBLIC ROUTES ============
	authGroup := api.Group("/auth")
	if loginLimiter != nil {
		authGroup.Post("/login", loginLimiter, h.Auth.Login)
	} else {
		authGroup.Post("/login", h.Auth.Login)
	}
	authGroup.Post("/reset-password", h.Auth.ResetPassword)
	authGroup.Post("/validate-token", h.Auth.ValidateToken)
	authGroup.Post("/heartbeat", requireAuth, h.Auth.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	managers := middleware.RequireRole(model.RoleManager)
	counter := middleware.RequireRole(model.RoleManager, model.RoleCashier)
	workshop := middleware.RequireRole(model.RoleManager, model.RoleTechnician)

	protected.Get("/dashboard/stats", h.Dashboard.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", h.Dashboard.GetStockMovement)
	protected.Get("/dashboard/financial", managers, h.Dashboard.GetFinancialSummary)
	protected.Get("/stock-movements", h.Dashboard.GetMovements)

	protected.Get("/parts", h.Inventory.GetParts)
	protected.Get("/parts/:id", h.Inventory.GetPart)
	protected.Post("/parts", managers, h.Inventory.CreatePart)
	protected.Put("/parts/:id", managers, h.Inventory.UpdatePart)
	protected.Post("/parts/:id/receive", managers, h.Inventory.ReceiveStock)

	protected.Get("/customers", h.Tickets.GetCustomers)
	protected.Post("/customers", h.Tickets.CreateCustomer)

	protected.Post("/tickets", workshop, h.Tickets.CreateTicket)
	protected.Post("/tickets/from-template", workshop, h.Tickets.CreateFromTemplate)
	protected.Get("/tickets/:id", h.Tickets.GetTicket)
	protected.Get("/tickets/:id/parts", h.Tickets.GetUsages)
	protected.Post("/tickets/:id/parts", workshop, h.Tickets.AddUsage)
	protected.Put("/usages/:id", workshop, h.Tickets.UpdateUsage)
	protected.Delete("/usages/:id", workshop, h.Tickets.RemoveUsage)

	protected.Get("/templates", h.Tickets.GetTemplates)
	protected.Post("/templates", managers, h.Tickets.CreateTemplate)

	protected.Get("/pos/sales", counter, h.Sales.GetSales)
	protected.Get("/pos/sales/:id", counter, h.Sales.GetSale)
	protected.Post("/pos/sales", counter, h.Sales.CreateSale)
	protected.Post("/pos/sales/:id/void", managers, h.Sales.VoidSale)

	protected.Get("/cash-register", counter, h.Cash.Current)
	protected.Post("/cash-register/open", counter, h.Cash.Open)
	protected.Post("/cash-register/close", counter, h.Cash.Close)
	protected.Post("/cash-register/transactions", counter, h.Cash.RecordTransaction)
	protected.Get("/cash-registers", managers, h.Cash.GetRegisters)
	protected.Get("/cash-registers/:id", managers, h.Cash.GetRegister)
	protected.Get("/cash-registers/:id/transactions", managers, h.Cash.GetTransactions)

	protected.Get("/invoices", counter, h.Invoices.GetInvoices)
	protected.Post("/invoices", counter, h.Invoices.CreateInvoice)
	protected.Get("/invoices/:id", counter, h.Invoices.GetInvoice)
	protected.Post("/invoices/:id/issue", counter, h.Invoices.IssueInvoice)
	protected.Post("/invoices/:id/cancel", managers, h.Invoices.CancelInvoice)
	protected.Get("/invoices/:id/payments", counter, h.Invoices.GetPayments)
	protected.Post("/invoices/:id/payments", counter, h.Invoices.RegisterPayment)

	// Owner only
	protected.Get("/users", middleware.RequireRole(), h.Users.GetUsers)
	protected.Post("/users", middleware.RequireRole(), h.Users.CreateUser)
}
