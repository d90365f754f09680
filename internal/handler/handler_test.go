package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-repairshop/internal/model"
	"go-repairshop/internal/notify"
	"go-repairshop/internal/repository"
	"go-repairshop/internal/service"
	"go-repairshop/internal/tenancy"
	"go-repairshop/pkg/database"
	"go-repairshop/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type testAPI struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	logger := zaptest.NewLogger(t)

	runner := tenancy.NewRunner(db, 0, logger)
	notifier := notify.NewDispatcher(logger)
	users := repository.NewUserRepo(db)
	parts := repository.NewPartRepo()
	tickets := repository.NewTicketRepo()
	tenants := repository.NewTenantRepo()
	registers := repository.NewCashRegisterRepo()
	ledger := repository.NewStockLedger()

	auth := service.NewAuthService(users, jwt.NewManager("handler-test", time.Hour), logger)
	h := Handlers{
		Auth:      NewAuthHandler(auth, logger),
		Users:     NewUserHandler(service.NewUserService(runner, users), logger),
		Dashboard: NewDashboardHandler(service.NewReportService(runner, repository.NewReportRepo(), parts, registers), logger),
		Inventory: NewInventoryHandler(service.NewInventoryService(runner, parts, ledger, notifier, logger), logger),
		Tickets: NewTicketHandler(
			service.NewTicketService(runner, repository.NewCustomerRepo(), tickets, notifier, logger),
			service.NewUsageService(runner, tickets, ledger, notifier, logger),
			service.NewTemplateService(runner, repository.NewTemplateRepo(), parts, tickets, ledger, notifier, logger),
			logger,
		),
		Sales:    NewSaleHandler(service.NewSaleService(runner, tenants, parts, repository.NewSaleRepo(), registers, ledger, notifier, logger), logger),
		Cash:     NewCashHandler(service.NewCashRegisterService(runner, registers, notifier, logger), logger),
		Invoices: NewInvoiceHandler(service.NewInvoiceService(runner, tenants, repository.NewInvoiceRepo(), registers, notifier, logger), logger),
	}

	app := fiber.New()
	RegisterRoutes(app, h, auth, nil)
	return &testAPI{t: t, app: app, db: db}
}

// seedUser creates a tenant with one user and returns a bearer token for it.
func (a *testAPI) seedUser(tenantName, email string, role model.Role) string {
	a.t.Helper()
	tenant := &model.Tenant{Name: tenantName, TaxRate: decimal.NewFromInt(10), Currency: "USD"}
	require.NoError(a.t, repository.NewTenantRepo().Create(a.db, tenant))

	user := &model.User{Email: email, FullName: tenantName + " user", Role: role, IsActive: true}
	require.NoError(a.t, user.SetPassword("secret123"))
	user.TenantID = tenant.ID
	require.NoError(a.t, a.db.Create(user).Error)

	status, body := a.do(http.MethodPost, "/api/v1/auth/login", "", fiber.Map{"email": email, "password": "secret123"})
	require.Equal(a.t, http.StatusOK, status, string(body))
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(body, &res))
	return res.Token
}

func (a *testAPI) do(method, path, token string, payload interface{}) (int, []byte) {
	a.t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp.StatusCode, body
}

func decode(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	api := newTestAPI(t)

	status, _ := api.do(http.MethodGet, "/api/v1/parts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.do(http.MethodGet, "/api/v1/parts", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSaleFlowOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	token := api.seedUser("Fixit", "owner@fixit.test", model.RoleOwner)

	status, body := api.do(http.MethodPost, "/api/v1/parts", token, fiber.Map{
		"sku": "SCR-01", "name": "Screen", "quantity": 2, "price": "100", "cost": "60",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	partID := decode(t, body)["data"].(map[string]interface{})["id"].(string)

	sale := fiber.Map{
		"items":    []fiber.Map{{"part_id": partID, "quantity": 1}},
		"payments": []fiber.Map{{"method": "CASH", "amount": "200"}},
	}
	status, body = api.do(http.MethodPost, "/api/v1/pos/sales", token, sale)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "NO_OPEN_REGISTER", decode(t, body)["code"])

	status, _ = api.do(http.MethodPost, "/api/v1/cash-register/open", token, fiber.Map{"opening_balance": "50"})
	require.Equal(t, http.StatusCreated, status)

	status, body = api.do(http.MethodPost, "/api/v1/pos/sales", token, sale)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = api.do(http.MethodPost, "/api/v1/pos/sales", token, fiber.Map{
		"items":    []fiber.Map{{"part_id": partID, "quantity": 5}},
		"payments": []fiber.Map{{"method": "CASH", "amount": "1000"}},
	})
	assert.Equal(t, http.StatusConflict, status)
	res := decode(t, body)
	assert.Equal(t, "INSUFFICIENT_STOCK", res["code"])
	assert.Len(t, res["items"], 1)

	status, body = api.do(http.MethodGet, "/api/v1/cash-register", token, nil)
	require.Equal(t, http.StatusOK, status)
	balance, err := decimal.NewFromString(decode(t, body)["expected_balance"].(string))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(160)), balance.String())
}

func TestRolesAndTenantsAreEnforced(t *testing.T) {
	api := newTestAPI(t)
	owner := api.seedUser("Fixit", "owner@fixit.test", model.RoleOwner)
	tech := api.seedUser("Fixit Two", "tech@two.test", model.RoleTechnician)

	status, _ := api.do(http.MethodPost, "/api/v1/cash-register/open", tech, fiber.Map{"opening_balance": "0"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body := api.do(http.MethodPost, "/api/v1/parts", owner, fiber.Map{"sku": "BAT-01", "name": "Battery", "quantity": 1})
	require.Equal(t, http.StatusCreated, status, string(body))
	partID := decode(t, body)["data"].(map[string]interface{})["id"].(string)

	status, body = api.do(http.MethodGet, "/api/v1/parts/"+partID, tech, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "TENANT_ISOLATION", decode(t, body)["code"])

	status, _ = api.do(http.MethodGet, "/api/v1/parts/not-a-uuid", owner, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = api.do(http.MethodPost, "/api/v1/parts", owner, fiber.Map{"name": "No SKU"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", decode(t, body)["code"])
}
