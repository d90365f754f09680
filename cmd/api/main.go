package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-repairshop/config"
	"go-repairshop/internal/handler"
	"go-repairshop/internal/jobs"
	"go-repairshop/internal/middleware"
	"go-repairshop/internal/model"
	"go-repairshop/internal/notify"
	"go-repairshop/internal/repository"
	"go-repairshop/internal/service"
	"go-repairshop/internal/tenancy"
	"go-repairshop/internal/ws"
	"go-repairshop/pkg/database"
	"go-repairshop/pkg/jwt"
	"go-repairshop/pkg/logger"
	"go-repairshop/pkg/ratelimit"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.LoadEnv()

	appLogger, err := logger.New(logger.Config{
		IsDevelopment:     cfg.Server.AppEnv == "dev",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLogger.Sync()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("failed to connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		appLogger.Fatal("failed to migrate database", zap.Error(err))
	}
	if cfg.Engine.SeedDemo {
		seedDemoTenant(db, appLogger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Notifications: websocket hub always, kafka when brokers are configured
	wsHub := ws.NewHub(appLogger)
	go wsHub.Run(ctx)

	notifiers := []notify.Notifier{wsHub}
	var kafkaNotifier *notify.KafkaNotifier
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaNotifier = notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		notifiers = append(notifiers, kafkaNotifier)
		appLogger.Info("kafka notifications enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	dispatcher := notify.NewDispatcher(appLogger, notifiers...)
	if !cfg.Engine.LowStockNotify {
		dispatcher.Mute(notify.PartLowStock)
	}

	// 4. Dependency Injection (Wiring Layers)
	runner := tenancy.NewRunner(db, cfg.Engine.TxRetries, appLogger)

	userRepo := repository.NewUserRepo(db)
	partRepo := repository.NewPartRepo()
	ticketRepo := repository.NewTicketRepo()
	tenantRepo := repository.NewTenantRepo()
	cashRepo := repository.NewCashRegisterRepo()
	ledger := repository.NewStockLedger()

	authService := service.NewAuthService(userRepo, jwt.NewManager(cfg.JWT.SecretKey, cfg.JWT.TTL), appLogger)
	invoiceService := service.NewInvoiceService(runner, tenantRepo, repository.NewInvoiceRepo(), cashRepo, dispatcher, appLogger)

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authService, appLogger),
		Users:     handler.NewUserHandler(service.NewUserService(runner, userRepo), appLogger),
		Dashboard: handler.NewDashboardHandler(service.NewReportService(runner, repository.NewReportRepo(), partRepo, cashRepo), appLogger),
		Inventory: handler.NewInventoryHandler(service.NewInventoryService(runner, partRepo, ledger, dispatcher, appLogger), appLogger),
		Tickets: handler.NewTicketHandler(
			service.NewTicketService(runner, repository.NewCustomerRepo(), ticketRepo, dispatcher, appLogger),
			service.NewUsageService(runner, ticketRepo, ledger, dispatcher, appLogger),
			service.NewTemplateService(runner, repository.NewTemplateRepo(), partRepo, ticketRepo, ledger, dispatcher, appLogger),
			appLogger,
		),
		Sales:    handler.NewSaleHandler(service.NewSaleService(runner, tenantRepo, partRepo, repository.NewSaleRepo(), cashRepo, ledger, dispatcher, appLogger), appLogger),
		Cash:     handler.NewCashHandler(service.NewCashRegisterService(runner, cashRepo, dispatcher, appLogger), appLogger),
		Invoices: handler.NewInvoiceHandler(invoiceService, appLogger),
	}

	// Login throttling shares counters through redis when it is configured
	var limiterStorage fiber.Storage
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			appLogger.Warn("redis unavailable, login limits stay in memory", zap.Error(err))
			rdb.Close()
		} else {
			limiterStorage = ratelimit.NewRedisStorage(rdb, "repairshop:limiter:")
			defer rdb.Close()
		}
	}

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Repair Shop Engine v1.0",
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	handler.RegisterRoutes(app, handlers, authService,
		middleware.LoginLimiter(cfg.Server.LoginLimit, cfg.Server.LoginWindow, limiterStorage))

	// WebSocket Route: the token comes as a query parameter, browsers cannot set headers here
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return c.SendStatus(fiber.StatusUpgradeRequired)
		}
		session, err := authService.Authenticate(c.Query("token"))
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}
		c.Locals("session", session)
		return c.Next()
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		session := c.Locals("session").(tenancy.Session)
		client := &ws.Client{Conn: c, TenantID: session.TenantID, UserID: session.UserID}
		if !wsHub.Join(client) {
			return
		}
		defer wsHub.Leave(client)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	go jobs.NewOverdueScanner(invoiceService, cfg.Engine.OverdueScanInterval, appLogger).Start(ctx)

	// 6. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			appLogger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	appLogger.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("server forced to shutdown", zap.Error(err))
	}
	dispatcher.Wait()
	if kafkaNotifier != nil {
		if err := kafkaNotifier.Close(); err != nil {
			appLogger.Warn("failed to close kafka writer", zap.Error(err))
		}
	}
	appLogger.Info("server exited")
}

// seedDemoTenant creates a demo tenant and its owner when the database has no users yet.
func seedDemoTenant(db *gorm.DB, log *zap.Logger) {
	var count int64
	if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
		log.Warn("failed to count users", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		tenant := &model.Tenant{Name: "Demo Repair Shop", TaxRate: decimal.NewFromInt(10), Currency: "USD"}
		tenant.CreatedBy = "system"
		if err := repository.NewTenantRepo().Create(tx, tenant); err != nil {
			return err
		}

		owner := &model.User{
			Email:    "admin@example.com",
			FullName: "Demo Owner",
			Role:     model.RoleOwner,
			IsActive: true,
		}
		owner.TenantID = tenant.ID
		owner.CreatedBy = "system"
		if err := owner.SetPassword("admin123"); err != nil {
			return err
		}
		return tx.Create(owner).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return
		}
		log.Warn("failed to seed demo tenant", zap.Error(err))
		return
	}
	log.Info("demo tenant created", zap.String("email", "admin@example.com"))
}
