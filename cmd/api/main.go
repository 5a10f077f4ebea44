package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go-pharmacy-ledger/internal/config"
	"go-pharmacy-ledger/internal/handler"
	"go-pharmacy-ledger/internal/middleware"
	"go-pharmacy-ledger/internal/model"
	"go-pharmacy-ledger/internal/repository"
	"go-pharmacy-ledger/internal/service"
	"go-pharmacy-ledger/internal/ws"
	"go-pharmacy-ledger/pkg/database"
	"go-pharmacy-ledger/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	jwt.Configure(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.PostgresDSN())
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer database.Close(db)

	if err := db.AutoMigrate(
		&model.Privilege{},
		&model.Role{},
		&model.Employee{},
		&model.Wholesaler{},
		&model.Invoice{},
		&model.MedicineStock{},
		&model.ExpiredStock{},
		&model.Sale{},
		&model.SaleItem{},
	); err != nil {
		logrus.WithError(err).Fatal("database migration failed")
	}

	// Repositories
	invoiceRepo := repository.NewInvoiceRepo(db, database.LockForUpdate)
	stockRepo := repository.NewStockRepo(db, database.LockForUpdate)
	saleRepo := repository.NewSaleRepo(db)
	wholesalerRepo := repository.NewWholesalerRepo(db)
	employeeRepo := repository.NewEmployeeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)

	if err := seedDefaults(roleRepo, privilegeRepo, employeeRepo); err != nil {
		logrus.WithError(err).Fatal("seeding defaults failed")
	}

	// Event hub
	hub := ws.NewHub()
	go hub.Run()

	// Services
	stockService := service.NewStockService(stockRepo, invoiceRepo, wholesalerRepo, db, hub)
	saleService := service.NewSaleService(saleRepo, stockRepo, employeeRepo, db, hub)
	invoiceService := service.NewInvoiceService(invoiceRepo, db, hub)
	wholesalerService := service.NewWholesalerService(wholesalerRepo)
	authService := service.NewAuthService(employeeRepo)
	employeeService := service.NewEmployeeService(employeeRepo, roleRepo, privilegeRepo)
	dashboardService := service.NewDashboardService(db)

	// Handlers
	stockHandler := handler.NewStockHandler(stockService)
	saleHandler := handler.NewSaleHandler(saleService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	wholesalerHandler := handler.NewWholesalerHandler(wholesalerService)
	authHandler := handler.NewAuthHandler(authService)
	employeeHandler := handler.NewEmployeeHandler(employeeService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)

	app := fiber.New(fiber.Config{
		AppName: "pharmacy-ledger",
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Server.CorsAllowedOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Public
	api.Post("/auth/login", authHandler.Login)

	// Authenticated
	auth := api.Group("", middleware.RequireAuth(employeeRepo))
	auth.Post("/auth/logout", authHandler.Logout)
	auth.Post("/auth/change-password", authHandler.ChangePassword)

	stocks := auth.Group("/stocks")
	stocks.Get("/", middleware.RequirePrivilege("stock:view"), stockHandler.GetAll)
	stocks.Get("/search", middleware.RequirePrivilege("stock:view"), stockHandler.Search)
	stocks.Get("/expiring", middleware.RequirePrivilege("stock:view"), stockHandler.GetExpiring)
	stocks.Get("/expired", middleware.RequirePrivilege("stock:view"), stockHandler.GetExpired)
	stocks.Get("/:id", middleware.RequirePrivilege("stock:view"), stockHandler.GetByID)
	stocks.Post("/", middleware.RequirePrivilege("stock:create"), stockHandler.AddLots)
	stocks.Patch("/:id", middleware.RequirePrivilege("stock:update"), stockHandler.Update)
	stocks.Delete("/:id", middleware.RequirePrivilege("stock:delete"), stockHandler.Delete)
	stocks.Post("/:id/expire", middleware.RequirePrivilege("stock:expire"), stockHandler.Expire)

	sales := auth.Group("/sales")
	sales.Get("/", middleware.RequirePrivilege("sale:view"), saleHandler.GetAll)
	sales.Get("/search", middleware.RequirePrivilege("sale:view"), saleHandler.Search)
	sales.Get("/:id", middleware.RequirePrivilege("sale:view"), saleHandler.GetByID)
	sales.Post("/", middleware.RequirePrivilege("sale:create"), saleHandler.Create)
	sales.Delete("/:id", middleware.RequirePrivilege("sale:delete"), saleHandler.Delete)

	invoices := auth.Group("/invoices")
	invoices.Get("/", middleware.RequirePrivilege("invoice:view"), invoiceHandler.GetAll)
	invoices.Get("/search", middleware.RequirePrivilege("invoice:view"), invoiceHandler.Search)
	invoices.Get("/:id", middleware.RequirePrivilege("invoice:view"), invoiceHandler.GetByID)
	invoices.Post("/:id/payments", middleware.RequirePrivilege("invoice:update"), invoiceHandler.RecordPayment)
	invoices.Delete("/:id", middleware.RequirePrivilege("invoice:delete"), invoiceHandler.Delete)

	wholesalers := auth.Group("/wholesalers")
	wholesalers.Get("/", middleware.RequirePrivilege("wholesaler:view"), wholesalerHandler.GetAll)
	wholesalers.Get("/:id", middleware.RequirePrivilege("wholesaler:view"), wholesalerHandler.GetByID)
	wholesalers.Post("/", middleware.RequirePrivilege("wholesaler:create"), wholesalerHandler.Create)
	wholesalers.Patch("/:id", middleware.RequirePrivilege("wholesaler:update"), wholesalerHandler.Update)
	wholesalers.Delete("/:id", middleware.RequirePrivilege("wholesaler:delete"), wholesalerHandler.Delete)

	employees := auth.Group("/employees")
	employees.Get("/", middleware.RequirePrivilege("employee:view"), employeeHandler.GetAll)
	employees.Get("/:id", middleware.RequirePrivilege("employee:view"), employeeHandler.GetByID)
	employees.Post("/", middleware.RequirePrivilege("employee:create"), employeeHandler.Create)
	employees.Patch("/:id", middleware.RequirePrivilege("employee:update"), employeeHandler.Update)
	employees.Put("/:id/privileges", middleware.RequirePrivilege("employee:update_privilege"), employeeHandler.UpdatePrivileges)
	employees.Delete("/:id", middleware.RequirePrivilege("employee:delete"), employeeHandler.Delete)

	dashboard := auth.Group("/dashboard", middleware.RequirePrivilege("dashboard:view"))
	dashboard.Get("/stats", dashboardHandler.GetStats)
	dashboard.Get("/financials", dashboardHandler.GetFinancialSummary)

	// Live event stream for the dashboard
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		hub.Register <- conn
		defer func() {
			hub.Unregister <- conn
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logrus.Info("shutting down server")
		if err := app.Shutdown(); err != nil {
			logrus.WithError(err).Error("server shutdown failed")
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logrus.WithField("addr", addr).Info("starting pharmacy ledger API")
	if err := app.Listen(addr); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

// rolePrivileges maps each role to the privilege codes it starts with.
var rolePrivileges = map[string][]string{
	model.RoleAdmin: nil, // all
	model.RoleManager: {
		"stock:view", "stock:create", "stock:update", "stock:delete", "stock:expire",
		"sale:view", "sale:create", "sale:delete",
		"invoice:view", "invoice:update", "invoice:delete",
		"wholesaler:view", "wholesaler:create", "wholesaler:update", "wholesaler:delete",
		"dashboard:view",
	},
	model.RoleWorker: {
		"stock:view",
		"sale:view", "sale:create",
	},
}

func seedDefaults(
	roleRepo repository.RoleRepository,
	privilegeRepo repository.PrivilegeRepository,
	employeeRepo repository.EmployeeRepository,
) error {
	if err := privilegeRepo.SeedDefaults(); err != nil {
		return err
	}
	if err := roleRepo.SeedDefaults(); err != nil {
		return err
	}

	all, err := privilegeRepo.FindAll()
	if err != nil {
		return err
	}
	for code, codes := range rolePrivileges {
		role, err := roleRepo.FindByCode(code)
		if err != nil {
			return err
		}
		if len(role.Privileges) > 0 {
			continue
		}
		assign := all
		if codes != nil {
			assign, err = privilegeRepo.FindByCodes(codes)
			if err != nil {
				return err
			}
		}
		if err := roleRepo.AssignPrivileges(role, assign); err != nil {
			return err
		}
	}

	// Bootstrap admin account on a fresh database.
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@pharmacy.local"
	}
	if _, err := employeeRepo.FindByEmail(adminEmail); err == nil {
		return nil
	}

	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err != nil {
		return err
	}
	admin := model.Employee{
		FirstName:  "Admin",
		Email:      adminEmail,
		RoleID:     &adminRole.ID,
		IsActive:   true,
		Privileges: all,
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "123456"
	}
	if err := admin.SetPassword(password); err != nil {
		return err
	}
	if err := employeeRepo.Create(&admin); err != nil {
		return err
	}
	logrus.WithField("email", adminEmail).Info("seeded admin account")
	return nil
}
