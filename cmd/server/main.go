package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/goldvault/backend/internal/config"
	"github.com/goldvault/backend/internal/handler"
	"github.com/goldvault/backend/internal/mailer"
	"github.com/goldvault/backend/internal/middleware"
	"github.com/goldvault/backend/internal/repository"
	"github.com/goldvault/backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	repo, err := repository.New(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	// Create services
	userService := service.NewUserService(repo)
	balanceSvc := service.NewBalanceService(repo)
	depositSvc := service.NewDepositService(repo)
	withdrawalSvc := service.NewWithdrawalService(repo, userService, balanceSvc)
	referralSvc := service.NewReferralService(repo)
	adminSvc := service.NewAdminService(repo)

	// Wire email notifications when SMTP is configured
	mail := mailer.New(cfg.SMTP)
	if mail.Enabled() {
		depositSvc.SetNotifier(mail)
		withdrawalSvc.SetNotifier(mail)
		log.Printf("Email notifications enabled via %s", cfg.SMTP.Host)
	}

	// Create handlers
	h := handler.New(cfg, userService, balanceSvc, depositSvc, withdrawalSvc, referralSvc)
	adminHandler := handler.NewAdminHandler(adminSvc)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Health check
	app.Get("/health", h.Health)

	// Public API (no auth required)
	app.Post("/api/auth/register", h.Register)
	app.Post("/api/auth/login", h.Login)

	// API routes with bearer authentication
	api := app.Group("/api", middleware.Auth(cfg))

	// User
	api.Get("/user/profile", h.GetProfile)
	api.Get("/user/balance", h.GetBalance)
	api.Get("/user/balance/transactions", h.GetBalanceTransactions)

	// Deposits
	api.Post("/user/deposit", h.SubmitDeposit)
	api.Get("/user/deposits", h.ListDeposits)

	// Withdrawals
	api.Post("/user/withdraw", h.RequestWithdrawal)
	api.Get("/user/withdrawals", h.ListWithdrawals)

	// Referrals
	api.Get("/user/referrals", h.GetReferralStats)
	api.Get("/user/referrals/link", h.GetReferralLink)

	// Admin panel routes (requires auth + admin check)
	admin := app.Group("/api/admin", middleware.Auth(cfg), middleware.AdminAuth(adminSvc))
	admin.Get("/dashboard", adminHandler.GetDashboard)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/deposits", adminHandler.ListPendingDeposits)
	admin.Post("/deposits/:deposit_id/approve", adminHandler.ApproveDeposit)
	admin.Post("/deposits/:deposit_id/reject", adminHandler.RejectDeposit)
	admin.Get("/withdrawals", adminHandler.ListWithdrawals)
	admin.Post("/withdrawals/:withdrawal_id/processing", adminHandler.MarkWithdrawalProcessing)
	admin.Post("/withdrawals/:withdrawal_id/complete", adminHandler.CompleteWithdrawal)
	admin.Post("/withdrawals/:withdrawal_id/reject", adminHandler.RejectWithdrawal)

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodic accrual sweep so balances advance without user activity
	accrualWorker := service.NewAccrualWorker(repo)
	go accrualWorker.Start(ctx)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		cancel()
		_ = app.Shutdown()
	}()

	// Start server
	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
