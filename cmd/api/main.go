package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"

	"github.com/rmaciel/gestpay-api/internal/config"
	"github.com/rmaciel/gestpay-api/internal/database"
	"github.com/rmaciel/gestpay-api/internal/handlers"
	"github.com/rmaciel/gestpay-api/internal/jobs"
	"github.com/rmaciel/gestpay-api/internal/middleware"
	"github.com/rmaciel/gestpay-api/internal/repository"
	"github.com/rmaciel/gestpay-api/internal/services"
	"github.com/rmaciel/gestpay-api/internal/storage"
	"github.com/rmaciel/gestpay-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize storage
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, store, cfg)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Check)

		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/collector_login", h.Auth.CollectorLogin)
			auth.POST("/register", h.Auth.Register)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Master-only tenant administration
			master := protected.Group("/users")
			master.Use(middleware.RequireMaster())
			{
				master.GET("", h.User.Index)
				master.GET("/:user_id", h.User.Show)
				master.POST("/:user_id/renew_subscription", h.User.RenewSubscription)
				master.POST("/:user_id/freeze_subscription", h.User.FreezeSubscription)
			}

			// Admin-only tenant operations
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				// Clients
				admin.GET("/clients", h.Client.Index)
				admin.POST("/clients", h.Client.Create)
				admin.GET("/clients/:client_id", h.Client.Show)
				admin.PUT("/clients/:client_id", h.Client.Update)
				admin.DELETE("/clients/:client_id", h.Client.Delete)
				admin.GET("/clients/:client_id/loans", h.Client.Loans)

				// Loan lifecycle
				admin.POST("/loans", h.Loan.Create)
				admin.DELETE("/loans/:loan_id", h.Loan.Delete)
				admin.DELETE("/loans/:loan_id/payments/:payment_id", h.Payment.Delete)
				admin.PUT("/loans/:loan_id/payments/:payment_id", h.Payment.Amend)

				// Collectors and their ledgers
				admin.GET("/collectors", h.Collector.Index)
				admin.POST("/collectors", h.Collector.Create)
				admin.GET("/collectors/:collector_id", h.Collector.Show)
				admin.PUT("/collectors/:collector_id", h.Collector.Update)
				admin.DELETE("/collectors/:collector_id", h.Collector.Delete)
				admin.POST("/collectors/:collector_id/transactions", h.Collector.CreateTransaction)

				// Settings and templates
				admin.GET("/settings", h.Settings.Show)
				admin.PUT("/settings", h.Settings.Update)

				// Dashboard and exports
				admin.GET("/dashboard/stats", h.Loan.Stats)
				admin.GET("/reports/loans_csv", h.Report.LoansCSV)
			}

			// Admin and collector routes (daily collection work)
			operations := protected.Group("")
			operations.Use(middleware.RequireRole("master", "admin", "collector"))
			{
				operations.GET("/loans", h.Loan.Index)
				operations.GET("/loans/:loan_id", h.Loan.Show)
				operations.POST("/loans/preview", h.Loan.Preview)
				operations.POST("/loans/simulate_late_fee", h.Loan.Simulate)

				operations.POST("/loans/:loan_id/payments", h.Payment.Create)
				operations.POST("/loans/:loan_id/renew", h.Payment.Renew)

				operations.GET("/loans/:loan_id/message", h.Settings.RenderMessage)
				operations.GET("/loans/:loan_id/statement_pdf", h.Report.LoanStatement)
				operations.GET("/loans/:loan_id/contract_pdf", h.Report.Contract)
				operations.GET("/payments/:payment_id/receipt_pdf", h.Report.Receipt)

				operations.GET("/collectors/:collector_id/statement", h.Collector.Statement)
				operations.GET("/collectors/:collector_id/statement_xlsx", h.Collector.ExportStatement)
			}

			// Notifications (users manage their own)
			// Static route first so "mark_all_as_read" is not matched as :notification_id
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.POST("/mark_all_as_read", h.Notification.MarkAllAsRead)
				notifications.POST("/:notification_id/mark_as_read", h.Notification.MarkAsRead)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Refresh cached overdue statuses every hour, and soon after boot
	worker.ScheduleEveryImmediate(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Refreshing overdue loan statuses...")
		return svcs.Loan.RefreshOverdueStatuses(ctx)
	})

	// Notify tenant operators about newly overdue loans once a day
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Sending overdue loan summaries...")
		return svcs.Loan.NotifyOverdueSummaries(ctx, svcs.Notification)
	})

	// Expire lapsed subscriptions once a day
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Expiring lapsed subscriptions...")
		return svcs.User.ExpireLapsedSubscriptions(ctx)
	})

	logger.Info("Scheduled recurring jobs")
}
