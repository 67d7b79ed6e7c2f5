package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	financeapp "github.com/gestor/backend/internal/application/finance"
	partnerapp "github.com/gestor/backend/internal/application/partner"
	payrollapp "github.com/gestor/backend/internal/application/payroll"
	tradeapp "github.com/gestor/backend/internal/application/trade"
	"github.com/gestor/backend/internal/infrastructure/auth"
	"github.com/gestor/backend/internal/infrastructure/cache"
	"github.com/gestor/backend/internal/infrastructure/config"
	"github.com/gestor/backend/internal/infrastructure/event"
	"github.com/gestor/backend/internal/infrastructure/logger"
	"github.com/gestor/backend/internal/infrastructure/persistence"
	"github.com/gestor/backend/internal/infrastructure/scheduler"
	"github.com/gestor/backend/internal/infrastructure/telemetry"
	"github.com/gestor/backend/internal/interfaces/http/handler"
	"github.com/gestor/backend/internal/interfaces/http/middleware"
	"github.com/gestor/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Gestor Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing (if enabled)
	if cfg.Telemetry.Enabled {
		tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
		if err != nil {
			log.Fatal("Failed to initialize tracer provider", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				log.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
		log.Info("Tracing enabled",
			zap.String("endpoint", cfg.Telemetry.CollectorEndpoint),
			zap.Float64("sampling_ratio", cfg.Telemetry.SamplingRatio),
		)
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := db.EnableTracing(cfg.Database.DBName); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}

	// Initialize Redis-backed report cache
	redisClient := cache.NewRedisClient(cfg.Redis)
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()
	reportCache := cache.NewRedisReportCache(redisClient, cfg.Report.CacheTTL, log)

	// Initialize repositories
	receivableRepo := persistence.NewGormReceivableRepository(db.DB)
	payslipRepo := persistence.NewGormPayslipRepository(db.DB)
	employeeRepo := persistence.NewGormEmployeeRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	documentRepo := persistence.NewGormSourceDocumentRepository(db.DB)

	// Transaction scopes bundle the repositories each bounded context
	// mutates atomically
	financeScope := persistence.NewGormFinanceTransactionScope(db.DB)
	payrollScope := persistence.NewGormPayrollTransactionScope(db.DB)
	tradeScope := persistence.NewGormTradeTransactionScope(db.DB)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize application services
	receivableService := financeapp.NewReceivableService(financeScope, receivableRepo, eventBus, log)
	payrollService := payrollapp.NewPayrollService(payrollScope, payslipRepo, log)
	closingService := payrollapp.NewClosingService(payrollScope, payslipRepo, reportCache, eventBus, log)
	documentService := tradeapp.NewDocumentService(tradeScope, documentRepo, receivableService, log)
	partnerService := partnerapp.NewPartnerService(employeeRepo, customerRepo, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Daily interest accrual job
	if cfg.Interest.AccrualEnabled {
		tenantQuery := persistence.NewTenantQuery(db.DB)
		interestTrigger := scheduler.NewInterestTrigger(cfg.Interest, receivableService, tenantQuery, log)
		if err := interestTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start interest trigger", zap.Error(err))
		}
		defer interestTrigger.Stop()
		log.Info("Interest accrual trigger started",
			zap.Int("hour", cfg.Interest.AccrualHour),
			zap.Int("minute", cfg.Interest.AccrualMinute),
		)
	}

	// Initialize HTTP handlers
	receivableHandler := handler.NewReceivableHandler(receivableService)
	payrollHandler := handler.NewPayrollHandler(payrollService)
	closingHandler := handler.NewClosingHandler(closingService)
	documentHandler := handler.NewDocumentHandler(documentService)
	partnerHandler := handler.NewPartnerHandler(partnerService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - OpenTelemetry spans (if enabled)
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
	}
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Finance domain (receivables, interest, installments)
	financeRoutes := router.NewDomainGroup("finance", "/finance")
	financeRoutes.POST("/receivables", receivableHandler.Create)
	financeRoutes.GET("/receivables", receivableHandler.List)
	financeRoutes.POST("/receivables/interest/apply-batch", receivableHandler.ApplyInterestBatch)
	financeRoutes.GET("/receivables/:id", receivableHandler.GetByID)
	financeRoutes.DELETE("/receivables/:id", receivableHandler.Delete)
	financeRoutes.POST("/receivables/:id/payments", receivableHandler.RegisterPayments)
	financeRoutes.PUT("/receivables/:id/interest", receivableHandler.ConfigureInterest)
	financeRoutes.POST("/receivables/:id/interest/apply", receivableHandler.ApplyInterest)
	financeRoutes.POST("/receivables/:id/installments", receivableHandler.SplitInstallments)
	financeRoutes.GET("/receivables/:id/installments", receivableHandler.GetInstallments)

	// Payroll domain (payslips, deductions, salary, monthly closing)
	payrollRoutes := router.NewDomainGroup("payroll", "/payroll")
	payrollRoutes.POST("/advances", payrollHandler.AddAdvance)
	payrollRoutes.POST("/absences", payrollHandler.AddAbsence)
	payrollRoutes.POST("/salary-changes", payrollHandler.ChangeSalary)
	payrollRoutes.GET("/employees/:id/salary-history", payrollHandler.SalaryHistory)
	payrollRoutes.GET("/employees/:id/payslip", payrollHandler.GetEmployeePayslip)
	payrollRoutes.GET("/employees/:id/payslips", payrollHandler.ListEmployeePayslips)
	payrollRoutes.GET("/payslips", payrollHandler.ListPayslips)
	payrollRoutes.GET("/payslips/:id", payrollHandler.GetPayslip)
	payrollRoutes.POST("/closings", closingHandler.CloseMonth)
	payrollRoutes.POST("/closings/reopen", closingHandler.ReopenMonth)
	payrollRoutes.GET("/closings/audit", closingHandler.AuditHistory)
	payrollRoutes.GET("/report", closingHandler.MonthlyReport)

	// Trade domain (source documents)
	tradeRoutes := router.NewDomainGroup("trade", "/trade")
	tradeRoutes.POST("/documents", documentHandler.Create)
	tradeRoutes.GET("/documents", documentHandler.List)
	tradeRoutes.GET("/documents/:id", documentHandler.GetByID)
	tradeRoutes.GET("/documents/number/:number", documentHandler.GetByNumber)
	tradeRoutes.PUT("/documents/:id/total", documentHandler.UpdateTotal)
	tradeRoutes.POST("/documents/:id/complete", documentHandler.Complete)
	tradeRoutes.DELETE("/documents/:id", documentHandler.Delete)

	// Partner domain (employees, customers)
	partnerRoutes := router.NewDomainGroup("partner", "/partner")
	partnerRoutes.POST("/employees", partnerHandler.CreateEmployee)
	partnerRoutes.GET("/employees", partnerHandler.ListEmployees)
	partnerRoutes.GET("/employees/:id", partnerHandler.GetEmployee)
	partnerRoutes.PUT("/employees/:id", partnerHandler.UpdateEmployee)
	partnerRoutes.DELETE("/employees/:id", partnerHandler.DeleteEmployee)
	partnerRoutes.POST("/employees/:id/customer-link", partnerHandler.LinkEmployeeCustomer)
	partnerRoutes.POST("/employees/:id/commission", partnerHandler.RecordCommission)
	partnerRoutes.POST("/employees/:id/deactivate", partnerHandler.DeactivateEmployee)
	partnerRoutes.POST("/customers", partnerHandler.CreateCustomer)
	partnerRoutes.GET("/customers", partnerHandler.ListCustomers)
	partnerRoutes.GET("/customers/:id", partnerHandler.GetCustomer)
	partnerRoutes.PUT("/customers/:id/contact", partnerHandler.UpdateCustomerContact)
	partnerRoutes.DELETE("/customers/:id", partnerHandler.DeleteCustomer)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(financeRoutes).
		Register(payrollRoutes).
		Register(tradeRoutes).
		Register(partnerRoutes).
		Register(systemRoutes)

	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
