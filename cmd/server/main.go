package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/billing/backend/internal/application/billing"
	catalogapp "github.com/billing/backend/internal/application/catalog"
	partyapp "github.com/billing/backend/internal/application/party"

	appaccess "github.com/billing/backend/internal/application/access"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/infrastructure/auth"
	"github.com/billing/backend/internal/infrastructure/cache"
	"github.com/billing/backend/internal/infrastructure/config"
	"github.com/billing/backend/internal/infrastructure/logger"
	"github.com/billing/backend/internal/infrastructure/payment"
	"github.com/billing/backend/internal/infrastructure/persistence"
	"github.com/billing/backend/internal/interfaces/http/handler"
	"github.com/billing/backend/internal/interfaces/http/middleware"
	"github.com/billing/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			Billing Backend API
//	@version		1.0
//	@description	Account and billing backend: product catalog, orders, memberships and quota tracking.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting billing backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

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

	// Initialize repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	membershipRepo := persistence.NewGormMembershipRepository(db.DB)
	quotaRepo := persistence.NewGormQuotaRecordRepository(db.DB)
	usageRepo := persistence.NewGormUsageRecordRepository(db.DB)
	fulfillmentStore := persistence.NewGormFulfillmentStore(db.DB)

	// Access control: fail-closed token verification, fail-open subject
	// directory, one resolver shared by every service
	tokenVerifier := auth.NewHTTPTokenVerifier(auth.VerifierConfig{
		AuthorityBaseURL: cfg.Auth.AuthorityBaseURL,
		EnforceExpiry:    cfg.Auth.EnforceExpiry,
		Timeout:          cfg.Auth.ExternalTimeout,
	}, log)
	subjectDirectory := auth.NewHTTPSubjectDirectory(auth.DirectoryConfig{
		BaseURL: cfg.Auth.DirectoryBaseURL,
		Timeout: cfg.Auth.ExternalTimeout,
	}, log)
	resolver := appaccess.NewResolver(subjectDirectory, appaccess.AdminSubjects(cfg.Auth.AdminSubjects), log)

	// Callback deduplication store: Redis when available, in-memory for
	// single-instance development setups
	var idempotencyStore shared.IdempotencyStore
	redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		if cfg.App.Env == "production" {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		log.Warn("Redis unavailable, using in-memory callback deduplication", zap.Error(err))
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	} else {
		idempotencyStore = redisStore
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Initialize application services
	customerService := partyapp.NewCustomerService(customerRepo, log)
	productService := catalogapp.NewProductService(productRepo, log)
	orderService := billingapp.NewOrderService(orderRepo, productRepo, log)
	fulfillmentService := billingapp.NewFulfillmentService(fulfillmentStore, productRepo, log,
		billingapp.FulfillmentServiceConfig{TrialDuration: cfg.Billing.TrialDuration})
	membershipService := billingapp.NewMembershipService(membershipRepo, quotaRepo, log)
	quotaService := billingapp.NewQuotaService(quotaRepo, log)
	usageService := billingapp.NewUsageService(usageRepo, quotaRepo, membershipRepo, log)

	callbackVerifier := payment.NewCallbackVerifier(cfg.Billing.CallbackSecret)

	// Initialize HTTP handlers
	customerHandler := handler.NewCustomerHandler(customerService, resolver)
	productHandler := handler.NewProductHandler(productService)
	orderHandler := handler.NewOrderHandler(orderService, fulfillmentService, resolver)
	membershipHandler := handler.NewMembershipHandler(membershipService, resolver)
	quotaHandler := handler.NewQuotaHandler(quotaService, resolver)
	usageHandler := handler.NewUsageHandler(usageService, resolver)
	callbackHandler := handler.NewPaymentCallbackHandler(
		callbackVerifier, idempotencyStore, orderRepo, membershipRepo, fulfillmentService, log)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID, panic recovery, request logging,
	// security headers, CORS, body limit
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Payment provider callback endpoint. No bearer token: the HMAC
	// signature over the raw body authenticates the provider.
	engine.POST("/api/v1/callbacks/payment", callbackHandler.Handle)

	// Authenticated API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		Verifier: tokenVerifier,
		Resolver: resolver,
		Logger:   log,
	})
	requireAdmin := middleware.RequireAdmin()

	customerRoutes := router.NewDomainGroup("party", "/customers")
	customerRoutes.Use(authMiddleware)
	customerRoutes.POST("", customerHandler.Create)
	customerRoutes.GET("", customerHandler.List)
	customerRoutes.GET("/:id", customerHandler.Get)
	customerRoutes.PUT("/:id", customerHandler.Update)
	customerRoutes.DELETE("/:id", requireAdmin, customerHandler.Delete)

	productRoutes := router.NewDomainGroup("catalog", "/products")
	productRoutes.Use(authMiddleware)
	productRoutes.POST("", requireAdmin, productHandler.Create)
	productRoutes.GET("", productHandler.List)
	productRoutes.GET("/:id", productHandler.Get)
	productRoutes.DELETE("/:id", requireAdmin, productHandler.Deactivate)

	orderRoutes := router.NewDomainGroup("orders", "/orders")
	orderRoutes.Use(authMiddleware)
	orderRoutes.POST("", orderHandler.Create)
	orderRoutes.GET("", orderHandler.List)
	orderRoutes.GET("/:id", orderHandler.Get)
	orderRoutes.POST("/:id/cancel", orderHandler.Cancel)
	orderRoutes.POST("/:id/confirm-payment", requireAdmin, orderHandler.ConfirmPayment)
	orderRoutes.POST("/:id/start-trial", requireAdmin, orderHandler.StartTrial)

	membershipRoutes := router.NewDomainGroup("memberships", "/memberships")
	membershipRoutes.Use(authMiddleware)
	membershipRoutes.GET("", membershipHandler.List)
	membershipRoutes.GET("/:id", membershipHandler.Get)
	membershipRoutes.GET("/:id/quotas", membershipHandler.GetQuotas)
	membershipRoutes.POST("/:id/cancel", membershipHandler.Cancel)

	quotaRoutes := router.NewDomainGroup("quotas", "/quotas")
	quotaRoutes.Use(authMiddleware)
	quotaRoutes.GET("", quotaHandler.List)
	quotaRoutes.GET("/:id", quotaHandler.Get)
	quotaRoutes.PUT("/:id/limits", requireAdmin, quotaHandler.AdjustLimits)

	usageRoutes := router.NewDomainGroup("usage", "/usage")
	usageRoutes.Use(authMiddleware)
	usageRoutes.POST("", usageHandler.Record)
	usageRoutes.GET("", usageHandler.List)

	r.Register(customerRoutes).
		Register(productRoutes).
		Register(orderRoutes).
		Register(membershipRoutes).
		Register(quotaRoutes).
		Register(usageRoutes)

	r.Setup()

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
