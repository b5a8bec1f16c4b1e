package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"investment-platform/internal/auth"
	"investment-platform/internal/config"
	"investment-platform/internal/database"
	"investment-platform/internal/gateway"
	"investment-platform/internal/handlers"
	"investment-platform/internal/jobs"
	"investment-platform/internal/lock"
	"investment-platform/internal/notify"
	"investment-platform/internal/services"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// Cycle lock: process-local by default, redis lease when running more
	// than one process.
	var cycleLock lock.CycleLock = lock.NewLocalLock()
	if cfg.Accrual.UseRedis {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logrus.Fatalf("Failed to connect to Redis: %v", err)
		}
		cycleLock = lock.NewRedisLease(redisClient, "accrual:cycle", cfg.Accrual.LeaseTTL)
		logrus.Info("Using redis lease for accrual cycle lock")
	}

	notifier := notify.NewLogNotifier()

	// Referral eligibility policy
	var policy services.EligibilityPolicy = services.UngatedPolicy{}
	if cfg.App.ReferralEligibility == "tiered" {
		policy = services.TieredPolicy{}
	}

	minWithdrawal, err := decimal.NewFromString(cfg.App.MinWithdrawal)
	if err != nil {
		logrus.Fatalf("Invalid MIN_WITHDRAWAL: %v", err)
	}

	// Initialize services
	paymentGateway := gateway.NewHTTPGateway(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)
	userService := services.NewUserService(db, notifier)
	investmentService := services.NewInvestmentService(db)
	referralService := services.NewReferralService(db, policy)
	accrualService := services.NewAccrualService(db, referralService, cycleLock, notifier)
	settlementService := services.NewSettlementService(db, paymentGateway, minWithdrawal, cfg.App.RefundFailedWithdrawals)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	investmentHandler := handlers.NewInvestmentHandler(investmentService)
	settlementHandler := handlers.NewSettlementHandler(settlementService)
	adminHandler := handlers.NewAdminHandler(settlementService, accrualService)

	// Start accrual job
	accrualJob := jobs.NewAccrualJob(accrualService, cfg.Accrual.Interval)
	go accrualJob.Start()
	logrus.Info("Accrual job started")

	// Set up Gin router
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		userRoutes := api.Group("/user")
		{
			userRoutes.GET("/profile", userHandler.GetProfile)
			userRoutes.GET("/referrals", userHandler.GetReferrals)
			userRoutes.GET("/earnings", userHandler.GetEarnings)
		}

		api.POST("/investments", investmentHandler.CreateInvestment)
		api.GET("/investments", investmentHandler.ListInvestments)

		api.POST("/claims", settlementHandler.Claim)
		api.POST("/withdrawals", settlementHandler.RequestWithdrawal)
		api.GET("/withdrawals", settlementHandler.ListWithdrawals)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(auth.AdminMiddleware())
	{
		admin.GET("/withdrawals", adminHandler.ListWithdrawals)
		admin.POST("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
		admin.POST("/accrual/run", adminHandler.RunAccrual)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	accrualJob.Stop()

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
