package handler

import (
	"wallet-ledger-service/internal/adapter/http/middleware"
	redisStore "wallet-ledger-service/internal/adapter/storage/redis"
	"wallet-ledger-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WalletSvc      ports.WalletService
	ReviewSvc      ports.ReviewService
	ServiceKey     string
	JWTSecret      string
	JWTIssuer      string
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	MetricsReg     *prometheus.Registry // nil = /metrics disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Prometheus metrics
	if deps.MetricsReg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.MetricsReg, promhttp.HandlerOpts{})))
	}

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Workflow routes (service-key authenticated) ---
	serviceAuth := middleware.ServiceKeyAuth(deps.ServiceKey, deps.Logger)
	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallets := v1.Group("/wallets/:customer_id", serviceAuth)
	{
		wallets.POST("/credit", rl("wallet_credit"), walletHandler.Credit)
		wallets.POST("/debit", rl("wallet_debit"), walletHandler.Debit)
		wallets.POST("/refund", rl("wallet_refund"), walletHandler.Refund)
	}

	// --- Admin review routes (JWT-authenticated) ---
	jwtAuth := middleware.JWTAuth(deps.JWTSecret, deps.JWTIssuer, deps.Logger)
	adminHandler := NewAdminHandler(deps.ReviewSvc, deps.WalletSvc)
	admin := v1.Group("/admin/wallets", jwtAuth)
	{
		admin.GET("/flagged", rl("admin"), adminHandler.ListFlagged)
		admin.GET("/statistics", rl("admin"), adminHandler.GetStatistics)
		admin.GET("/:customer_id", rl("admin"), adminHandler.GetWallet)
		admin.GET("/:customer_id/transactions", rl("admin"), adminHandler.ListTransactions)
		admin.PUT("/:customer_id/status", rl("admin"), adminHandler.UpdateStatus)
		admin.POST("/:customer_id/unflag", rl("admin"), adminHandler.Unflag)
	}

	return r
}
