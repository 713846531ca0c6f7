package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-ledger-service/config"
	httpHandler "wallet-ledger-service/internal/adapter/http/handler"
	"wallet-ledger-service/internal/adapter/orderclient"
	pgStorage "wallet-ledger-service/internal/adapter/storage/postgres"
	redisStorage "wallet-ledger-service/internal/adapter/storage/redis"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/internal/service"
	"wallet-ledger-service/pkg/logger"
	"wallet-ledger-service/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Wallet Ledger Service")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	walletRepo := pgStorage.NewWalletRepo(pool)
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	var orderCache ports.OrderCountCache
	if !cfg.Orders.CacheDisabled {
		orderCache = redisStorage.NewOrderCountCache(rdb)
	}
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize collaborator client and fraud scorer
	orderClient := orderclient.New(cfg.Orders, log)
	scorer, err := service.NewFraudScorer(cfg.Fraud.MonthlyRefundLimit, cfg.Fraud.MaxRefundRatio)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize fraud scorer")
	}

	// Initialize metrics
	m := metrics.New()

	// Initialize business services
	walletSvc := service.NewWalletService(
		walletRepo,
		ledgerRepo,
		transactor,
		orderClient,
		orderCache,
		scorer,
		service.NewSystemClock(),
		m,
		cfg.Orders.Timeout,
		cfg.Orders.CacheTTL,
		log,
	)
	reviewSvc := service.NewReviewService(walletRepo, ledgerRepo, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WalletSvc:      walletSvc,
		ReviewSvc:      reviewSvc,
		ServiceKey:     cfg.Auth.ServiceKey,
		JWTSecret:      cfg.Auth.JWTSecret,
		JWTIssuer:      cfg.Auth.JWTIssuer,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		MetricsReg:     m.Registry,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
