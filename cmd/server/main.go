package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/bnp/financing/internal/adapter/http"
	"github.com/bnp/financing/internal/adapter/http/handler"
	"github.com/bnp/financing/internal/adapter/http/middleware"
	postgresRepo "github.com/bnp/financing/internal/adapter/repository/postgres"
	redisRepo "github.com/bnp/financing/internal/adapter/repository/redis"
	"github.com/bnp/financing/internal/infrastructure/beneficiary"
	"github.com/bnp/financing/internal/infrastructure/config"
	"github.com/bnp/financing/internal/infrastructure/eventpublisher"
	"github.com/bnp/financing/internal/infrastructure/logger"
	"github.com/bnp/financing/internal/infrastructure/metrics"
	"github.com/bnp/financing/internal/infrastructure/postgres"
	"github.com/bnp/financing/internal/infrastructure/redis"
	"github.com/bnp/financing/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger
	zerolog.DefaultContextLogger = &appLogger

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	loanRepo := postgresRepo.NewLoanRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	cache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Beneficiary directory: real service when configured, local stub
	// otherwise. Lookups go through the Redis cache either way.
	var directory usecase.BeneficiaryDirectory
	if cfg.BeneficiaryDirectoryURL != "" {
		directory = beneficiary.NewClient(cfg.BeneficiaryDirectoryURL, cfg.BeneficiaryTimeout)
	} else {
		log.Warn().Msg("no beneficiary directory configured, using local stub")
		directory = beneficiary.NewStaticDirectory(map[string]string{})
	}
	directory = beneficiary.NewCachedDirectory(directory, cache, cfg.BeneficiaryCacheTTL)

	appMetrics := metrics.New()
	retrier := postgresRepo.NewRetrier()

	// Initialize use cases
	loanUC := usecase.NewLoanUseCase(txManager, loanRepo, outboxRepo, auditRepo, directory, idGen, retrier, appMetrics)
	paymentUC := usecase.NewPaymentUseCase(txManager, loanRepo, outboxRepo, auditRepo, idGen, retrier, appMetrics)
	payoffUC := usecase.NewPayoffUseCase(txManager, loanRepo, outboxRepo, auditRepo, idGen, retrier, appMetrics)
	delinquencyUC := usecase.NewDelinquencyUseCase(txManager, loanRepo, outboxRepo, idGen, retrier, appMetrics)

	// Initialize handlers
	loanHandler := handler.NewLoanHandler(loanUC)
	paymentHandler := handler.NewPaymentHandler(paymentUC)
	payoffHandler := handler.NewPayoffHandler(payoffUC)
	delinquencyHandler := handler.NewDelinquencyHandler(delinquencyUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		LoanHandler:        loanHandler,
		PaymentHandler:     paymentHandler,
		PayoffHandler:      payoffHandler,
		DelinquencyHandler: delinquencyHandler,
		HealthHandler:      healthHandler,
		IdempotencyStore:   idempotencyStore,
		RateLimiter:        rateLimiter,
		Logging:            middleware.NewLoggingMiddleware(appLogger),
	})

	// Background workers stop with this context.
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(&appLogger),
		Logger:     &appLogger,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})
	go func() {
		if err := publisher.Start(workerCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	if rateLimiter != nil {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-workerCtx.Done():
					return
				case <-ticker.C:
					rateLimiter.Cleanup(10 * time.Minute)
				}
			}
		}()
	}

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopWorkers()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
