package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/corebank/transactor/internal/adapter/events"
	"github.com/corebank/transactor/internal/adapter/gateway"
	httpAdapter "github.com/corebank/transactor/internal/adapter/http"
	"github.com/corebank/transactor/internal/adapter/http/handler"
	"github.com/corebank/transactor/internal/adapter/notifier"
	memoryRepo "github.com/corebank/transactor/internal/adapter/repository/memory"
	postgresRepo "github.com/corebank/transactor/internal/adapter/repository/postgres"
	redisRepo "github.com/corebank/transactor/internal/adapter/repository/redis"
	"github.com/corebank/transactor/internal/infrastructure/config"
	"github.com/corebank/transactor/internal/infrastructure/logger"
	"github.com/corebank/transactor/internal/infrastructure/postgres"
	"github.com/corebank/transactor/internal/infrastructure/redis"
	"github.com/corebank/transactor/internal/usecase"
)

func main() {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	log.Logger = appLogger

	// `transactor-server migrate-down` rolls back the last migration and
	// exits; useful when backing out a bad deploy.
	if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
		if err := postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("failed to roll back migration")
		}
		return
	}

	ctx := context.Background()

	// Ledger storage
	var (
		ledger usecase.LedgerRepository
		pgPool *pgxpool.Pool
	)

	switch cfg.LedgerBackend {
	case "memory":
		ledger = memoryRepo.NewLedgerRepository()
		appLogger.Warn().Msg("using in-memory ledger store")
	default:
		p, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer p.Close()
		pgPool = p
		appLogger.Info().Msg("connected to postgres")

		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}

		ledger = postgresRepo.NewLedgerRepository(p)
	}

	// Redis-backed request idempotency cache is optional
	var idempotencyStore usecase.IdempotencyStore
	redisClient, err := redisConnect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		appLogger.Info().Msg("connected to redis")
	}

	// Outbound adapters
	accountClient := gateway.NewAccountClient(gateway.Config{
		BaseURL:    cfg.AccountServiceURL,
		Timeout:    cfg.AccountServiceTimeout,
		MaxRetries: cfg.AccountServiceRetries,
	}, appLogger)

	notifierAdapter := notifier.New(notifier.Config{
		Endpoint:  cfg.NotificationServiceURL,
		QueueSize: cfg.NotificationQueueSize,
	}, appLogger)
	go func() {
		if err := notifierAdapter.Start(ctx); err != nil {
			appLogger.Error().Err(err).Msg("notifier stopped")
		}
	}()

	var eventPublisher usecase.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers)
		defer kafkaPublisher.Close()
		eventPublisher = kafkaPublisher
		appLogger.Info().Strs("brokers", cfg.KafkaBrokers).Msg("publishing events to kafka")
	} else {
		eventPublisher = events.NewLogPublisher(appLogger)
	}

	idGen := postgresRepo.NewULIDGenerator()
	refGen := postgresRepo.NewUUIDGenerator()

	// Use cases
	mutator := usecase.NewBalanceMutatorWithConfig(accountClient, usecase.BalanceMutatorConfig{
		MaxAttempts: cfg.MutatorMaxAttempts,
	}, appLogger)
	transactionUC := usecase.NewTransactionUseCase(mutator, ledger, notifierAdapter, eventPublisher, idGen, refGen, appLogger)
	transferUC := usecase.NewTransferUseCase(accountClient, mutator, ledger, notifierAdapter, eventPublisher, idGen, refGen, appLogger)
	allocatorUC := usecase.NewAllocatorUseCase(accountClient, cfg.AllocatorMaxAttempts, appLogger)
	accountUC := usecase.NewAccountUseCase(accountClient, allocatorUC, notifierAdapter, appLogger)

	// HTTP surface
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		TransactionHandler: handler.NewTransactionHandler(transactionUC, transferUC),
		AccountHandler:     handler.NewAccountHandler(accountUC),
		HealthHandler:      handler.NewHealthHandler(pgPool, redisClient),
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		Logger:             appLogger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server stopped")
}

// redisConnect returns (nil, nil) when no redis URL is configured.
func redisConnect(ctx context.Context, redisURL string) (*goredis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}
	return redis.NewClient(ctx, redisURL)
}
