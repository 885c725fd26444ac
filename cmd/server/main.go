package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	httpAdapter "github.com/gotoUSA/django-shopping-mall-sub001/internal/adapter/http"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/adapter/http/handler"
	postgresRepo "github.com/gotoUSA/django-shopping-mall-sub001/internal/adapter/repository/postgres"
	redisRepo "github.com/gotoUSA/django-shopping-mall-sub001/internal/adapter/repository/redis"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/config"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/eventpublisher"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/logger"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/logging"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/metrics"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/notifier"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/postgres"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/redis"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/scheduler"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	policy, err := cfg.EarnPolicy()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid earn policy")
	}

	ctx := context.Background()

	// Apply schema migrations before anything touches the pool
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
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

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool, cfg.LockTimeout)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	usageRepo := postgresRepo.NewUsageRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()
	cache := redisRepo.NewCache(redisClient)
	sweepLock := redisRepo.NewSweepLock(redisClient)

	// Assemble the point engine
	engine := usecase.NewEngine(usecase.EngineDeps{
		TxManager:   txManager,
		AccountRepo: accountRepo,
		EntryRepo:   entryRepo,
		UsageRepo:   usageRepo,
		OutboxRepo:  outboxRepo,
		IDGen:       idGen,
		Cache:       cache,
		Notifier:    notifier.NewLogNotifier(log.Logger),
		Retrier:     retrier,

		Policy:        policy,
		NotifyHorizon: cfg.NotifyHorizon,
		SweepLimiter:  newSweepLimiter(cfg.SweepRatePerSecond),
		Logger:        log.Logger,
		Metrics:       m,
	})

	infraLog := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	// Outbox publisher worker
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(infraLog.Logger),
		Logger:     infraLog.Logger,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
		Retention:  cfg.OutboxRetention,
	})

	// Sweep scheduler worker
	sched := scheduler.New(scheduler.Config{
		Sweeper:        engine.Expiry,
		Locker:         sweepLock,
		Logger:         infraLog,
		ExpireInterval: cfg.ExpireSweepInterval,
		NotifyInterval: cfg.NotifySweepInterval,
		LockTTL:        cfg.SweepLockTTL,
	})

	// Ops router (probes and metrics only)
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		HealthHandler: handler.NewHealthHandler(pool, redisClient),
		Logger:        log.Logger,
		Metrics:       m,
	})

	server := &http.Server{
		Addr:         resolveAddr(cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	go func() {
		if err := publisher.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	go func() {
		if err := sched.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("sweep scheduler stopped")
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting ops server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ops server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")
	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// resolveAddr turns a bare port into a listen address.
func resolveAddr(port string) string {
	if strings.HasPrefix(port, ":") {
		return port
	}

	return ":" + port
}

// newSweepLimiter builds the expiry pacing limiter; zero or negative
// disables pacing.
func newSweepLimiter(perSecond int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
