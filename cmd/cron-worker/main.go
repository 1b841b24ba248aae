package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vendaria/vendaria-backend/internal/commission"
	"github.com/vendaria/vendaria-backend/internal/cron"
	"github.com/vendaria/vendaria-backend/internal/escrow"
	"github.com/vendaria/vendaria-backend/internal/settlement"
	"github.com/vendaria/vendaria-backend/pkg/config"
	"github.com/vendaria/vendaria-backend/pkg/db"
	"github.com/vendaria/vendaria-backend/pkg/logger"
	"github.com/vendaria/vendaria-backend/pkg/metrics"
	"github.com/vendaria/vendaria-backend/pkg/migrate"
	"github.com/vendaria/vendaria-backend/pkg/outbox"
	"github.com/vendaria/vendaria-backend/pkg/redis"
)

const lockKeyFormat = "vnd:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outboxRepo, logg)

	commissionRepo := commission.NewRepository(dbClient.DB())
	resolver, err := commission.NewResolver(commissionRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create commission resolver", err)
		os.Exit(1)
	}

	escrowRepo := escrow.NewRepository(dbClient.DB())
	escrowService, err := escrow.NewService(escrowRepo, dbClient, outboxService, resolver, logg, cfg.Escrow.HoldDays)
	if err != nil {
		logg.Error(context.Background(), "failed to create escrow service", err)
		os.Exit(1)
	}

	settlementRepo := settlement.NewRepository(dbClient.DB())
	settlementService, err := settlement.NewService(settlementRepo, escrowRepo, dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()

	payoutJob, err := cron.NewPayoutReleaseJob(cron.PayoutReleaseJobParams{
		Logger:    logg,
		Reader:    escrowRepo,
		Releaser:  escrowService,
		BatchSize: cfg.Escrow.SweepBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout release job", err)
		os.Exit(1)
	}
	registry.Register(payoutJob)

	if cfg.Settlement.AutoGenerate {
		settlementJob, err := cron.NewSettlementJob(cron.SettlementJobParams{
			Logger:    logg,
			Sellers:   settlementRepo,
			Generator: settlementService,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create settlement job", err)
			os.Exit(1)
		}
		registry.Register(settlementJob)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}
	registry.Register(retentionJob)

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Escrow.SweepInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
