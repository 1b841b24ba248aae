package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/vendaria/vendaria-backend/internal/commission"
	"github.com/vendaria/vendaria-backend/internal/consumers/orderevents"
	"github.com/vendaria/vendaria-backend/internal/escrow"
	"github.com/vendaria/vendaria-backend/pkg/config"
	"github.com/vendaria/vendaria-backend/pkg/db"
	"github.com/vendaria/vendaria-backend/pkg/logger"
	"github.com/vendaria/vendaria-backend/pkg/migrate"
	"github.com/vendaria/vendaria-backend/pkg/outbox"
	"github.com/vendaria/vendaria-backend/pkg/outbox/idempotency"
	"github.com/vendaria/vendaria-backend/pkg/pubsub"
	"github.com/vendaria/vendaria-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "ledger-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "ledger-worker"

	logg = logger.New(logger.Options{
		ServiceName: "ledger-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database client", err)
		}
	}()

	err = migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	subscription := pubsubClient.OrderEventsSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "order events subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Outbox.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	commissionRepo := commission.NewRepository(dbClient.DB())
	resolver, err := commission.NewResolver(commissionRepo, logg)
	requireResource(ctx, logg, "commission resolver", err)

	escrowRepo := escrow.NewRepository(dbClient.DB())
	escrowService, err := escrow.NewService(escrowRepo, dbClient, outboxService, resolver, logg, cfg.Escrow.HoldDays)
	requireResource(ctx, logg, "escrow service", err)

	consumer, err := orderevents.NewConsumer(escrowService, escrowRepo, manager, logg)
	requireResource(ctx, logg, "order events consumer", err)

	service, err := orderevents.NewService(subscription, consumer, logg)
	requireResource(ctx, logg, "ledger worker service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "ledger worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "ledger worker failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
