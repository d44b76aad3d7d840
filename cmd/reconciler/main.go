package main

import (
	"context"
	"errors"
	"sync"

	"paradisian/internal/bookings/policy"
	"paradisian/internal/bookings/reconciler"
	"paradisian/internal/bookings/repository"
	roomsrepository "paradisian/internal/rooms/repository"
	usersrepository "paradisian/internal/users/repository"
	"paradisian/pkg/app"
	"paradisian/pkg/auth"
	"paradisian/pkg/cache"
	"paradisian/pkg/config"
	"paradisian/pkg/kafka"
	kafka_config "paradisian/pkg/kafka/config"
	kafka_middleware "paradisian/pkg/kafka/middleware"
)

const ServiceName = "reconciler"

func main() {
	cfg := config.Load(ServiceName)
	cfg.RequireJWTSecret()
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Reconciler service")
	rec := initReconciler(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		rec.Run(ctx)
	}()

	stopConsumer := startConsumer(ctx, cfg, rec, &wg)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, config.TokenIssuer)
	serverApp := app.NewApplication(cfg, tokens)
	serverApp.SetApp(reconciler.NewHandler(rec, cfg.Log))
	serverApp.OnShutdown(func() {
		cancel()
		stopConsumer()
		wg.Wait()
	})
	serverApp.OnShutdown(cfg.GracefulShutdown)
	serverApp.Run()
}

func initReconciler(cfg *config.Config) *reconciler.Reconciler {
	overlap, err := policy.ForName(cfg.OverlapPolicy)
	if err != nil {
		cfg.Log.Fatal("Invalid overlap policy", "error", err)
	}

	var roomCache cache.Cache = cache.Noop{}
	if cfg.Client.Redis != nil {
		roomCache = cache.New(cfg.Client.Redis, cfg.CacheTTL)
	}

	rec := reconciler.New(reconciler.Deps{
		Bookings: repository.NewMongoBookingRepository(cfg),
		Rooms:    roomsrepository.NewMongoRoomRepository(cfg),
		Users:    usersrepository.NewMongoUserRepository(cfg),
		Locks:    repository.NewRoomLockRepository(cfg),
		Policy:   overlap,
		Cache:    roomCache,
	}, cfg)

	cfg.Log.Info("Reconciler initialized",
		"interval", cfg.ReconcileInterval.String(),
		"grace_period", cfg.ReconcileGracePeriod.String(),
		"batch_size", cfg.ReconcileBatchSize,
	)
	return rec
}

// startConsumer reconciles bookings as their lifecycle events arrive. It is a
// no-op when Kafka is disabled and the periodic pass does all the work.
func startConsumer(ctx context.Context, cfg *config.Config, rec *reconciler.Reconciler, wg *sync.WaitGroup) (stop func()) {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, reconciling on the timer only")
		return func() {}
	}

	kafkaCfg := kafka_config.Load(cfg.Log)
	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.BookingEventsTopic, cfg.ReconcilerGroupID, cfg.BookingEventsDLQ, rec.EventHandler(), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create kafka consumer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(metrics.ConsumerMiddleware())

	wg.Add(1)
	go func() {
		defer wg.Done()
		cfg.Log.Info("Consuming booking events", "topic", cfg.BookingEventsTopic, "group_id", cfg.ReconcilerGroupID)
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			cfg.Log.Error("Booking event consumer stopped", "error", err)
		}
	}()

	return func() {
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close kafka consumer", "error", err)
		}
		cfg.Log.Info("Kafka consumer closed", "metrics", metrics.Snapshot())
	}
}
