package main

import (
	"paradisian/internal/bookings/confirmation"
	"paradisian/internal/bookings/events"
	"paradisian/internal/bookings/handler"
	"paradisian/internal/bookings/policy"
	"paradisian/internal/bookings/repository"
	"paradisian/internal/bookings/service"
	"paradisian/internal/bookings/validator"
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

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.RequireJWTSecret()
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Bookings service")
	publisher, closeProducer := initPublisher(cfg)
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingService := initServices(cfg, bookingValidator, publisher)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, config.TokenIssuer)
	serverApp := app.NewApplication(cfg, tokens)
	serverApp.SetApp(handler.NewBookingHandler(bookingService, bookingValidator, cfg.Log))
	serverApp.OnShutdown(closeProducer)
	serverApp.OnShutdown(cfg.GracefulShutdown)
	serverApp.Run()
}

func initServices(cfg *config.Config, bookingValidator *validator.BookingValidator, publisher service.EventPublisher) service.BookingService {
	overlap, err := policy.ForName(cfg.OverlapPolicy)
	if err != nil {
		cfg.Log.Fatal("Invalid overlap policy", "error", err)
	}

	var roomCache cache.Cache = cache.Noop{}
	if cfg.Client.Redis != nil {
		roomCache = cache.New(cfg.Client.Redis, cfg.CacheTTL)
	}

	bookingService := service.NewBookingService(service.Deps{
		Bookings:  repository.NewMongoBookingRepository(cfg),
		Rooms:     roomsrepository.NewMongoRoomRepository(cfg),
		Users:     usersrepository.NewMongoUserRepository(cfg),
		Locks:     repository.NewRoomLockRepository(cfg),
		Codes:     confirmation.NewGenerator(nil),
		Events:    publisher,
		Cache:     roomCache,
		Policy:    overlap,
		Validator: bookingValidator,
	}, cfg)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName, "overlap_policy", overlap.Name())
	return bookingService
}

// initPublisher returns a Kafka backed publisher when KAFKA_ENABLED is set
// and a no-op one otherwise.
func initPublisher(cfg *config.Config) (service.EventPublisher, func()) {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, booking events will not be published")
		return events.Noop{}, func() {}
	}

	kafkaCfg := kafka_config.Load(cfg.Log)
	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingEventsDLQ, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create kafka producer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(metrics.ProducerMiddleware())

	cfg.Log.Info("Publishing booking events", "topic", cfg.BookingEventsTopic, "brokers", kafkaCfg.Brokers)
	return events.NewKafkaPublisher(producer, ServiceName), func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close kafka producer", "error", err)
		}
		cfg.Log.Info("Kafka producer closed", "metrics", metrics.Snapshot())
	}
}
