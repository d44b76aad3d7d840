package main

import (
	bookingsrepository "paradisian/internal/bookings/repository"
	"paradisian/internal/rooms/handler"
	"paradisian/internal/rooms/repository"
	"paradisian/internal/rooms/service"
	"paradisian/internal/rooms/validator"
	"paradisian/pkg/app"
	"paradisian/pkg/auth"
	"paradisian/pkg/cache"
	"paradisian/pkg/config"
)

const ServiceName = "rooms"

func main() {
	cfg := config.Load(ServiceName)
	cfg.RequireJWTSecret()
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Rooms service")
	roomService := initServices(cfg)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, config.TokenIssuer)
	serverApp := app.NewApplication(cfg, tokens)
	serverApp.SetApp(handler.NewRoomHandler(roomService, cfg.Log))
	serverApp.OnShutdown(cfg.GracefulShutdown)
	serverApp.Run()
}

func initServices(cfg *config.Config) service.RoomService {
	var roomCache cache.Cache = cache.Noop{}
	if cfg.Client.Redis != nil {
		roomCache = cache.New(cfg.Client.Redis, cfg.CacheTTL)
	}

	roomService := service.NewRoomService(
		repository.NewMongoRoomRepository(cfg),
		bookingsrepository.NewMongoBookingRepository(cfg),
		roomCache,
		validator.NewRoomValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Room service initialized", "database", cfg.MongoDatabaseName, "cache", cfg.Client.Redis != nil)
	return roomService
}
