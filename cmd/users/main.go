package main

import (
	bookingsrepository "paradisian/internal/bookings/repository"
	"paradisian/internal/users/handler"
	"paradisian/internal/users/repository"
	"paradisian/internal/users/service"
	"paradisian/internal/users/validator"
	"paradisian/pkg/app"
	"paradisian/pkg/auth"
	"paradisian/pkg/config"
)

const ServiceName = "users"

func main() {
	cfg := config.Load(ServiceName)
	cfg.RequireJWTSecret()
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Users service")
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, config.TokenIssuer)
	userService := service.NewUserService(
		repository.NewMongoUserRepository(cfg),
		bookingsrepository.NewMongoBookingRepository(cfg),
		tokens,
		validator.NewUserValidator(cfg.Log),
		cfg,
	)
	cfg.Log.Info("User service initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg, tokens)
	serverApp.SetApp(handler.NewUserHandler(userService, cfg.Log))
	serverApp.OnShutdown(cfg.GracefulShutdown)
	serverApp.Run()
}
