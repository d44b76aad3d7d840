package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "paradisian"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultJWTTTL     = 7 * 24 * time.Hour
	DefaultBcryptCost = 10

	DefaultRedisAddr = ""
	DefaultRedisDB   = 0
	DefaultCacheTTL  = 5 * time.Minute

	DefaultKafkaEnabled       = false
	DefaultBookingEventsTopic = "booking-events"
	DefaultBookingEventsDLQ   = "booking-events-dlq"
	DefaultReconcilerGroupID  = "booking-reconciler"

	DefaultConfirmationCodeLength   = 10
	DefaultConfirmationCodeAttempts = 5
	DefaultRoomLockTTL              = 10 * time.Second
	DefaultRoomLockWait             = 2 * time.Second
	DefaultRoomVersionRetries       = 3
	DefaultOverlapPolicy            = OverlapPolicyConservative

	DefaultReconcileInterval    = 5 * time.Minute
	DefaultReconcileGracePeriod = 2 * time.Minute
	DefaultReconcileBatchSize   = 500

	DefaultPaginationLimit = 10
	MaxPaginationLimit     = 100
)

const (
	OverlapPolicyConservative = "conservative"
	OverlapPolicyHalfOpen     = "half-open"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// TokenIssuer is the iss claim shared by every service that issues or
// checks access tokens.
const TokenIssuer = "paradisian"
