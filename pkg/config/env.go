package config

const (
	EnvFile = "ENV_FILE"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvJWTSecret  = "JWT_SECRET"
	EnvJWTTTL     = "JWT_TTL"
	EnvBcryptCost = "BCRYPT_COST"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"
	EnvCacheTTL      = "CACHE_TTL"

	EnvKafkaEnabled       = "KAFKA_ENABLED"
	EnvBookingEventsTopic = "BOOKING_EVENTS_TOPIC"
	EnvBookingEventsDLQ   = "BOOKING_EVENTS_DLQ_TOPIC"
	EnvReconcilerGroupID  = "RECONCILER_GROUP_ID"

	EnvConfirmationCodeLength   = "CONFIRMATION_CODE_LENGTH"
	EnvConfirmationCodeAttempts = "CONFIRMATION_CODE_ATTEMPTS"
	EnvRoomLockTTL              = "ROOM_LOCK_TTL"
	EnvRoomLockWait             = "ROOM_LOCK_WAIT"
	EnvRoomVersionRetries       = "ROOM_VERSION_RETRIES"
	EnvOverlapPolicy            = "OVERLAP_POLICY"

	EnvReconcileInterval    = "RECONCILE_INTERVAL"
	EnvReconcileGracePeriod = "RECONCILE_GRACE_PERIOD"
	EnvReconcileBatchSize   = "RECONCILE_BATCH_SIZE"
)
