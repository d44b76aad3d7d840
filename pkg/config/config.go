package config

import (
	"fmt"
	"os"
	"paradisian/pkg/client"
	"paradisian/pkg/logger"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	KafkaEnabled       bool
	BookingEventsTopic string
	BookingEventsDLQ   string
	ReconcilerGroupID  string

	ConfirmationCodeLength   int
	ConfirmationCodeAttempts int
	RoomLockTTL              time.Duration
	RoomLockWait             time.Duration
	RoomVersionRetries       int
	OverlapPolicy            string

	ReconcileInterval    time.Duration
	ReconcileGracePeriod time.Duration
	ReconcileBatchSize   int

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	loadEnvFile()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		JWTSecret:  getEnvStr(EnvJWTSecret, ""),
		JWTTTL:     getEnvDuration(EnvJWTTTL, DefaultJWTTTL),
		BcryptCost: getEnvNum(EnvBcryptCost, DefaultBcryptCost),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),
		CacheTTL:      getEnvDuration(EnvCacheTTL, DefaultCacheTTL),

		KafkaEnabled:       getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		BookingEventsTopic: getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),
		BookingEventsDLQ:   getEnvStr(EnvBookingEventsDLQ, DefaultBookingEventsDLQ),
		ReconcilerGroupID:  getEnvStr(EnvReconcilerGroupID, DefaultReconcilerGroupID),

		ConfirmationCodeLength:   getEnvNum(EnvConfirmationCodeLength, DefaultConfirmationCodeLength),
		ConfirmationCodeAttempts: getEnvNum(EnvConfirmationCodeAttempts, DefaultConfirmationCodeAttempts),
		RoomLockTTL:              getEnvDuration(EnvRoomLockTTL, DefaultRoomLockTTL),
		RoomLockWait:             getEnvDuration(EnvRoomLockWait, DefaultRoomLockWait),
		RoomVersionRetries:       getEnvNum(EnvRoomVersionRetries, DefaultRoomVersionRetries),
		OverlapPolicy:            getEnvStr(EnvOverlapPolicy, DefaultOverlapPolicy),

		ReconcileInterval:    getEnvDuration(EnvReconcileInterval, DefaultReconcileInterval),
		ReconcileGracePeriod: getEnvDuration(EnvReconcileGracePeriod, DefaultReconcileGracePeriod),
		ReconcileBatchSize:   getEnvNum(EnvReconcileBatchSize, DefaultReconcileBatchSize),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// loadEnvFile reads ENV_FILE (default ".env") into the process environment.
// Variables already set in the environment win over the file.
func loadEnvFile() {
	path := getEnvStr(EnvFile, ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects the optional cache. An empty REDIS_ADDR leaves caching disabled.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		cfg.Log.Info("Redis address not configured, caching disabled")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

// RequireJWTSecret stops the process when a service that issues or checks
// access tokens starts without a signing secret.
func (cfg *Config) RequireJWTSecret() {
	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET must be set for this service")
	}
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	positiveDurations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"JWTTTL", cfg.JWTTTL},
		{"CacheTTL", cfg.CacheTTL},
		{"RoomLockTTL", cfg.RoomLockTTL},
		{"ReconcileInterval", cfg.ReconcileInterval},
	}
	for _, d := range positiveDurations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}
	if cfg.RoomLockWait < 0 {
		errors = append(errors, fmt.Sprintf("RoomLockWait cannot be negative, got: %s", cfg.RoomLockWait))
	}
	if cfg.ReconcileGracePeriod < 0 {
		errors = append(errors, fmt.Sprintf("ReconcileGracePeriod cannot be negative, got: %s", cfg.ReconcileGracePeriod))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < 16 {
		errors = append(errors, "JWTSecret must be at least 16 characters long")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		errors = append(errors, fmt.Sprintf("BcryptCost must be between 4 and 31, got: %d", cfg.BcryptCost))
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	if cfg.KafkaEnabled && cfg.BookingEventsTopic == "" {
		errors = append(errors, "BookingEventsTopic cannot be empty when Kafka is enabled")
	}

	if cfg.ConfirmationCodeLength < 6 || cfg.ConfirmationCodeLength > 32 {
		errors = append(errors, fmt.Sprintf("ConfirmationCodeLength must be between 6 and 32, got: %d", cfg.ConfirmationCodeLength))
	}
	if cfg.ConfirmationCodeAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("ConfirmationCodeAttempts must be positive, got: %d", cfg.ConfirmationCodeAttempts))
	}
	if cfg.RoomVersionRetries < 0 {
		errors = append(errors, fmt.Sprintf("RoomVersionRetries cannot be negative, got: %d", cfg.RoomVersionRetries))
	}
	if cfg.OverlapPolicy != OverlapPolicyConservative && cfg.OverlapPolicy != OverlapPolicyHalfOpen {
		errors = append(errors, fmt.Sprintf("OverlapPolicy must be one of [%s, %s], got: %s", OverlapPolicyConservative, OverlapPolicyHalfOpen, cfg.OverlapPolicy))
	}
	if cfg.ReconcileBatchSize <= 0 {
		errors = append(errors, fmt.Sprintf("ReconcileBatchSize must be positive, got: %d", cfg.ReconcileBatchSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"jwt_secret_set", cfg.JWTSecret != "",
		"jwt_ttl", cfg.JWTTTL,
		"bcrypt_cost", cfg.BcryptCost,
		"redis_addr", cfg.RedisAddr,
		"redis_db", cfg.RedisDB,
		"cache_ttl", cfg.CacheTTL,
		"kafka_enabled", cfg.KafkaEnabled,
		"booking_events_topic", cfg.BookingEventsTopic,
		"confirmation_code_length", cfg.ConfirmationCodeLength,
		"confirmation_code_attempts", cfg.ConfirmationCodeAttempts,
		"room_lock_ttl", cfg.RoomLockTTL,
		"room_lock_wait", cfg.RoomLockWait,
		"room_version_retries", cfg.RoomVersionRetries,
		"overlap_policy", cfg.OverlapPolicy,
		"reconcile_interval", cfg.ReconcileInterval,
		"reconcile_grace_period", cfg.ReconcileGracePeriod,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		return DefaultPaginationLimit
	}
	return min(limit, MaxPaginationLimit)
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
