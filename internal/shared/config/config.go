package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// JWT configuration
	JWT JWTConfig

	// Booking policy
	Booking BookingConfig

	// Kafka configuration
	Kafka KafkaConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Logging
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	CacheTTL time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret       string
	JWTExpiresIn time.Duration
}

// BookingConfig holds the reservation and refund policy. Every boundary the
// booking core enforces lives here rather than inline in the engines.
type BookingConfig struct {
	// HoldDuration is the time a HELD booking keeps its units before expiry.
	HoldDuration time.Duration
	// MaxUnitsPerRequest caps how many units a single reservation may claim.
	MaxUnitsPerRequest int

	// ReserveLockTTL is the expiry on the per-event reservation mutex.
	ReserveLockTTL time.Duration
	// ReserveLockWait bounds how long a reservation waits to acquire the mutex
	// before the request is rejected as retryable.
	ReserveLockWait time.Duration
	// ConfirmLockTTL is the expiry on the per-booking confirmation mutex. It
	// must exceed the payment round-trip so the lock cannot lapse mid-charge.
	ConfirmLockTTL time.Duration

	// ReaperInterval is how often the expiry sweep runs.
	ReaperInterval time.Duration
	// ReaperBatchSize is the number of expired holds processed per sweep.
	ReaperBatchSize int

	// CancelCutoff: a CONFIRMED booking is not cancellable once the event
	// starts within this window.
	CancelCutoff time.Duration
	// RefundFullWindow: cancelling at least this long before the event refunds
	// 100%. Between CancelCutoff and RefundFullWindow the partial rate applies.
	RefundFullWindow time.Duration
	// RefundPartialPercent is the refund percentage inside the partial window.
	RefundPartialPercent float64

	// PaymentCurrency is the currency charged for bookings.
	PaymentCurrency string
}

// KafkaConfig holds Kafka configuration for the notification pipeline
type KafkaConfig struct {
	Enabled           bool
	Brokers           []string
	NotificationTopic string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	PublicRequests  int           `json:"public_requests"`
	BookingRequests int           `json:"booking_requests"`
	AdminRequests   int           `json:"admin_requests"`
	WhitelistedIPs  []string      `json:"whitelisted_ips"`
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		// Database configuration
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "ticketd_db"),
			User:     getEnv("DB_USER", "ticketd_user"),
			Password: getEnv("DB_PASSWORD", "ticketd_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		// Redis configuration
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),

			CacheTTL: getDurationEnv("REDIS_CACHE_TTL", 30*time.Second),
		},

		// JWT configuration
		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
			JWTExpiresIn: getDurationEnv("JWT_EXPIRES_IN", 15*time.Minute),
		},

		// Booking policy
		Booking: BookingConfig{
			HoldDuration:       getDurationEnv("BOOKING_HOLD_DURATION", 15*time.Minute),
			MaxUnitsPerRequest: getIntEnv("BOOKING_MAX_UNITS_PER_REQUEST", 10),

			ReserveLockTTL:  getDurationEnv("BOOKING_RESERVE_LOCK_TTL", 30*time.Second),
			ReserveLockWait: getDurationEnv("BOOKING_RESERVE_LOCK_WAIT", 5*time.Second),
			ConfirmLockTTL:  getDurationEnv("BOOKING_CONFIRM_LOCK_TTL", 30*time.Second),

			ReaperInterval:  getDurationEnv("BOOKING_REAPER_INTERVAL", 30*time.Second),
			ReaperBatchSize: getIntEnv("BOOKING_REAPER_BATCH_SIZE", 100),

			CancelCutoff:         getDurationEnv("BOOKING_CANCEL_CUTOFF", 24*time.Hour),
			RefundFullWindow:     getDurationEnv("BOOKING_REFUND_FULL_WINDOW", 7*24*time.Hour),
			RefundPartialPercent: getFloatEnv("BOOKING_REFUND_PARTIAL_PERCENT", 80),

			PaymentCurrency: getEnv("BOOKING_PAYMENT_CURRENCY", "USD"),
		},

		// Kafka configuration
		Kafka: KafkaConfig{
			Enabled:           getBoolEnv("KAFKA_ENABLED", false),
			Brokers:           getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			NotificationTopic: getEnv("KAFKA_NOTIFICATION_TOPIC", "booking-notifications"),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:         getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:  getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests: getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:  getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 100),
			BookingRequests: getIntEnv("RATE_LIMIT_BOOKING_REQUESTS", 20),
			AdminRequests:   getIntEnv("RATE_LIMIT_ADMIN_REQUESTS", 200),
			WhitelistedIPs:  getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getFloatEnv gets a float environment variable with a fallback value
func getFloatEnv(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
