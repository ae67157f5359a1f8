package app

import (
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/fundme/internal/storage"
)

type Config struct {
	SigningKey   string        // Optional: HS256 key for access credentials (default: random per process)
	AccessTTL    time.Duration // Optional: access credential lifetime (default: 15m)
	RefreshTTL   time.Duration // Optional: refresh token lifetime (default: 7 days)
	DemoPassword string        // Optional: password of the seeded accounts (default: generated and logged)

	Storage storage.Config // Refresh token store (default: memory)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 4000)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		SigningKey:   os.Getenv("MOCKAPI_SIGNING_KEY"),
		AccessTTL:    getEnvDurationOrDefault("MOCKAPI_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:   getEnvDurationOrDefault("MOCKAPI_REFRESH_TTL", 7*24*time.Hour),
		DemoPassword: os.Getenv("MOCKAPI_DEMO_PASSWORD"),
		Storage: storage.Config{
			Driver:      getEnvOrDefault("MOCKAPI_STORE", storage.DriverMemory),
			DBFile:      getEnvOrDefault("MOCKAPI_DB_FILE", "mockapi.db"),
			RedisAddr:   os.Getenv("MOCKAPI_REDIS_ADDR"),
			RedisPrefix: getEnvOrDefault("MOCKAPI_REDIS_PREFIX", "mockapi:"),
		},
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 4000),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if intValue, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
