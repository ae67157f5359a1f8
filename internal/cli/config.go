package cli

import (
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/fundme/internal/storage"
)

type Config struct {
	APIURL      string        // Banking API root (default: http://localhost:4000/api)
	HTTPTimeout time.Duration // Per request timeout (default: 10s)
	Password    string        // Optional: login password when -p is not given

	Storage storage.Config // Where the session is kept (default: sqlite fundme.db)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: warn)
	LogFormat string // Log format (json, text) (default: text)
	Metrics   bool   // Print session metrics after each command (default: false)
}

func LoadConfig() Config {
	return Config{
		APIURL:      getEnvOrDefault("FUNDME_API_URL", "http://localhost:4000/api"),
		HTTPTimeout: getEnvDurationOrDefault("FUNDME_HTTP_TIMEOUT", 10*time.Second),
		Password:    os.Getenv("FUNDME_PASSWORD"),
		Storage: storage.Config{
			Driver:      getEnvOrDefault("FUNDME_STORE", storage.DriverSQLite),
			DBFile:      getEnvOrDefault("FUNDME_DB_FILE", "fundme.db"),
			RedisAddr:   os.Getenv("FUNDME_REDIS_ADDR"),
			RedisPrefix: getEnvOrDefault("FUNDME_REDIS_PREFIX", "fundme:"),
		},
		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "warn"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),
		Metrics:   getEnvBoolOrDefault("FUNDME_METRICS", false),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
