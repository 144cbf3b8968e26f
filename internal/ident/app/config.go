package app

import (
	"os"
	"strconv"
	"time"

	"github.com/stackworks/ident/pkg/jwtx"
)

type Config struct {
	Issuer        string // Required: issuer claim for tokens
	Audience      string // Optional: audience claim for tokens (default: issuer)
	AccessSecret  string // Required: HMAC secret for access tokens
	RefreshSecret string // Required: HMAC secret for refresh tokens

	AccessTTL            time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL           time.Duration // Optional: refresh token lifetime (default: 7 days)
	DatabaseFile         string        // Optional: path to SQLite database file (default: ./ident.db)
	SessionBackend       string        // Optional: session driver (sqlite, redis) (default: sqlite)
	RedisAddr            string        // Optional: redis address for the redis session backend
	RedisPassword        string        // Optional: redis password
	RedisDB              int           // Optional: redis database number (default: 0)
	FrontendURL          string        // Optional: base URL for links in outbound mail (default: http://localhost:3000)
	PepperFile           string        // Optional: path to file containing pepper for password hashing (default: ./pepper)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:               getEnvOrDefault("IDENT_ISSUER", "ident"),
		Audience:             os.Getenv("IDENT_AUDIENCE"),
		AccessSecret:         os.Getenv("IDENT_ACCESS_SECRET"),
		RefreshSecret:        os.Getenv("IDENT_REFRESH_SECRET"),
		AccessTTL:            getEnvDurationOrDefault("IDENT_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:           getEnvDurationOrDefault("IDENT_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		DatabaseFile:         getEnvOrDefault("IDENT_DATABASE_FILE", "ident.db"),
		SessionBackend:       getEnvOrDefault("IDENT_SESSION_BACKEND", "sqlite"),
		RedisAddr:            os.Getenv("IDENT_REDIS_ADDR"),
		RedisPassword:        os.Getenv("IDENT_REDIS_PASSWORD"),
		RedisDB:              getEnvIntOrDefault("IDENT_REDIS_DB", 0),
		FrontendURL:          getEnvOrDefault("IDENT_FRONTEND_URL", "http://localhost:3000"),
		PepperFile:           getEnvOrDefault("IDENT_PEPPER_FILE", "pepper"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.Audience == "" {
		cfg.Audience = cfg.Issuer
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
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

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
