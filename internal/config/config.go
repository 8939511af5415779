package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port          string
	AllowedOrigin string

	// Storage: REDIS_URL selects the Redis backend, otherwise blobs live
	// as files under DataDir
	DataDir  string
	RedisURL string

	// Viewer sessions
	HeartbeatInterval time.Duration
	RequestTimeout    time.Duration
	AccountCooldown   time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "3000"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
		DataDir:       getEnv("DATA_DIR", "data"),
		RedisURL:      getEnv("REDIS_URL", ""),
	}

	var err error
	cfg.HeartbeatInterval, err = time.ParseDuration(getEnv("HEARTBEAT_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HEARTBEAT_INTERVAL: %w", err)
	}

	cfg.RequestTimeout, err = time.ParseDuration(getEnv("REQUEST_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	cfg.AccountCooldown, err = time.ParseDuration(getEnv("ACCOUNT_COOLDOWN", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACCOUNT_COOLDOWN: %w", err)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
