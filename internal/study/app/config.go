package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	StorageDriver string // Storage backend (memory, sqlite) (default: sqlite)
	DatabaseFile  string // Path to SQLite database file (default: ./apstudy.db)

	LoginAttempts int           // Login attempts allowed per window, 0 disables throttling (default: 0)
	LoginWindow   time.Duration // Window for the login throttle (default: 1m)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: text)
}

func LoadConfig() Config {
	return Config{
		StorageDriver: getEnvOrDefault("STUDY_STORAGE_DRIVER", "sqlite"),
		DatabaseFile:  getEnvOrDefault("STUDY_DATABASE_FILE", "apstudy.db"),
		LoginAttempts: getEnvIntOrDefault("STUDY_LOGIN_ATTEMPTS", 0),
		LoginWindow:   getEnvDurationOrDefault("STUDY_LOGIN_WINDOW", time.Minute),
		Env:           getEnvOrDefault("ENV", "dev"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:     getEnvOrDefault("LOG_FORMAT", "text"),
	}
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

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
