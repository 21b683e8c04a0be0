// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the server.
type Config struct {
	// Port the HTTP server listens on.
	Port int

	// DBPath is the SQLite database file location.
	DBPath string

	// JWTSecret signs session tokens. Required.
	JWTSecret string

	// TokenDuration is how long issued tokens stay valid.
	TokenDuration time.Duration
}

// Load reads the configuration from environment variables, after loading a
// .env file if one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Only return error if file exists but couldn't be loaded
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	port, err := strconv.Atoi(getEnvWithDefault("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	hours, err := strconv.Atoi(getEnvWithDefault("TOKEN_DURATION_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_DURATION_HOURS: %w", err)
	}

	cfg := &Config{
		Port:          port,
		DBPath:        getEnvWithDefault("DB_PATH", "./data/pokernight.db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenDuration: time.Duration(hours) * time.Hour,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks if all required configuration is present.
func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenDuration <= 0 {
		return fmt.Errorf("TOKEN_DURATION_HOURS must be positive")
	}
	return nil
}

// getEnvWithDefault returns environment variable value or default if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
