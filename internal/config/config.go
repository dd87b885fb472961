package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"frizo/amm_risk_engine/internal/tradesize"
	"frizo/amm_risk_engine/pkg/utils"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// ConfigError names the setting that failed to load or validate.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Config holds the application configuration.
type Config struct {
	// Logging configuration
	LogLevel string
	LogFile  string // rotating log file, empty for stdout only

	// Application configuration
	Environment   string
	SnapshotFile  string
	MaxIterations int // position solver cap
}

// Load loads the configuration from environment variables.
func Load() *Config {
	config := &Config{
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		Environment:   getEnv("ENVIRONMENT", "development"),
		SnapshotFile:  getEnv("SNAPSHOT_FILE", "snapshot.yaml"),
		MaxIterations: getEnvAsInt("MAX_ITERATIONS", tradesize.MaxIterations),
	}

	return config
}

// Validate checks the loaded settings.
func (c *Config) Validate() error {
	if !utils.Contains(logLevels, strings.ToLower(c.LogLevel)) {
		return &ConfigError{Field: "LOG_LEVEL", Err: fmt.Errorf("%w: unknown level %q", ErrInvalidConfig, c.LogLevel)}
	}
	if c.MaxIterations < 1 || c.MaxIterations > tradesize.MaxIterations {
		return &ConfigError{Field: "MAX_ITERATIONS", Err: fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidConfig, c.MaxIterations, tradesize.MaxIterations)}
	}
	if c.SnapshotFile == "" {
		return &ConfigError{Field: "SNAPSHOT_FILE", Err: fmt.Errorf("%w: empty path", ErrInvalidConfig)}
	}
	return nil
}

// IsProduction reports ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

// getEnvAsInt gets an environment variable as integer with a default value.
func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
