package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"reportai/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string `validate:"required,oneof=postgres sqlite"`
	URL    string `validate:"required"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string        `validate:"required,numeric"`
	GinMode         string        `validate:"oneof=debug release test"`
	MaxUploadMB     int           `validate:"min=1,max=1024"`
	ShutdownTimeout time.Duration `validate:"min=0"`
}

// LoggingConfig holds structured logging settings
type LoggingConfig struct {
	Level    string `validate:"oneof=debug info warn error"`
	Output   string `validate:"oneof=stdout file both"`
	FilePath string
}

// MaxUploadBytes returns the upload limit in bytes
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: loadDatabaseConfig(),
		Server:   loadServerConfig(),
		Logging:  loadLoggingConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver: getEnvOrDefault("DATABASE_DRIVER", "postgres"),
		URL:    os.Getenv("DATABASE_URL"),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		GinMode:         getEnvOrDefault("GIN_MODE", "release"),
		MaxUploadMB:     getEnvIntOrDefault("MAX_UPLOAD_MB", 50),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:    getEnvOrDefault("LOG_LEVEL", "info"),
		Output:   getEnvOrDefault("LOG_OUTPUT", "stdout"),
		FilePath: getEnvOrDefault("LOG_FILE", "logs/reportai.log"),
	}
}

var validate = validator.New()

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	if err := validate.Struct(config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
