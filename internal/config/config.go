// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for the portfolio database (always absolute)
	LogLevel       string
	Port           int
	DevMode        bool
	ReportSchedule string // cron expression for scheduled report recomputation, empty disables it
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("REPORT_DATA_DIR", "data")
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir %q: %w", dataDir, err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %q: %w", absDir, err)
	}

	port, err := strconv.Atoi(getEnv("REPORT_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_PORT: %w", err)
	}

	return &Config{
		DataDir:        absDir,
		LogLevel:       getEnv("REPORT_LOG_LEVEL", "info"),
		Port:           port,
		DevMode:        getEnv("REPORT_DEV_MODE", "") == "true",
		ReportSchedule: getEnv("REPORT_SCHEDULE", ""),
	}, nil
}

// DatabasePath returns the absolute path of the portfolio database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "portfolio.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
