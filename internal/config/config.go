package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"invoicetools/internal/logger"
)

type Config struct {
	// Input files
	InvoicesFile        string
	ExpiredInvoicesFile string

	// Output
	OutputFile string
	SampleRows int

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	sampleRows, err := getEnvInt("SAMPLE_ROWS", 5)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	config := &Config{
		InvoicesFile:         getEnv("INVOICES_FILE", ""),
		ExpiredInvoicesFile:  getEnv("EXPIRED_INVOICES_FILE", ""),
		OutputFile:           getEnv("OUTPUT_FILE", ""),
		SampleRows:           sampleRows,
		GoogleSheetURL:       getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet: getEnv("GOOGLE_SHEET_WORKSHEET", "LineItems"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:        getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:            getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	if c.SampleRows < 0 {
		return fmt.Errorf("SAMPLE_ROWS must not be negative")
	}
	if c.GoogleSheetURL != "" && c.GoogleSheetWorksheet == "" {
		return fmt.Errorf("GOOGLE_SHEET_WORKSHEET is required when GOOGLE_SHEET_URL is set")
	}
	return nil
}

// Default returns the configuration used when Load fails.
func Default() *Config {
	lc := logger.DefaultConfig()
	return &Config{
		SampleRows:           5,
		GoogleSheetWorksheet: "LineItems",
		LogLevel:             lc.Level,
		LogFormat:            lc.Format,
		LogTimeFormat:        lc.TimeFormat,
		LogOutput:            lc.Output,
	}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
