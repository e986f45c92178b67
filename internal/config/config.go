package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the point-of-sale service
type Config struct {
	ServiceName    string
	DBDriver       string
	DBDSN          string
	HTTPPort       string
	GRPCPort       string
	RabbitMQURL    string
	LogLevel       string
	StoreName      string
	ReceiptFooter  string
	ReceiptDir     string
	Timezone       string
	ReportCron     string
	MetricsEnabled bool
	ServerURL      string
}

// Load reads an optional env file and then the process environment.
// A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		ServiceName:    getEnv("SERVICE_NAME", "pos"),
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:          getEnv("DB_DSN", "file:tokobangunan.db?_foreign_keys=on"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		GRPCPort:       getEnv("GRPC_PORT", "50051"),
		RabbitMQURL:    os.Getenv("RABBITMQ_URL"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StoreName:      getEnv("STORE_NAME", "TOKO BANGUNAN MAKMUR JAYA"),
		ReceiptFooter:  getEnv("RECEIPT_FOOTER", "Terima kasih sudah berbelanja!"),
		ReceiptDir:     getEnv("RECEIPT_DIR", "receipts"),
		Timezone:       getEnv("TIMEZONE", "Asia/Jakarta"),
		ReportCron:     getEnv("REPORT_CRON", "0 21 * * *"),
		MetricsEnabled: getEnv("METRICS_ENABLED", "true") == "true",
		ServerURL:      os.Getenv("POS_SERVER_URL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures required fields are populated and well formed
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}

	if c.DBDSN == "" {
		return errors.New("DB_DSN must be provided")
	}
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT must be provided")
	}
	if c.GRPCPort == "" {
		return errors.New("GRPC_PORT must be provided")
	}
	if c.StoreName == "" {
		return errors.New("STORE_NAME must not be empty")
	}
	if c.ReportCron == "" {
		return errors.New("REPORT_CRON must be provided")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q is invalid: %w", c.Timezone, err)
	}

	return nil
}

// Location returns the store time zone used for calendar-day grouping
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
