// Package config provides configuration management for the portfolio snapshot pipeline.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL string
	Server      ServerConfig
	Redis       RedisConfig
	Quote       QuoteConfig
	Wallet      WalletConfig
	Pipeline    PipelineConfig
	Logging     LoggingConfig
}

// ServerConfig holds the read-side API server configuration
type ServerConfig struct {
	Host string
	Port string
}

// RedisConfig holds Redis configuration for the rate cache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// QuoteConfig holds price-quote provider configuration
type QuoteConfig struct {
	BaseURL           string
	RequestsPerSecond float64
}

// WalletConfig holds wallet RPC provider configuration
type WalletConfig struct {
	RPCURL            string
	APIKey            string
	RequestsPerSecond float64
}

// PipelineConfig holds valuation pipeline tuning
type PipelineConfig struct {
	// DustThreshold is the minimum USD value a wallet asset must exceed to be recorded.
	DustThreshold decimal.Decimal
	// DefaultNativeRate is the cold-start SOL/USD rate used when no observation exists yet.
	DefaultNativeRate decimal.Decimal
	// RateCacheTTL bounds how long a cached native-asset rate may be reused.
	RateCacheTTL time.Duration
	// MaxPostgresConns caps the storage connection pool.
	MaxPostgresConns int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables.
// DATABASE_URL and HELIUS_API_KEY are required; everything else has defaults.
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Quote: QuoteConfig{
			BaseURL:           getEnv("QUOTE_BASE_URL", "https://query1.finance.yahoo.com"),
			RequestsPerSecond: getEnvAsFloat("QUOTE_RPS", 2.0),
		},
		Wallet: WalletConfig{
			RPCURL:            getEnv("HELIUS_RPC_URL", "https://mainnet.helius-rpc.com"),
			APIKey:            getEnv("HELIUS_API_KEY", ""),
			RequestsPerSecond: getEnvAsFloat("HELIUS_RPS", 5.0),
		},
		Pipeline: PipelineConfig{
			DustThreshold:     getEnvAsDecimal("DUST_THRESHOLD", decimal.NewFromInt(10)),
			DefaultNativeRate: getEnvAsDecimal("DEFAULT_SOL_RATE", decimal.NewFromInt(20)),
			RateCacheTTL:      getEnvAsDuration("RATE_CACHE_TTL", 15*time.Minute),
			MaxPostgresConns:  getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that required inputs are present
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Wallet.APIKey == "" {
		return fmt.Errorf("HELIUS_API_KEY is required")
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDecimal gets an environment variable as a decimal with a default value
func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
