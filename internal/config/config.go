// Package config provides configuration management for the copy-trading
// backend. It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Market    MarketConfig
	Mirror    MirrorConfig
	Trigger   TriggerConfig
	Insight   InsightConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// MarketConfig holds market data provider configuration
type MarketConfig struct {
	// Provider selects the quote source: "simulated" or "chain"
	Provider string
	// RPCURL is the JSON-RPC endpoint used when Provider is "chain"
	RPCURL string
	// QuoteTTL bounds how long a cached quote stays fresh
	QuoteTTL time.Duration
	// LeaderboardTTL bounds how long a cached leaderboard page stays fresh
	LeaderboardTTL time.Duration
	// Seed controls the simulated price walk so runs are reproducible
	Seed int64
}

// MirrorConfig holds trade mirroring configuration
type MirrorConfig struct {
	Enabled      bool
	PollInterval time.Duration
	// FeedBuffer is the channel capacity between the feed and the mirror loop
	FeedBuffer int
}

// TriggerConfig holds stop-loss/take-profit worker configuration
type TriggerConfig struct {
	Enabled      bool
	PollInterval time.Duration
	BatchSize    int
}

// InsightConfig holds AI insight provider configuration
type InsightConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// RateLimitConfig holds per-user request rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "copytrade"),
				User:           getEnv("POSTGRES_USER", "copytrade"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 100),
			},
			ClickHouse: ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", "localhost"),
				Port:     getEnv("CLICKHOUSE_PORT", "9000"),
				Database: getEnv("CLICKHOUSE_DB", "copytrade"),
				User:     getEnv("CLICKHOUSE_USER", "default"),
				Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 50),
			},
		},
		Market: MarketConfig{
			Provider:       getEnv("MARKET_PROVIDER", "simulated"),
			RPCURL:         getEnv("MARKET_RPC_URL", ""),
			QuoteTTL:       getEnvAsDuration("MARKET_QUOTE_TTL", 10*time.Second),
			LeaderboardTTL: getEnvAsDuration("MARKET_LEADERBOARD_TTL", 30*time.Second),
			Seed:           int64(getEnvAsInt("MARKET_SEED", 0)),
		},
		Mirror: MirrorConfig{
			Enabled:      getEnvAsBool("MIRROR_ENABLED", true),
			PollInterval: getEnvAsDuration("MIRROR_POLL_INTERVAL", 5*time.Second),
			FeedBuffer:   getEnvAsInt("MIRROR_FEED_BUFFER", 256),
		},
		Trigger: TriggerConfig{
			Enabled:      getEnvAsBool("TRIGGER_ENABLED", true),
			PollInterval: getEnvAsDuration("TRIGGER_POLL_INTERVAL", 10*time.Second),
			BatchSize:    getEnvAsInt("TRIGGER_BATCH_SIZE", 200),
		},
		Insight: InsightConfig{
			Endpoint: getEnv("INSIGHT_ENDPOINT", ""),
			APIKey:   getEnv("INSIGHT_API_KEY", ""),
			Timeout:  getEnvAsDuration("INSIGHT_TIMEOUT", 15*time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 600),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 30),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
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

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
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
