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
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	App      AppConfig
	Gateway  GatewayConfig
	Accrual  AccrualConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// RedisConfig holds settings for the optional distributed cycle lease
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret               string
	ReferralEligibility     string // "ungated" or "tiered"
	RefundFailedWithdrawals bool
	MinWithdrawal           string
}

// GatewayConfig holds payment gateway settings
type GatewayConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// AccrualConfig holds accrual cycle scheduling settings
type AccrualConfig struct {
	Interval time.Duration
	LeaseTTL time.Duration
	UseRedis bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "investment_platform"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret:               getEnv("JWT_SECRET", ""),
			ReferralEligibility:     getEnv("REFERRAL_ELIGIBILITY", "ungated"),
			RefundFailedWithdrawals: getEnvBool("REFUND_FAILED_WITHDRAWALS", true),
			MinWithdrawal:           getEnv("MIN_WITHDRAWAL", "10"),
		},
		Gateway: GatewayConfig{
			BaseURL: getEnv("GATEWAY_URL", "http://localhost:9090"),
			APIKey:  getEnv("GATEWAY_API_KEY", ""),
			Timeout: getEnvDuration("GATEWAY_TIMEOUT", 30*time.Second),
		},
		Accrual: AccrualConfig{
			Interval: getEnvDuration("ACCRUAL_INTERVAL", 24*time.Hour),
			LeaseTTL: getEnvDuration("ACCRUAL_LEASE_TTL", 30*time.Minute),
			UseRedis: getEnvBool("ACCRUAL_USE_REDIS", false),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.App.ReferralEligibility != "ungated" && config.App.ReferralEligibility != "tiered" {
		return nil, fmt.Errorf("REFERRAL_ELIGIBILITY must be \"ungated\" or \"tiered\"")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
