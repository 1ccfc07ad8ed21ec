package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Price history sources
const (
	PriceSourceAPI = "api"
	PriceSourceDB  = "db"
)

// Config holds all configuration for the application.
// Load is the only place that reads the environment.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Upstream services
	StockAPI     StockAPIConfig
	AuthAPI      AuthAPIConfig
	WatchlistAPI WatchlistAPIConfig

	// Screener engine
	Screener ScreenerConfig

	// Database (stock service tables, read-only)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// StockAPIConfig describes the stock-data REST service
type StockAPIConfig struct {
	BaseURL string
	Timeout time.Duration
	Rate    float64 // requests per second, 0 = unlimited
	Burst   int
}

// AuthAPIConfig describes the authentication service
type AuthAPIConfig struct {
	BaseURL string
}

// WatchlistAPIConfig describes the watchlist service and its notification socket
type WatchlistAPIConfig struct {
	BaseURL string
	WSURL   string
}

// ScreenerConfig tunes enrichment and refresh behaviour
type ScreenerConfig struct {
	Workers         int
	PriceSource     string // api | db
	RefreshSchedule string // cron expression with seconds
	SearchDebounce  time.Duration
	AlertTolerance  float64
	AlertSchedule   string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		StockAPI: StockAPIConfig{
			BaseURL: getEnv("STOCK_API_URL", "http://localhost:8001"),
			Timeout: getEnvAsDuration("STOCK_API_TIMEOUT", "15s"),
			Rate:    getEnvAsFloat("STOCK_API_RATE", 20),
			Burst:   getEnvAsInt("STOCK_API_BURST", 10),
		},

		AuthAPI: AuthAPIConfig{
			BaseURL: getEnv("AUTH_API_URL", "http://localhost:8000"),
		},

		WatchlistAPI: WatchlistAPIConfig{
			BaseURL: getEnv("WATCHLIST_API_URL", "http://localhost:8002"),
			WSURL:   getEnv("WATCHLIST_WS_URL", "ws://localhost:8002/ws"),
		},

		Screener: ScreenerConfig{
			Workers:         getEnvAsInt("SCREENER_WORKERS", 8),
			PriceSource:     getEnv("SCREENER_PRICE_SOURCE", PriceSourceAPI),
			RefreshSchedule: getEnv("SCREENER_REFRESH_SCHEDULE", "0 */10 * * * *"),
			SearchDebounce:  getEnvAsDuration("SEARCH_DEBOUNCE", "300ms"),
			AlertTolerance:  getEnvAsFloat("ALERT_TOLERANCE", 0.01),
			AlertSchedule:   getEnv("ALERT_SCHEDULE", "0 */5 * * * *"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.StockAPI.BaseURL == "" {
		return fmt.Errorf("STOCK_API_URL is required")
	}

	switch c.Screener.PriceSource {
	case PriceSourceAPI:
	case PriceSourceDB:
		// Reading stock_prices directly needs the stock service database
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when SCREENER_PRICE_SOURCE=db")
		}
	default:
		return fmt.Errorf("SCREENER_PRICE_SOURCE must be one of: api, db")
	}

	if c.Screener.Workers < 1 {
		return fmt.Errorf("SCREENER_WORKERS must be positive")
	}

	if c.Screener.AlertTolerance < 0 {
		return fmt.Errorf("ALERT_TOLERANCE must not be negative")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
