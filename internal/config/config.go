package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Log       LogConfig
	Portfolio PortfolioConfig
	Oracle    OracleConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Pretty bool
}

// PortfolioConfig holds the accounting defaults
type PortfolioConfig struct {
	DefaultID          string
	DefaultInitialCash float64
	RiskFreeRate       float64 // annual, as a fraction (0.02 = 2%)
	SnapshotOnTrade    bool
}

// OracleConfig holds the price oracle configuration
type OracleConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SchedulerConfig holds cron schedules for background jobs.
// An empty schedule disables the job.
type SchedulerConfig struct {
	SnapshotSchedule      string
	AutoStrategySchedule  string
	AutoStrategyTickers   []string
	AutoStrategy          string
	AutoStrategyPortfolio string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	initialCash, err := getEnvFloat("DEFAULT_INITIAL_CASH", 100000)
	if err != nil {
		return nil, err
	}
	riskFree, err := getEnvFloat("RISK_FREE_RATE", 0.02)
	if err != nil {
		return nil, err
	}
	oracleTimeout, err := time.ParseDuration(getEnv("ORACLE_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORACLE_TIMEOUT: %w", err)
	}
	snapshotOnTrade, err := getEnvBool("SNAPSHOT_ON_TRADE", false)
	if err != nil {
		return nil, err
	}
	logPretty, err := getEnvBool("LOG_PRETTY", false)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/paper_trader.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS",
				"http://localhost:5173,http://localhost:5175,http://127.0.0.1:5173,http://127.0.0.1:5175")),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: logPretty,
		},
		Portfolio: PortfolioConfig{
			DefaultID:          getEnv("DEFAULT_PORTFOLIO_ID", "default"),
			DefaultInitialCash: initialCash,
			RiskFreeRate:       riskFree,
			SnapshotOnTrade:    snapshotOnTrade,
		},
		Oracle: OracleConfig{
			BaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout: oracleTimeout,
		},
		Scheduler: SchedulerConfig{
			SnapshotSchedule:      getEnv("SNAPSHOT_SCHEDULE", "0 0 22 * * MON-FRI"),
			AutoStrategySchedule:  getEnv("AUTO_STRATEGY_SCHEDULE", ""),
			AutoStrategyTickers:   splitList(getEnv("AUTO_STRATEGY_TICKERS", "")),
			AutoStrategy:          getEnv("AUTO_STRATEGY", "momentum"),
			AutoStrategyPortfolio: getEnv("AUTO_STRATEGY_PORTFOLIO", "default"),
		},
	}

	if config.Portfolio.DefaultInitialCash <= 0 {
		return nil, fmt.Errorf("DEFAULT_INITIAL_CASH must be positive, got %v", config.Portfolio.DefaultInitialCash)
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// splitList splits a comma separated value, dropping empty entries.
func splitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
