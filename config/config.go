package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"stocksim/internal/adapters/logger" // Import the logger package for LogLevel
)

// Config holds all application configuration.
type Config struct {
	// Simulation Parameters
	InitialCapital float64  // Starting cash for a run
	StockPool      []string // Instruments the decision source may trade
	StartDate      string   // Simulation range start, YYYY-MM-DD
	EndDate        string   // Simulation range end, YYYY-MM-DD

	// Transaction Costs
	CommissionRate float64 // e.g., 0.0003 (3 bps, both sides)
	StampTaxRate   float64 // e.g., 0.001 (10 bps, sells only)
	MinCommission  float64 // Commission floor per trade, e.g., 5
	LotSize        int64   // Minimum tradable multiple, 100 shares

	// LLM Agent
	LLMAPIKey       string
	LLMBaseURL      string
	LLMModel        string
	LLMTemperature  float64
	APICallInterval time.Duration // Minimum gap between consecutive API calls
	MaxToolRounds   int           // Cap on tool-calling rounds per decision

	// Database
	DBPath string

	// HTTP control server
	HTTPAddr string

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Simulation Parameters
	cfg.InitialCapital, err = getEnvAsFloatRequired("INITIAL_CAPITAL", 1000000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid INITIAL_CAPITAL: %v", err))
	} else if cfg.InitialCapital <= 0 {
		errs = append(errs, "INITIAL_CAPITAL must be positive")
	}

	poolStr := getEnv("STOCK_POOL", "600519,600036,000002")
	for _, s := range strings.Split(poolStr, ",") {
		if s = strings.TrimSpace(s); s != "" {
			cfg.StockPool = append(cfg.StockPool, s)
		}
	}
	if len(cfg.StockPool) == 0 {
		errs = append(errs, "STOCK_POOL must list at least one symbol")
	}

	cfg.StartDate = getEnv("START_DATE", "2023-01-01")
	cfg.EndDate = getEnv("END_DATE", "2023-12-31")
	for _, d := range []string{cfg.StartDate, cfg.EndDate} {
		if _, perr := time.Parse("2006-01-02", d); perr != nil {
			errs = append(errs, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", d))
		}
	}
	if cfg.StartDate > cfg.EndDate {
		errs = append(errs, "START_DATE must not be after END_DATE")
	}

	// Transaction Costs
	cfg.CommissionRate, err = getEnvAsFloatRequired("COMMISSION_RATE", 0.0003)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid COMMISSION_RATE: %v", err))
	} else if cfg.CommissionRate < 0 {
		errs = append(errs, "COMMISSION_RATE cannot be negative")
	}

	cfg.StampTaxRate, err = getEnvAsFloatRequired("STAMP_TAX_RATE", 0.001)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STAMP_TAX_RATE: %v", err))
	} else if cfg.StampTaxRate < 0 {
		errs = append(errs, "STAMP_TAX_RATE cannot be negative")
	}

	cfg.MinCommission, err = getEnvAsFloatRequired("MIN_COMMISSION", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_COMMISSION: %v", err))
	} else if cfg.MinCommission < 0 {
		errs = append(errs, "MIN_COMMISSION cannot be negative")
	}

	lot := getEnvAsInt("LOT_SIZE", 100)
	if lot <= 0 {
		errs = append(errs, "LOT_SIZE must be positive")
	}
	cfg.LotSize = int64(lot)

	// LLM Agent
	cfg.LLMAPIKey = getEnv("LLM_API_KEY", "")
	cfg.LLMBaseURL = getEnv("LLM_BASE_URL", "")
	cfg.LLMModel = getEnv("LLM_MODEL", "qwen-plus")
	cfg.LLMTemperature = getEnvAsFloat("LLM_TEMPERATURE", 0.7)

	intervalSeconds := getEnvAsFloat("API_CALL_INTERVAL_SECONDS", 2)
	if intervalSeconds < 0 {
		errs = append(errs, "API_CALL_INTERVAL_SECONDS cannot be negative")
	}
	cfg.APICallInterval = time.Duration(intervalSeconds * float64(time.Second))

	cfg.MaxToolRounds = getEnvAsInt("MAX_TOOL_ROUNDS", 10)
	if cfg.MaxToolRounds <= 0 {
		errs = append(errs, "MAX_TOOL_ROUNDS must be positive")
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/stock_data.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// HTTP control server
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr)

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
