package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"btcspot/internal/adapters/logger" // Import the logger package for LogLevel
	"btcspot/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// CoinGecko API
	APIKey     string // Optional pro credential; empty disables bulk-history fetch
	BaseURL    string // Public API base URL
	ProBaseURL string // Pro API base URL, used only when APIKey is set
	CoinID     string // e.g. "bitcoin"
	VsCurrency string // e.g. "usd"

	// History
	RemoteHistoryURL string      // Published copy of the latest CSV; empty disables the remote source
	HistoryStart     domain.Date // Earliest date covered by a bulk-history backfill

	// Output
	OutputDir string // Directory for dated and latest CSV artifacts
	IndexPath string // Path of the regenerated redirect page

	// Archive
	ArchiveEnabled bool
	DBPath         string

	// Network
	HTTPTimeout time.Duration

	// Logging
	LogLevel logger.LogLevel // Use the LogLevel type from the logger adapter
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	// CoinGecko API
	cfg.APIKey = getEnv("COINGECKO_API_KEY", "")
	cfg.BaseURL = getEnv("API_BASE_URL", "https://api.coingecko.com/api/v3")
	cfg.ProBaseURL = getEnv("PRO_API_BASE_URL", "https://pro-api.coingecko.com/api/v3")
	cfg.CoinID = getEnv("COIN_ID", "bitcoin")
	cfg.VsCurrency = getEnv("VS_CURRENCY", "usd")

	if cfg.BaseURL == "" {
		errs = append(errs, "API_BASE_URL must be set")
	}
	if cfg.CoinID == "" {
		errs = append(errs, "COIN_ID must be set")
	}
	if cfg.VsCurrency == "" {
		errs = append(errs, "VS_CURRENCY must be set")
	}

	// History
	cfg.RemoteHistoryURL = getEnv("REMOTE_HISTORY_URL", "")
	historyStartStr := getEnv("HISTORY_START", "2013-04-28")
	historyStart, err := domain.ParseDate(historyStartStr)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid HISTORY_START: %v", err))
	}
	cfg.HistoryStart = historyStart

	// Output
	cfg.OutputDir = getEnv("OUTPUT_DIR", "data")
	if cfg.OutputDir == "" {
		errs = append(errs, "OUTPUT_DIR must be set")
	}
	cfg.IndexPath = getEnv("INDEX_PATH", "index.html")
	if cfg.IndexPath == "" {
		errs = append(errs, "INDEX_PATH must be set")
	}

	// Archive
	cfg.ArchiveEnabled = getEnvAsBool("ARCHIVE_ENABLED", true)
	cfg.DBPath = getEnv("DB_PATH", "./data/btcspot.db")
	if cfg.ArchiveEnabled && cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set when ARCHIVE_ENABLED is true")
	}

	// Network
	timeoutSeconds := getEnvAsInt("HTTP_TIMEOUT_SECONDS", 30)
	if timeoutSeconds <= 0 {
		errs = append(errs, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	cfg.HTTPTimeout = time.Duration(timeoutSeconds) * time.Second

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
