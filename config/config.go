package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Price modes
const (
	PriceModeLive     = "live"
	PriceModeEstimate = "estimate"
	PriceModeAuto     = "auto"
)

// Config represents the application configuration
type Config struct {
	// Reference data directory; empty uses the embedded defaults
	DataDir string

	// Price retrieval
	PriceMode        string
	FetchTimeout     time.Duration
	EnrichTimeout    time.Duration
	ConcurrencyLimit int
	RecommendLimit   int
	EstimateDelayMin time.Duration
	EstimateDelayMax time.Duration

	// Relays tried in rotation for page retrieval, comma separated.
	// Prefix with "json:" for relays that wrap the page in {"contents": ...}
	RelayURLs []string

	// Memcache configuration; empty keeps rate limit blocks in memory
	MemcacheAddr   string
	RateLimitBlock time.Duration

	// Redis configuration; empty disables deal publishing
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// History storage
	HistoryDriver string
	HistoryDSN    string

	// Watch mode
	WatchInterval time.Duration
	MetricsAddr   string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		DataDir:              getEnv("DATA_DIR", ""),
		PriceMode:            getEnv("PRICE_MODE", PriceModeAuto),
		FetchTimeout:         getSeconds("FETCH_TIMEOUT_SECONDS", 8),
		EnrichTimeout:        getSeconds("ENRICH_TIMEOUT_SECONDS", 3),
		ConcurrencyLimit:     getInt("CONCURRENCY_LIMIT", 3),
		RecommendLimit:       getInt("RECOMMEND_LIMIT", 5),
		EstimateDelayMin:     time.Duration(getInt("ESTIMATE_DELAY_MIN_MS", 1000)) * time.Millisecond,
		EstimateDelayMax:     time.Duration(getInt("ESTIMATE_DELAY_MAX_MS", 2000)) * time.Millisecond,
		RelayURLs:            splitList(getEnv("RELAY_URLS", "")),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		RateLimitBlock:       getSeconds("RATE_LIMIT_BLOCK_SECONDS", 300),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "deals"),
		RedisStreamCount:     getInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getInt("REDIS_STREAM_MAX_LENGTH", 1000),
		HistoryDriver:        getEnv("HISTORY_DRIVER", "memory"),
		HistoryDSN:           getEnv("HISTORY_DSN", "dealpicker.db"),
		WatchInterval:        getSeconds("WATCH_INTERVAL_SECONDS", 3600),
		MetricsAddr:          getEnv("METRICS_ADDR", ""),
		Environment:          getEnv("DEALPICKER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	switch c.PriceMode {
	case PriceModeLive, PriceModeEstimate, PriceModeAuto:
	default:
		return fmt.Errorf("PRICE_MODE must be one of %s, %s, %s; got %q",
			PriceModeLive, PriceModeEstimate, PriceModeAuto, c.PriceMode)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT_SECONDS must be positive")
	}
	if c.EnrichTimeout <= 0 {
		return fmt.Errorf("ENRICH_TIMEOUT_SECONDS must be positive")
	}
	if c.ConcurrencyLimit < 1 {
		return fmt.Errorf("CONCURRENCY_LIMIT must be at least 1")
	}
	if c.EstimateDelayMin < 0 || c.EstimateDelayMax < c.EstimateDelayMin {
		return fmt.Errorf("estimate delay range %v..%v is invalid", c.EstimateDelayMin, c.EstimateDelayMax)
	}
	if c.RedisAddr != "" && c.RedisStreamCount < 1 {
		return fmt.Errorf("REDIS_STREAM_COUNT must be at least 1")
	}
	switch c.HistoryDriver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unsupported HISTORY_DRIVER %q", c.HistoryDriver)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("WATCH_INTERVAL_SECONDS must be positive")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getInt(key, defaultValue)) * time.Second
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
