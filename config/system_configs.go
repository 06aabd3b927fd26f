package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the quote services need. Base URLs are settings so
// tests can point the adapters at local fixtures.
type Config struct {
	Port        string
	Environment string

	// CacheDir receives raw payload snapshots and the durable historic CSVs.
	CacheDir string

	HTTPTimeout  time.Duration
	RealtimeTTL  time.Duration
	MaxRedirects int

	// Outbound scrape budget, requests per second with a small burst.
	ScrapeRate  float64
	ScrapeBurst int

	RateLimiter  bool
	FrontendUrls []string

	YahooQuoteURL    string
	YahooDownloadURL string
	GoogleURL        string
	FTURL            string
	CoinbaseURL      string
}

func LoadConfigs() (*Config, error) {
	godotenv.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	cfg := &Config{
		Port:         envOr("PORT", "8080"),
		Environment:  envOr("ENVIRONMENT", "development"),
		CacheDir:     envOr("FINANCIALS_CACHE_DIR", filepath.Join(home, ".financials-extension")),
		HTTPTimeout:  envDurationOr("HTTP_TIMEOUT", 30*time.Second),
		RealtimeTTL:  envDurationOr("REALTIME_TTL", 60*time.Second),
		MaxRedirects: 5,
		ScrapeRate:   2,
		ScrapeBurst:  4,
		RateLimiter:  envOr("RATE_LIMITER", "true") == "true",
		FrontendUrls: []string{envOr("FRONTEND_URL", "http://localhost:3000")},

		YahooQuoteURL:    envOr("YAHOO_QUOTE_URL", "https://finance.yahoo.com"),
		YahooDownloadURL: envOr("YAHOO_DOWNLOAD_URL", "https://query1.finance.yahoo.com"),
		GoogleURL:        envOr("GOOGLE_URL", "https://finance.google.com"),
		FTURL:            envOr("FT_URL", "https://markets.ft.com"),
		CoinbaseURL:      envOr("COINBASE_URL", "https://api.exchange.coinbase.com"),
	}

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// ConfigManager gives services an atomically swappable view of the config.
type ConfigManager struct {
	value atomic.Value
}

func NewConfigManager(initial *Config) *ConfigManager {
	cm := &ConfigManager{}
	cm.value.Store(initial)
	return cm
}

func (cm *ConfigManager) GetConfig() *Config {
	return cm.value.Load().(*Config)
}

func (cm *ConfigManager) UpdateConfig(newCfg *Config) {
	cm.value.Store(newCfg)
}
