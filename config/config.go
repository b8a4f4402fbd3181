package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Environment
	IsProd bool `json:"is_prod"`

	// Discord
	Discord DiscordConfig `json:"discord"`

	// Telegram
	Telegram TelegramConfig `json:"telegram"`

	// Position monitoring
	Monitor MonitorConfig `json:"monitor"`

	// Standalone crypto price watch
	PriceWatch PriceWatchConfig `json:"price_watch"`

	// Hyperliquid API
	Hyperliquid HyperliquidConfig `json:"hyperliquid"`

	// CoinGecko API
	CoinGecko CoinGeckoConfig `json:"coingecko"`

	// Wallet registry database - excluded from status output (env var only)
	Database DatabaseConfig `json:"-"`

	// Health server
	HealthServer HealthServerConfig `json:"health_server"`
}

// DiscordConfig holds Discord-related configuration.
type DiscordConfig struct {
	BotToken      string `json:"-"` // Excluded - env var only
	ProdChannelID string `json:"prod_channel_id"`
	BetaChannelID string `json:"beta_channel_id"`
}

// TelegramConfig holds Telegram-related configuration.
type TelegramConfig struct {
	BotToken   string `json:"-"` // Excluded - env var only
	ProdChatID string `json:"prod_chat_id"`
	BetaChatID string `json:"beta_chat_id"`
}

// MonitorConfig holds position monitoring configuration.
type MonitorConfig struct {
	PollInterval time.Duration `json:"poll_interval"` // How often to poll every wallet
	FetchTimeout time.Duration `json:"fetch_timeout"` // Per-wallet API call timeout

	// Change thresholds
	SizeThresholdUSD  float64 `json:"size_threshold_usd"`  // Min USD value of a size change to alert (e.g., 3000000)
	PriceThresholdPct float64 `json:"price_threshold_pct"` // Min mark price move vs last notified to alert (e.g., 2 = 2%)

	// Cross-wallet dedup
	SharedSuppressWindow time.Duration `json:"shared_suppress_window"` // Suppress repeat alerts for the same coin+side across wallets

	MaxConcurrentChecks int `json:"max_concurrent_checks"` // Wallets checked in parallel per cycle
}

// PriceWatchConfig holds the standalone crypto price watch configuration.
type PriceWatchConfig struct {
	Enabled      bool     `json:"enabled"`
	Coins        []string `json:"coins"`         // CoinGecko coin ids (e.g., "bitcoin")
	ThresholdPct float64  `json:"threshold_pct"` // Min move vs last notified price to alert (e.g., 2 = 2%)
}

// HyperliquidConfig holds Hyperliquid API configuration.
type HyperliquidConfig struct {
	APIURL string `json:"api_url"`
}

// CoinGeckoConfig holds CoinGecko API configuration.
type CoinGeckoConfig struct {
	APIURL string `json:"api_url"`
}

// DatabaseConfig holds wallet registry database configuration.
type DatabaseConfig struct {
	URL string `json:"-"` // Excluded - env var only
}

// HealthServerConfig holds health check server configuration.
type HealthServerConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

// Clone creates a deep copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.PriceWatch.Coins != nil {
		clone.PriceWatch.Coins = make([]string, len(c.PriceWatch.Coins))
		copy(clone.PriceWatch.Coins, c.PriceWatch.Coins)
	}
	return &clone
}

// Defaults returns a config with hardcoded default values.
func Defaults() *Config {
	return &Config{
		IsProd:   false,
		Discord:  DiscordConfig{},
		Telegram: TelegramConfig{},
		Monitor: MonitorConfig{
			PollInterval:         60 * time.Second,
			FetchTimeout:         15 * time.Second,
			SizeThresholdUSD:     3_000_000,
			PriceThresholdPct:    2.0,
			SharedSuppressWindow: 90 * time.Second,
			MaxConcurrentChecks:  4,
		},
		PriceWatch: PriceWatchConfig{
			Enabled:      true,
			Coins:        []string{"bitcoin", "ethereum", "solana"},
			ThresholdPct: 2.0,
		},
		Hyperliquid: HyperliquidConfig{
			APIURL: "https://api.hyperliquid.xyz",
		},
		CoinGecko: CoinGeckoConfig{
			APIURL: "https://api.coingecko.com",
		},
		Database: DatabaseConfig{},
		HealthServer: HealthServerConfig{
			Enabled: true,
			Port:    8080,
		},
	}
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		IsProd: envBool("STAGE", "PROD"),

		Discord: DiscordConfig{
			BotToken:      envString("DISCORD_BOT_TOKEN", ""),
			ProdChannelID: envString("DISCORD_PROD_CHANNEL_ID", ""),
			BetaChannelID: envString("DISCORD_BETA_CHANNEL_ID", ""),
		},

		Telegram: TelegramConfig{
			BotToken:   envString("TELEGRAM_BOT_TOKEN", ""),
			ProdChatID: envString("TELEGRAM_PROD_CHAT_ID", ""),
			BetaChatID: envString("TELEGRAM_BETA_CHAT_ID", ""),
		},

		Monitor: MonitorConfig{
			PollInterval:         envDuration("POLL_INTERVAL", 60*time.Second),
			FetchTimeout:         envDuration("FETCH_TIMEOUT", 15*time.Second),
			SizeThresholdUSD:     envFloat("SIZE_THRESHOLD_USD", 3_000_000),
			PriceThresholdPct:    envFloat("PRICE_THRESHOLD_PERCENT", 2.0),
			SharedSuppressWindow: envDuration("SHARED_SUPPRESS_WINDOW", 90*time.Second),
			MaxConcurrentChecks:  envInt("MAX_CONCURRENT_CHECKS", 4),
		},

		PriceWatch: PriceWatchConfig{
			Enabled:      envBoolDefault("PRICE_WATCH_ENABLED", true),
			Coins:        envStringSliceDefault("PRICE_WATCH_COINS", []string{"bitcoin", "ethereum", "solana"}),
			ThresholdPct: envFloat("PRICE_WATCH_THRESHOLD_PERCENT", 2.0),
		},

		Hyperliquid: HyperliquidConfig{
			APIURL: envString("HYPERLIQUID_API_URL", "https://api.hyperliquid.xyz"),
		},

		CoinGecko: CoinGeckoConfig{
			APIURL: envString("COINGECKO_API_URL", "https://api.coingecko.com"),
		},

		Database: DatabaseConfig{
			URL: envString("DATABASE_URL", ""),
		},

		HealthServer: HealthServerConfig{
			Enabled: envBoolDefault("HEALTH_SERVER_ENABLED", true),
			Port:    envInt("PORT", 8080),
		},
	}
}

// Helper functions for parsing environment variables

func envString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func envBool(key, trueValue string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), trueValue)
}

func envBoolDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "1") || strings.EqualFold(v, "yes")
}

func envStringSliceDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
