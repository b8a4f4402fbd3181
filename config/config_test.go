package config

import (
	"os"
	"testing"
	"time"
)

var configEnvVars = []string{
	"STAGE",
	"DISCORD_BOT_TOKEN", "DISCORD_PROD_CHANNEL_ID", "DISCORD_BETA_CHANNEL_ID",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_PROD_CHAT_ID", "TELEGRAM_BETA_CHAT_ID",
	"POLL_INTERVAL", "FETCH_TIMEOUT", "SIZE_THRESHOLD_USD", "PRICE_THRESHOLD_PERCENT",
	"SHARED_SUPPRESS_WINDOW", "MAX_CONCURRENT_CHECKS",
	"PRICE_WATCH_ENABLED", "PRICE_WATCH_COINS", "PRICE_WATCH_THRESHOLD_PERCENT",
	"HYPERLIQUID_API_URL", "COINGECKO_API_URL", "DATABASE_URL",
	"HEALTH_SERVER_ENABLED", "PORT",
}

func clearConfigEnv() {
	for _, v := range configEnvVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv()

	cfg := Load()

	if cfg.IsProd {
		t.Error("expected IsProd to be false by default")
	}

	if cfg.Discord.BotToken != "" {
		t.Error("expected empty discord token by default")
	}
	if cfg.Telegram.BotToken != "" {
		t.Error("expected empty telegram token by default")
	}

	if cfg.Monitor.PollInterval != 60*time.Second {
		t.Errorf("unexpected poll interval: %v", cfg.Monitor.PollInterval)
	}
	if cfg.Monitor.FetchTimeout != 15*time.Second {
		t.Errorf("unexpected fetch timeout: %v", cfg.Monitor.FetchTimeout)
	}
	if cfg.Monitor.SizeThresholdUSD != 3_000_000 {
		t.Errorf("unexpected size threshold: %f", cfg.Monitor.SizeThresholdUSD)
	}
	if cfg.Monitor.PriceThresholdPct != 2.0 {
		t.Errorf("unexpected price threshold: %f", cfg.Monitor.PriceThresholdPct)
	}
	if cfg.Monitor.SharedSuppressWindow != 90*time.Second {
		t.Errorf("unexpected suppress window: %v", cfg.Monitor.SharedSuppressWindow)
	}
	if cfg.Monitor.MaxConcurrentChecks != 4 {
		t.Errorf("unexpected concurrency: %d", cfg.Monitor.MaxConcurrentChecks)
	}

	if !cfg.PriceWatch.Enabled {
		t.Error("expected price watch enabled by default")
	}
	if len(cfg.PriceWatch.Coins) != 3 || cfg.PriceWatch.Coins[0] != "bitcoin" {
		t.Errorf("unexpected price watch coins: %v", cfg.PriceWatch.Coins)
	}

	if cfg.Hyperliquid.APIURL != "https://api.hyperliquid.xyz" {
		t.Errorf("unexpected hyperliquid URL: %s", cfg.Hyperliquid.APIURL)
	}
	if cfg.CoinGecko.APIURL != "https://api.coingecko.com" {
		t.Errorf("unexpected coingecko URL: %s", cfg.CoinGecko.APIURL)
	}

	if cfg.Database.URL != "" {
		t.Error("expected empty database URL by default")
	}

	if !cfg.HealthServer.Enabled {
		t.Error("expected health server enabled by default")
	}
	if cfg.HealthServer.Port != 8080 {
		t.Errorf("unexpected port: %d", cfg.HealthServer.Port)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	os.Setenv("STAGE", "PROD")
	os.Setenv("TELEGRAM_BOT_TOKEN", "tg-token")
	os.Setenv("TELEGRAM_PROD_CHAT_ID", "chat-123")
	os.Setenv("POLL_INTERVAL", "30s")
	os.Setenv("SIZE_THRESHOLD_USD", "1000000")
	os.Setenv("PRICE_THRESHOLD_PERCENT", "5")
	os.Setenv("SHARED_SUPPRESS_WINDOW", "2m")
	os.Setenv("MAX_CONCURRENT_CHECKS", "8")
	os.Setenv("PRICE_WATCH_ENABLED", "false")
	os.Setenv("PRICE_WATCH_COINS", "bitcoin, dogecoin")
	os.Setenv("HYPERLIQUID_API_URL", "https://custom-hl.example.com")
	os.Setenv("DATABASE_URL", "postgres://localhost/wallets")
	os.Setenv("PORT", "9090")
	defer clearConfigEnv()

	cfg := Load()

	if !cfg.IsProd {
		t.Error("expected IsProd true for STAGE=PROD")
	}
	if cfg.Telegram.BotToken != "tg-token" {
		t.Errorf("unexpected telegram token: %s", cfg.Telegram.BotToken)
	}
	if cfg.Telegram.ProdChatID != "chat-123" {
		t.Errorf("unexpected prod chat ID: %s", cfg.Telegram.ProdChatID)
	}
	if cfg.Monitor.PollInterval != 30*time.Second {
		t.Errorf("unexpected poll interval: %v", cfg.Monitor.PollInterval)
	}
	if cfg.Monitor.SizeThresholdUSD != 1_000_000 {
		t.Errorf("unexpected size threshold: %f", cfg.Monitor.SizeThresholdUSD)
	}
	if cfg.Monitor.PriceThresholdPct != 5 {
		t.Errorf("unexpected price threshold: %f", cfg.Monitor.PriceThresholdPct)
	}
	if cfg.Monitor.SharedSuppressWindow != 2*time.Minute {
		t.Errorf("unexpected suppress window: %v", cfg.Monitor.SharedSuppressWindow)
	}
	if cfg.Monitor.MaxConcurrentChecks != 8 {
		t.Errorf("unexpected concurrency: %d", cfg.Monitor.MaxConcurrentChecks)
	}
	if cfg.PriceWatch.Enabled {
		t.Error("expected price watch disabled")
	}
	if len(cfg.PriceWatch.Coins) != 2 || cfg.PriceWatch.Coins[1] != "dogecoin" {
		t.Errorf("unexpected coins: %v", cfg.PriceWatch.Coins)
	}
	if cfg.Hyperliquid.APIURL != "https://custom-hl.example.com" {
		t.Errorf("unexpected hyperliquid URL: %s", cfg.Hyperliquid.APIURL)
	}
	if cfg.Database.URL != "postgres://localhost/wallets" {
		t.Errorf("unexpected database URL: %s", cfg.Database.URL)
	}
	if cfg.HealthServer.Port != 9090 {
		t.Errorf("unexpected port: %d", cfg.HealthServer.Port)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	os.Setenv("POLL_INTERVAL", "not-a-duration")
	os.Setenv("SIZE_THRESHOLD_USD", "lots")
	os.Setenv("MAX_CONCURRENT_CHECKS", "many")
	defer clearConfigEnv()

	cfg := Load()

	if cfg.Monitor.PollInterval != 60*time.Second {
		t.Errorf("expected default poll interval, got %v", cfg.Monitor.PollInterval)
	}
	if cfg.Monitor.SizeThresholdUSD != 3_000_000 {
		t.Errorf("expected default size threshold, got %f", cfg.Monitor.SizeThresholdUSD)
	}
	if cfg.Monitor.MaxConcurrentChecks != 4 {
		t.Errorf("expected default concurrency, got %d", cfg.Monitor.MaxConcurrentChecks)
	}
}

func TestDefaults_Valid(t *testing.T) {
	result := Defaults().Validate()

	if !result.Valid {
		t.Errorf("expected defaults to validate, got %+v", result.Errors)
	}
}

func TestValidate_CatchesBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Monitor.PollInterval = 100 * time.Millisecond
	cfg.Monitor.PriceThresholdPct = 0
	cfg.Monitor.MaxConcurrentChecks = 0
	cfg.HealthServer.Port = 99999
	cfg.Hyperliquid.APIURL = ""

	result := cfg.Validate()

	if result.Valid {
		t.Fatal("expected validation to fail")
	}
	fields := make(map[string]bool)
	for _, e := range result.Errors {
		fields[e.Field] = true
	}
	for _, want := range []string{
		"monitor.poll_interval",
		"monitor.price_threshold_pct",
		"monitor.max_concurrent_checks",
		"health_server.port",
		"hyperliquid.api_url",
	} {
		if !fields[want] {
			t.Errorf("expected error for %s, got %+v", want, result.Errors)
		}
	}
}

func TestValidate_PriceWatchSkippedWhenDisabled(t *testing.T) {
	cfg := Defaults()
	cfg.PriceWatch.Enabled = false
	cfg.PriceWatch.Coins = nil
	cfg.PriceWatch.ThresholdPct = 0

	result := cfg.Validate()

	if !result.Valid {
		t.Errorf("disabled price watch should not be validated, got %+v", result.Errors)
	}
}

func TestValidate_PriceWatchWhenEnabled(t *testing.T) {
	cfg := Defaults()
	cfg.PriceWatch.Coins = nil

	result := cfg.Validate()

	if result.Valid {
		t.Error("expected enabled price watch with no coins to fail validation")
	}
}

func TestClone_IsIndependent(t *testing.T) {
	cfg := Defaults()
	clone := cfg.Clone()

	clone.Monitor.SizeThresholdUSD = 1
	clone.PriceWatch.Coins[0] = "dogecoin"

	if cfg.Monitor.SizeThresholdUSD != 3_000_000 {
		t.Error("clone mutation leaked into original")
	}
	if cfg.PriceWatch.Coins[0] != "bitcoin" {
		t.Error("clone coin slice shares backing array with original")
	}
}

func TestClone_Nil(t *testing.T) {
	var cfg *Config
	if cfg.Clone() != nil {
		t.Error("expected nil clone of nil config")
	}
}
