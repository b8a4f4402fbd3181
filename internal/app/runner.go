package app

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"runtime/debug"
	"time"

	clts "github.com/SerhatHacioglu/trumptakip/clients"
	"github.com/SerhatHacioglu/trumptakip/config"
	"github.com/SerhatHacioglu/trumptakip/internal/store"

	"go.uber.org/zap"
)

// Build info - populated from embedded VCS info at init time
var (
	BuildCommit = "dev"
	BuildTime   = "unknown"
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if setting.Value != "" {
					BuildCommit = setting.Value
				}
			case "vcs.time":
				BuildTime = setting.Value
			}
		}
	}
}

type Runner struct {
	clients *clts.Clients
	cfg     *config.Config
	store   store.Store

	engine          *Engine
	registry        *Registry
	positionMonitor *PositionMonitor
	priceMonitor    *PriceMonitor
	healthServer    *http.Server
	startTime       time.Time
}

// ServiceStats holds comprehensive service statistics.
type ServiceStats struct {
	// Build info
	Build struct {
		Commit    string `json:"commit"`
		Time      string `json:"time,omitempty"`
		GoVersion string `json:"go_version"`
	} `json:"build"`

	// Service info
	StartTime string `json:"start_time"`
	Uptime    string `json:"uptime"`
	UptimeSec int64  `json:"uptime_seconds"`

	// Change engine counters
	Engine EngineStats `json:"engine"`

	// Poll loop counters
	Poller MonitorStats `json:"poller"`

	// Per-wallet tracking state
	Wallets []WalletStatus `json:"wallets"`

	// Market prices from the price watch, coin id -> USD
	CryptoPrices map[string]float64 `json:"crypto_prices,omitempty"`

	// Active thresholds
	Thresholds struct {
		SizeThresholdUSD     float64 `json:"size_threshold_usd"`
		PriceThresholdPct    float64 `json:"price_threshold_percent"`
		SharedSuppressWindow string  `json:"shared_suppress_window"`
		PollInterval         string  `json:"poll_interval"`
	} `json:"thresholds"`

	// Notification status
	Notifications struct {
		DiscordEnabled   bool   `json:"discord_enabled"`
		DiscordChannelID string `json:"discord_channel_id,omitempty"`
		TelegramEnabled  bool   `json:"telegram_enabled"`
		TelegramChatID   string `json:"telegram_chat_id,omitempty"`
	} `json:"notifications"`

	// Runtime stats
	Runtime struct {
		Goroutines int    `json:"goroutines"`
		HeapAlloc  uint64 `json:"heap_alloc"`
		HeapSys    uint64 `json:"heap_sys"`
		NumGC      uint32 `json:"num_gc"`
		GoVersion  string `json:"go_version"`
		NumCPU     int    `json:"num_cpu"`
		GOOS       string `json:"goos"`
		GOARCH     string `json:"goarch"`
	} `json:"runtime"`
}

func NewRunner(clients *clts.Clients, cfg *config.Config, st store.Store) *Runner {
	return &Runner{
		clients: clients,
		cfg:     cfg,
		store:   st,
	}
}

func (r *Runner) Run(ctx context.Context) error {
	r.startTime = time.Now()
	logger := r.clients.Logger
	cfg := r.cfg

	logger.Info("starting position monitor",
		zap.Duration("pollInterval", cfg.Monitor.PollInterval),
		zap.Float64("sizeThresholdUSD", cfg.Monitor.SizeThresholdUSD),
		zap.Float64("priceThresholdPct", cfg.Monitor.PriceThresholdPct),
		zap.Duration("sharedSuppressWindow", cfg.Monitor.SharedSuppressWindow),
	)

	// Initialize change engine with thresholds
	r.engine = NewEngine(logger, r.clients.Notifier, EngineConfig{
		SizeThresholdUSD:     cfg.Monitor.SizeThresholdUSD,
		PriceThresholdPct:    cfg.Monitor.PriceThresholdPct,
		SharedSuppressWindow: cfg.Monitor.SharedSuppressWindow,
	})

	// Load tracked wallets from the store into the engine
	r.registry = NewRegistry(logger, r.store, r.engine)
	loadCtx, loadCancel := context.WithTimeout(ctx, 10*time.Second)
	err := r.registry.Load(loadCtx)
	loadCancel()
	if err != nil {
		return fmt.Errorf("load wallet registry: %w", err)
	}
	logger.Info("wallet registry loaded",
		zap.Int("wallets", len(r.engine.TrackedWallets())),
	)

	// Initialize position poller
	r.positionMonitor = NewPositionMonitor(logger, r.clients.Hyperliquid, r.engine, MonitorConfig{
		PollInterval:        cfg.Monitor.PollInterval,
		FetchTimeout:        cfg.Monitor.FetchTimeout,
		MaxConcurrentChecks: cfg.Monitor.MaxConcurrentChecks,
	})

	// Initialize market price watch if enabled
	if cfg.PriceWatch.Enabled {
		r.priceMonitor = NewPriceMonitor(logger, r.clients.CoinGecko, r.clients.Notifier, PriceWatchConfig{
			Coins:        cfg.PriceWatch.Coins,
			ThresholdPct: cfg.PriceWatch.ThresholdPct,
			PollInterval: cfg.Monitor.PollInterval,
			FetchTimeout: cfg.Monitor.FetchTimeout,
		})
	}

	// Start health check server if enabled
	if cfg.HealthServer.Enabled {
		r.startHealthServer(cfg.HealthServer.Port)
		logger.Info("health server started", zap.Int("port", cfg.HealthServer.Port))
	}

	go r.positionMonitor.Start(ctx)
	if r.priceMonitor != nil {
		go r.priceMonitor.Start(ctx)
	}

	logger.Info("position monitor started",
		zap.Int("trackedWallets", len(r.engine.TrackedWallets())),
		zap.Bool("priceWatch", r.priceMonitor != nil),
	)

	<-ctx.Done()
	logger.Info("runner shutting down")

	// Shutdown health server
	if r.healthServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = r.healthServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	return nil
}

// GetStats returns comprehensive service statistics.
func (r *Runner) GetStats() ServiceStats {
	var stats ServiceStats

	// Build info
	stats.Build.Commit = BuildCommit
	stats.Build.Time = BuildTime
	stats.Build.GoVersion = runtime.Version()

	// Service info
	stats.StartTime = r.startTime.UTC().Format(time.RFC3339)
	uptime := time.Since(r.startTime)
	stats.Uptime = uptime.Round(time.Second).String()
	stats.UptimeSec = int64(uptime.Seconds())

	if r.engine != nil {
		stats.Engine = r.engine.Stats()
		stats.Wallets = r.engine.Status()
	}
	if r.positionMonitor != nil {
		stats.Poller = r.positionMonitor.Stats()
	}
	if r.priceMonitor != nil {
		stats.CryptoPrices = r.priceMonitor.LatestPrices()
	}

	// Active thresholds
	cfg := r.cfg
	stats.Thresholds.SizeThresholdUSD = cfg.Monitor.SizeThresholdUSD
	stats.Thresholds.PriceThresholdPct = cfg.Monitor.PriceThresholdPct
	stats.Thresholds.SharedSuppressWindow = cfg.Monitor.SharedSuppressWindow.String()
	stats.Thresholds.PollInterval = cfg.Monitor.PollInterval.String()

	// Notification status
	stats.Notifications.DiscordEnabled = r.clients.Discord != nil
	if r.clients.Discord != nil {
		if cfg.IsProd {
			stats.Notifications.DiscordChannelID = cfg.Discord.ProdChannelID
		} else {
			stats.Notifications.DiscordChannelID = cfg.Discord.BetaChannelID
		}
	}
	stats.Notifications.TelegramEnabled = r.clients.Telegram != nil
	if r.clients.Telegram != nil {
		if cfg.IsProd {
			stats.Notifications.TelegramChatID = cfg.Telegram.ProdChatID
		} else {
			stats.Notifications.TelegramChatID = cfg.Telegram.BetaChatID
		}
	}

	// Runtime stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats.Runtime.Goroutines = runtime.NumGoroutine()
	stats.Runtime.HeapAlloc = memStats.HeapAlloc
	stats.Runtime.HeapSys = memStats.HeapSys
	stats.Runtime.NumGC = memStats.NumGC
	stats.Runtime.GoVersion = runtime.Version()
	stats.Runtime.NumCPU = runtime.NumCPU()
	stats.Runtime.GOOS = runtime.GOOS
	stats.Runtime.GOARCH = runtime.GOARCH

	return stats
}
