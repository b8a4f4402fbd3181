package app

import (
	"context"
	"sync"
	"time"

	"github.com/SerhatHacioglu/trumptakip/clients/notifier"

	"go.uber.org/zap"
)

// PriceFetcher fetches current USD spot prices for a set of coin ids.
type PriceFetcher interface {
	SimplePrices(ctx context.Context, ids []string) (map[string]float64, error)
}

// PriceWatchConfig holds the standalone market price watch configuration.
type PriceWatchConfig struct {
	Coins        []string      // CoinGecko coin ids
	ThresholdPct float64       // Min percent move vs last notified price to alert
	PollInterval time.Duration // How often to refresh prices
	FetchTimeout time.Duration
}

// DefaultPriceWatchConfig returns sensible defaults.
func DefaultPriceWatchConfig() PriceWatchConfig {
	return PriceWatchConfig{
		Coins:        []string{"bitcoin", "ethereum", "solana"},
		ThresholdPct: 2.0,
		PollInterval: 60 * time.Second,
		FetchTimeout: 10 * time.Second,
	}
}

// PriceMonitor alerts on large market moves of a fixed set of coins,
// independent of any tracked wallet. Same hysteresis as the position
// engine: moves are measured against the last notified price, and the
// first sighting of a coin only seeds the anchor.
type PriceMonitor struct {
	logger   *zap.Logger
	fetcher  PriceFetcher
	notifier notifier.Notifier
	config   PriceWatchConfig

	mu        sync.Mutex
	anchors   map[string]float64 // coin id -> last notified price
	latest    map[string]float64 // coin id -> last polled price
	lastCheck time.Time
}

func NewPriceMonitor(logger *zap.Logger, fetcher PriceFetcher, n notifier.Notifier, cfg PriceWatchConfig) *PriceMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceMonitor{
		logger:   logger,
		fetcher:  fetcher,
		notifier: n,
		config:   cfg,
		anchors:  make(map[string]float64),
		latest:   make(map[string]float64),
	}
}

// Start runs the watch loop until the context is canceled.
func (pm *PriceMonitor) Start(ctx context.Context) {
	pm.logger.Info("price watch starting",
		zap.Strings("coins", pm.config.Coins),
		zap.Float64("thresholdPct", pm.config.ThresholdPct),
	)

	pm.check(ctx)

	ticker := time.NewTicker(pm.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			pm.logger.Info("price watch stopping")
			return
		case <-ticker.C:
			pm.check(ctx)
		}
	}
}

func (pm *PriceMonitor) check(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, pm.config.FetchTimeout)
	defer cancel()

	prices, err := pm.fetcher.SimplePrices(fetchCtx, pm.config.Coins)
	if err != nil {
		pm.logger.Warn("price fetch failed", zap.Error(err))
		return
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.lastCheck = time.Now()

	for _, coin := range pm.config.Coins {
		price, ok := prices[coin]
		if !ok || price <= 0 {
			continue
		}
		pm.latest[coin] = price

		anchor, seen := pm.anchors[coin]
		if !seen || anchor <= 0 {
			pm.anchors[coin] = price
			continue
		}

		percentMove := abs(price-anchor) / anchor * 100
		if percentMove < pm.config.ThresholdPct {
			continue
		}

		direction := notifier.DirectionUp
		if price < anchor {
			direction = notifier.DirectionDown
		}

		if pm.notifier != nil {
			pm.notifier.SendEvent(notifier.Event{
				Type:         notifier.EventMarketMove,
				Coin:         coin,
				MarkPrice:    price,
				AnchorPrice:  anchor,
				PriceDelta:   price - anchor,
				PricePercent: percentMove,
				Direction:    direction,
				Timestamp:    time.Now(),
			})
		}
		pm.anchors[coin] = price

		pm.logger.Info("market move alert",
			zap.String("coin", coin),
			zap.Float64("price", price),
			zap.Float64("percentMove", percentMove),
		)
	}
}

// LatestPrices returns the last polled price per coin.
func (pm *PriceMonitor) LatestPrices() map[string]float64 {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	out := make(map[string]float64, len(pm.latest))
	for k, v := range pm.latest {
		out[k] = v
	}
	return out
}
