package app

import (
	"context"
	"sync"
	"time"

	"github.com/SerhatHacioglu/trumptakip/clients/hyperliquid"

	"go.uber.org/zap"
)

// PositionFetcher fetches a wallet's current open positions.
type PositionFetcher interface {
	FetchPositions(ctx context.Context, address string) ([]hyperliquid.Position, error)
}

// MonitorConfig holds the poll loop configuration.
type MonitorConfig struct {
	PollInterval        time.Duration // How often a full cycle over all wallets runs
	FetchTimeout        time.Duration // Per-wallet fetch deadline
	MaxConcurrentChecks int           // Wallets checked in parallel per cycle
}

// DefaultMonitorConfig returns sensible defaults.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval:        60 * time.Second,
		FetchTimeout:        15 * time.Second,
		MaxConcurrentChecks: 4,
	}
}

// PositionMonitor drives the poll cycle: every tick it fetches each
// tracked wallet's snapshot and feeds it to the engine. Cycles never
// overlap; a tick that arrives while a cycle is still running is skipped.
type PositionMonitor struct {
	logger  *zap.Logger
	fetcher PositionFetcher
	engine  *Engine

	configMu sync.RWMutex
	config   MonitorConfig

	// Serializes cycles. TryLock failure means a cycle is in flight.
	cycleMu sync.Mutex

	checkNow chan struct{}

	statsMu        sync.Mutex
	cyclesRun      int64
	cyclesSkipped  int64
	lastCycleStart time.Time
	lastCycleTook  time.Duration
}

func NewPositionMonitor(logger *zap.Logger, fetcher PositionFetcher, engine *Engine, cfg MonitorConfig) *PositionMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PositionMonitor{
		logger:   logger,
		fetcher:  fetcher,
		engine:   engine,
		config:   cfg,
		checkNow: make(chan struct{}, 1),
	}
}

func (m *PositionMonitor) getConfig() MonitorConfig {
	m.configMu.RLock()
	defer m.configMu.RUnlock()
	return m.config
}

// Start runs the poll loop until the context is canceled. An initial
// cycle runs immediately so a fresh process baselines without waiting a
// full interval.
func (m *PositionMonitor) Start(ctx context.Context) {
	cfg := m.getConfig()
	m.logger.Info("position monitor starting",
		zap.Duration("pollInterval", cfg.PollInterval),
		zap.Int("maxConcurrentChecks", cfg.MaxConcurrentChecks),
	)

	m.runCycle(ctx)

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("position monitor stopping")
			return
		case <-ticker.C:
			m.runCycle(ctx)
		case <-m.checkNow:
			m.runCycle(ctx)
		}
	}
}

// CheckNow requests an immediate cycle outside the schedule. Returns
// false if a forced check is already queued.
func (m *PositionMonitor) CheckNow() bool {
	select {
	case m.checkNow <- struct{}{}:
		return true
	default:
		return false
	}
}

func (m *PositionMonitor) runCycle(ctx context.Context) {
	if !m.cycleMu.TryLock() {
		m.statsMu.Lock()
		m.cyclesSkipped++
		m.statsMu.Unlock()
		m.logger.Warn("previous cycle still running, skipping tick")
		return
	}
	defer m.cycleMu.Unlock()

	cfg := m.getConfig()
	start := time.Now()
	wallets := m.engine.TrackedWallets()

	sem := make(chan struct{}, cfg.MaxConcurrentChecks)
	var wg sync.WaitGroup

	for _, wallet := range wallets {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(key, address string) {
			defer wg.Done()
			defer func() { <-sem }()
			m.checkWallet(ctx, key, address, cfg.FetchTimeout)
		}(wallet.Key, wallet.Address)
	}

	wg.Wait()

	took := time.Since(start)
	m.statsMu.Lock()
	m.cyclesRun++
	m.lastCycleStart = start
	m.lastCycleTook = took
	m.statsMu.Unlock()

	m.logger.Debug("poll cycle finished",
		zap.Int("wallets", len(wallets)),
		zap.Duration("took", took),
	)
}

// checkWallet fetches one wallet and hands the result to the engine. A
// failed fetch is recorded and leaves the wallet's state untouched.
func (m *PositionMonitor) checkWallet(ctx context.Context, key, address string, timeout time.Duration) {
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	positions, err := m.fetcher.FetchPositions(fetchCtx, address)
	if err != nil {
		m.engine.RecordFailure(key, err)
		return
	}

	m.engine.ProcessSnapshot(key, positions)
}

// MonitorStats is a read-only view of the poll loop.
type MonitorStats struct {
	CyclesRun      int64         `json:"cycles_run"`
	CyclesSkipped  int64         `json:"cycles_skipped"`
	LastCycleStart time.Time     `json:"last_cycle_start,omitempty"`
	LastCycleTook  time.Duration `json:"last_cycle_took_ns"`
}

// Stats returns the poll loop counters.
func (m *PositionMonitor) Stats() MonitorStats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return MonitorStats{
		CyclesRun:      m.cyclesRun,
		CyclesSkipped:  m.cyclesSkipped,
		LastCycleStart: m.lastCycleStart,
		LastCycleTook:  m.lastCycleTook,
	}
}
