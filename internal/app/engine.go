package app

import (
	"sync"
	"time"

	"github.com/SerhatHacioglu/trumptakip/clients/hyperliquid"
	"github.com/SerhatHacioglu/trumptakip/clients/notifier"
	"github.com/SerhatHacioglu/trumptakip/internal/store"

	"go.uber.org/zap"
)

// EngineConfig holds the notification thresholds.
type EngineConfig struct {
	SizeThresholdUSD     float64       // Min USD value of a cumulative size change to alert
	PriceThresholdPct    float64       // Min percent move vs the last notified price to alert
	SharedSuppressWindow time.Duration // Cross-wallet price alert suppression window
}

// DefaultEngineConfig returns sensible defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SizeThresholdUSD:     3_000_000,
		PriceThresholdPct:    2.0,
		SharedSuppressWindow: 90 * time.Second,
	}
}

// walletPhase tracks where a wallet is in its notification lifecycle.
// A wallet that has been polled but never held a position stays in
// phaseBaseline quietly; only the first non-empty snapshot promotes it
// to phaseTracking. Once tracking, a wallet never goes back, so a full
// close-and-reopen produces real Opened events rather than a re-baseline.
type walletPhase int

const (
	phaseUnseen walletPhase = iota
	phaseBaseline
	phaseTracking
)

func (p walletPhase) String() string {
	switch p {
	case phaseUnseen:
		return "unseen"
	case phaseBaseline:
		return "baseline"
	case phaseTracking:
		return "tracking"
	}
	return "unknown"
}

// walletState is the per-wallet mutable tracking state. All access goes
// through the engine's mutex.
type walletState struct {
	wallet store.Wallet
	phase  walletPhase

	positions         []hyperliquid.Position
	lastNotifiedSize  map[string]float64 // identity key -> size at last size notification
	lastNotifiedPrice map[string]float64 // identity key -> mark price at last price notification

	lastChecked time.Time
	lastError   string
}

func newWalletState(w store.Wallet) *walletState {
	return &walletState{
		wallet:            w,
		phase:             phaseUnseen,
		lastNotifiedSize:  make(map[string]float64),
		lastNotifiedPrice: make(map[string]float64),
	}
}

// EngineStats counts emitted and suppressed events.
type EngineStats struct {
	CyclesProcessed  int64          `json:"cycles_processed"`
	EventsSent       map[string]int `json:"events_sent"`
	SharedSuppressed int64          `json:"shared_suppressed"`
	FetchFailures    int64          `json:"fetch_failures"`
}

// WalletStatus is a read-only view of one wallet's tracking state.
type WalletStatus struct {
	Key           string    `json:"key"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	Phase         string    `json:"phase"`
	PositionCount int       `json:"position_count"`
	LastChecked   time.Time `json:"last_checked,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
}

// Engine turns position snapshots into notifications. It owns all wallet
// tracking state and the cross-wallet dedup coordinator; both are guarded
// by a single mutex so holder counting and anchor propagation observe a
// consistent view.
type Engine struct {
	logger      *zap.Logger
	notifier    notifier.Notifier
	coordinator *Coordinator

	configMu sync.RWMutex
	config   EngineConfig

	mu      sync.Mutex
	wallets map[string]*walletState

	statsMu sync.Mutex
	stats   EngineStats
}

func NewEngine(logger *zap.Logger, n notifier.Notifier, cfg EngineConfig) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger:      logger,
		notifier:    n,
		coordinator: NewCoordinator(cfg.SharedSuppressWindow),
		config:      cfg,
		wallets:     make(map[string]*walletState),
		stats: EngineStats{
			EventsSent: make(map[string]int),
		},
	}
}

func (e *Engine) getConfig() EngineConfig {
	e.configMu.RLock()
	defer e.configMu.RUnlock()
	return e.config
}

// UpdateConfig replaces the thresholds at runtime.
func (e *Engine) UpdateConfig(cfg EngineConfig) {
	e.configMu.Lock()
	e.config = cfg
	e.configMu.Unlock()
	e.coordinator.SetWindow(cfg.SharedSuppressWindow)
	e.logger.Info("engine config updated",
		zap.Float64("sizeThresholdUSD", cfg.SizeThresholdUSD),
		zap.Float64("priceThresholdPct", cfg.PriceThresholdPct),
	)
}

// SyncWallets reconciles the tracked set with the registry. State for
// surviving keys is kept untouched; removed wallets are discarded; added
// wallets start fresh and re-baseline.
func (e *Engine) SyncWallets(wallets []store.Wallet) {
	e.mu.Lock()
	defer e.mu.Unlock()

	keep := make(map[string]struct{}, len(wallets))
	for _, w := range wallets {
		keep[w.Key] = struct{}{}
		if st, ok := e.wallets[w.Key]; ok {
			st.wallet = w
			continue
		}
		e.wallets[w.Key] = newWalletState(w)
		e.logger.Info("tracking wallet",
			zap.String("key", w.Key),
			zap.String("address", w.Address),
		)
	}

	for key := range e.wallets {
		if _, ok := keep[key]; !ok {
			delete(e.wallets, key)
			e.logger.Info("stopped tracking wallet", zap.String("key", key))
		}
	}
}

// TrackedWallets returns the current registry view, ordered by key as
// synced from the store.
func (e *Engine) TrackedWallets() []store.Wallet {
	e.mu.Lock()
	defer e.mu.Unlock()

	wallets := make([]store.Wallet, 0, len(e.wallets))
	for _, st := range e.wallets {
		wallets = append(wallets, st.wallet)
	}
	return wallets
}

// ProcessSnapshot feeds one wallet's fresh snapshot through change
// detection, thresholding and cross-wallet dedup, emitting notifications
// along the way. Unknown wallet keys are ignored (wallet was removed
// between fetch and processing).
func (e *Engine) ProcessSnapshot(walletKey string, positions []hyperliquid.Position) {
	cfg := e.getConfig()

	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.wallets[walletKey]
	if !ok {
		return
	}

	st.lastChecked = time.Now()
	st.lastError = ""

	established := st.phase == phaseTracking
	changes := DetectChanges(st.positions, positions, established)

	for _, change := range changes {
		switch change.Kind {
		case ChangeBotStarted:
			e.emit(notifier.Event{
				Type:          notifier.EventBotStarted,
				WalletKey:     st.wallet.Key,
				WalletName:    st.wallet.Name,
				WalletAddress: st.wallet.Address,
				PositionCount: change.Count,
				Timestamp:     time.Now(),
			}, st)

		case ChangeBaseline:
			p := change.Position
			e.emit(positionEvent(notifier.EventBaseline, p, st), st)
			st.lastNotifiedSize[p.Key()] = p.Size
			st.lastNotifiedPrice[p.Key()] = p.MarkPrice

		case ChangeOpened:
			e.emit(positionEvent(notifier.EventOpened, change.Position, st), st)

		case ChangeClosed:
			e.emit(positionEvent(notifier.EventClosed, change.Position, st), st)

		case ChangeResized:
			e.applySizeRule(st, change, cfg)

		case ChangePriceMoved:
			e.applyPriceRule(st, change, cfg)
		}
	}

	// Purge anchors for keys no longer open so a later reopen of the
	// same instrument/side starts fresh.
	open := make(map[string]struct{}, len(positions))
	for _, p := range positions {
		open[p.Key()] = struct{}{}
	}
	for key := range st.lastNotifiedSize {
		if _, ok := open[key]; !ok {
			delete(st.lastNotifiedSize, key)
		}
	}
	for key := range st.lastNotifiedPrice {
		if _, ok := open[key]; !ok {
			delete(st.lastNotifiedPrice, key)
		}
	}

	st.positions = positions
	if st.phase == phaseUnseen {
		st.phase = phaseBaseline
	}
	if len(positions) > 0 {
		st.phase = phaseTracking
	}

	e.statsMu.Lock()
	e.stats.CyclesProcessed++
	e.statsMu.Unlock()
}

// applySizeRule converts a Resized candidate into an Increased/Decreased
// notification when the cumulative change since the last notified size is
// worth at least the USD threshold. Sub-threshold drift leaves the anchor
// alone so it keeps accumulating.
func (e *Engine) applySizeRule(st *walletState, change Change, cfg EngineConfig) {
	p := change.Position
	key := p.Key()

	anchor, hadAnchor := st.lastNotifiedSize[key]
	if !hadAnchor {
		anchor = change.Old.Size
	}

	delta := p.Size - anchor
	deltaValueUSD := abs(delta) * p.MarkPrice

	notified := false
	if delta > sizeEpsilon && deltaValueUSD >= cfg.SizeThresholdUSD {
		ev := positionEvent(notifier.EventIncreased, p, st)
		ev.SizeDelta = delta
		ev.DeltaValueUSD = deltaValueUSD
		ev.DeltaPercent = pctOf(delta, anchor)
		ev.AnchorSize = anchor
		e.emit(ev, st)
		st.lastNotifiedSize[key] = p.Size
		notified = true
	} else if delta < -sizeEpsilon && deltaValueUSD >= cfg.SizeThresholdUSD {
		ev := positionEvent(notifier.EventDecreased, p, st)
		ev.SizeDelta = delta
		ev.DeltaValueUSD = deltaValueUSD
		ev.DeltaPercent = pctOf(delta, anchor)
		ev.AnchorSize = anchor
		e.emit(ev, st)
		st.lastNotifiedSize[key] = p.Size
		notified = true
	}

	// First sighting of this key as matched: the anchor starts at the
	// current size whether or not anything fired.
	if !hadAnchor && !notified {
		st.lastNotifiedSize[key] = p.Size
	}
}

// applyPriceRule converts a PriceMoved candidate into a PriceAlert when
// the mark has moved past the percent threshold since the last notified
// price, consulting the cross-wallet coordinator for shared positions.
func (e *Engine) applyPriceRule(st *walletState, change Change, cfg EngineConfig) {
	p := change.Position
	key := p.Key()

	anchor, hadAnchor := st.lastNotifiedPrice[key]
	if !hadAnchor {
		st.lastNotifiedPrice[key] = p.MarkPrice
		return
	}
	if anchor <= 0 {
		st.lastNotifiedPrice[key] = p.MarkPrice
		return
	}

	percentMove := abs(p.MarkPrice-anchor) / anchor * 100
	if percentMove < cfg.PriceThresholdPct {
		return
	}

	holders := e.holdersLocked(key)
	shared := len(holders) > 1

	if shared && e.coordinator.Suppressed(key) {
		e.statsMu.Lock()
		e.stats.SharedSuppressed++
		e.statsMu.Unlock()
		e.logger.Debug("shared price alert suppressed",
			zap.String("key", key),
			zap.String("wallet", st.wallet.Key),
		)
		return
	}

	direction := notifier.DirectionUp
	if p.MarkPrice < anchor {
		direction = notifier.DirectionDown
	}

	ev := positionEvent(notifier.EventPriceAlert, p, st)
	ev.AnchorPrice = anchor
	ev.PriceDelta = p.MarkPrice - anchor
	ev.PricePercent = percentMove
	ev.Direction = direction
	ev.Shared = shared
	e.emit(ev, st)

	if shared {
		e.coordinator.Record(key, p.MarkPrice)
		// Move every holder's anchor so the other wallets do not
		// re-fire for the same market move on their own cycles.
		for _, holder := range holders {
			holder.lastNotifiedPrice[key] = p.MarkPrice
		}
	} else {
		st.lastNotifiedPrice[key] = p.MarkPrice
	}
}

// holdersLocked returns every tracked wallet currently holding the given
// identity key. Caller holds e.mu.
func (e *Engine) holdersLocked(key string) []*walletState {
	var holders []*walletState
	for _, st := range e.wallets {
		for _, p := range st.positions {
			if p.Key() == key {
				holders = append(holders, st)
				break
			}
		}
	}
	return holders
}

// RecordFailure marks a wallet's last check as failed without touching
// its tracking state, so the next successful cycle diffs against the
// last good snapshot.
func (e *Engine) RecordFailure(walletKey string, err error) {
	e.mu.Lock()
	if st, ok := e.wallets[walletKey]; ok {
		st.lastChecked = time.Now()
		st.lastError = err.Error()
	}
	e.mu.Unlock()

	e.statsMu.Lock()
	e.stats.FetchFailures++
	e.statsMu.Unlock()

	e.logger.Warn("wallet check failed",
		zap.String("wallet", walletKey),
		zap.Error(err),
	)
}

// WalletPositions returns the last good snapshot for one wallet.
func (e *Engine) WalletPositions(walletKey string) ([]hyperliquid.Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.wallets[walletKey]
	if !ok {
		return nil, false
	}
	out := make([]hyperliquid.Position, len(st.positions))
	copy(out, st.positions)
	return out, true
}

// Status returns a read-only view of every tracked wallet.
func (e *Engine) Status() []WalletStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	statuses := make([]WalletStatus, 0, len(e.wallets))
	for _, st := range e.wallets {
		statuses = append(statuses, WalletStatus{
			Key:           st.wallet.Key,
			Name:          st.wallet.Name,
			Address:       st.wallet.Address,
			Phase:         st.phase.String(),
			PositionCount: len(st.positions),
			LastChecked:   st.lastChecked,
			LastError:     st.lastError,
		})
	}
	return statuses
}

// Stats returns a copy of the event counters.
func (e *Engine) Stats() EngineStats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	out := e.stats
	out.EventsSent = make(map[string]int, len(e.stats.EventsSent))
	for k, v := range e.stats.EventsSent {
		out.EventsSent[k] = v
	}
	return out
}

func (e *Engine) emit(event notifier.Event, st *walletState) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	e.statsMu.Lock()
	e.stats.EventsSent[string(event.Type)]++
	e.statsMu.Unlock()

	e.logger.Info("emitting event",
		zap.String("type", string(event.Type)),
		zap.String("wallet", st.wallet.Key),
		zap.String("coin", event.Coin),
		zap.String("side", event.Side),
	)

	if e.notifier != nil {
		e.notifier.SendEvent(event)
	}
}

// positionEvent builds an event pre-filled with wallet and position data.
func positionEvent(t notifier.EventType, p hyperliquid.Position, st *walletState) notifier.Event {
	return notifier.Event{
		Type:          t,
		WalletKey:     st.wallet.Key,
		WalletName:    st.wallet.Name,
		WalletAddress: st.wallet.Address,
		Coin:          p.Coin,
		Side:          p.Side,
		Size:          p.Size,
		EntryPrice:    p.EntryPrice,
		MarkPrice:     p.MarkPrice,
		UnrealizedPnl: p.UnrealizedPnl,
		PositionValue: p.PositionValue,
		Leverage:      p.Leverage,
		Timestamp:     time.Now(),
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func pctOf(delta, anchor float64) float64 {
	if anchor == 0 {
		return 0
	}
	return abs(delta) / anchor * 100
}
