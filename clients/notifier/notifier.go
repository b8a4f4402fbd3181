package notifier

import (
	"time"
)

// EventType tags the kind of change an Event describes.
type EventType string

const (
	// EventBotStarted is emitted once when a wallet's first non-empty
	// snapshot is observed.
	EventBotStarted EventType = "bot_started"
	// EventBaseline describes a position seen in a wallet's first snapshot.
	// Informational only; it seeds anchors but is never alert-worthy.
	EventBaseline  EventType = "baseline"
	EventOpened    EventType = "opened"
	EventClosed    EventType = "closed"
	EventIncreased EventType = "increased"
	EventDecreased EventType = "decreased"
	// EventPriceAlert fires when a position's mark price moved past the
	// percent threshold relative to the last notified price.
	EventPriceAlert EventType = "price_alert"
	// EventMarketMove is a spot-price alert from the standalone price watch,
	// independent of any tracked wallet.
	EventMarketMove EventType = "market_move"
)

// Direction indicates which way a price moved.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Event contains all the data needed to render a notification.
// Type selects the variant; only the fields relevant to that variant are set.
type Event struct {
	Type EventType

	// Wallet info (empty for EventMarketMove)
	WalletKey     string
	WalletName    string
	WalletAddress string

	// Position info
	Coin          string
	Side          string // LONG or SHORT
	Size          float64
	EntryPrice    float64
	MarkPrice     float64
	UnrealizedPnl float64
	PositionValue float64
	Leverage      float64

	// Size-change payload (Increased/Decreased)
	SizeDelta     float64 // signed change vs the last notified size
	DeltaValueUSD float64 // |SizeDelta| * MarkPrice
	DeltaPercent  float64 // |SizeDelta| as percent of the anchor size
	AnchorSize    float64 // last notified size the delta is measured from

	// Price-move payload (PriceAlert/MarketMove)
	AnchorPrice  float64 // last notified price the move is measured from
	PriceDelta   float64 // signed absolute move
	PricePercent float64 // absolute move as percent of the anchor
	Direction    Direction

	// Shared marks a PriceAlert for a position held by multiple tracked
	// wallets, emitted once on behalf of all of them.
	Shared bool

	// BotStarted payload
	PositionCount int

	Timestamp time.Time
}

// Notifier is the interface for delivering events to a messaging channel.
// Delivery is best effort; implementations log failures and never retry.
type Notifier interface {
	// SendEvent renders and delivers one event.
	SendEvent(event Event)

	// Close cleans up any resources.
	Close() error
}

// MultiNotifier broadcasts events to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a new MultiNotifier with the given notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	// Filter out nil notifiers
	var active []Notifier
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &MultiNotifier{notifiers: active}
}

// SendEvent sends the event to all registered notifiers.
func (m *MultiNotifier) SendEvent(event Event) {
	for _, n := range m.notifiers {
		n.SendEvent(event)
	}
}

// Close closes all registered notifiers.
func (m *MultiNotifier) Close() error {
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Count returns the number of active notifiers.
func (m *MultiNotifier) Count() int {
	return len(m.notifiers)
}
