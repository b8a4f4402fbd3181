package app

import (
	"context"
	"sync"

	"github.com/SerhatHacioglu/trumptakip/clients/hyperliquid"
	"github.com/SerhatHacioglu/trumptakip/clients/notifier"
)

// MockNotifier records every event it receives.
type MockNotifier struct {
	mu     sync.Mutex
	events []notifier.Event
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) SendEvent(event notifier.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockNotifier) Close() error {
	return nil
}

// Events returns a copy of everything sent so far.
func (m *MockNotifier) Events() []notifier.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notifier.Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsOfType returns only events of the given type, in send order.
func (m *MockNotifier) EventsOfType(t notifier.EventType) []notifier.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notifier.Event
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Reset forgets all recorded events.
func (m *MockNotifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

// MockPositionFetcher returns canned snapshots per address.
type MockPositionFetcher struct {
	mu        sync.Mutex
	positions map[string][]hyperliquid.Position
	errs      map[string]error
	calls     map[string]int
}

func NewMockPositionFetcher() *MockPositionFetcher {
	return &MockPositionFetcher{
		positions: make(map[string][]hyperliquid.Position),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (m *MockPositionFetcher) SetPositions(address string, positions []hyperliquid.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[address] = positions
	delete(m.errs, address)
}

func (m *MockPositionFetcher) SetError(address string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[address] = err
}

func (m *MockPositionFetcher) Calls(address string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[address]
}

func (m *MockPositionFetcher) FetchPositions(ctx context.Context, address string) ([]hyperliquid.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[address]++
	if err := m.errs[address]; err != nil {
		return nil, err
	}
	return m.positions[address], nil
}

// MockPriceFetcher returns canned spot prices.
type MockPriceFetcher struct {
	mu     sync.Mutex
	prices map[string]float64
	err    error
	calls  int
}

func NewMockPriceFetcher() *MockPriceFetcher {
	return &MockPriceFetcher{prices: make(map[string]float64)}
}

func (m *MockPriceFetcher) SetPrice(id string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[id] = price
}

func (m *MockPriceFetcher) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockPriceFetcher) SimplePrices(ctx context.Context, ids []string) (map[string]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]float64)
	for _, id := range ids {
		if p, ok := m.prices[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func position(coin, side string, size, entry, mark float64) hyperliquid.Position {
	return hyperliquid.Position{
		Coin:          coin,
		Side:          side,
		Size:          size,
		EntryPrice:    entry,
		MarkPrice:     mark,
		PositionValue: size * mark,
		Leverage:      10,
	}
}
