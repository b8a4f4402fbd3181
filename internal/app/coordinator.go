package app

import (
	"sync"
	"time"
)

// sharedAlert is the last shared price alert that went out for one
// identity key, across all wallets.
type sharedAlert struct {
	price      float64
	notifiedAt time.Time
}

// Coordinator suppresses duplicate price alerts for positions held by
// multiple tracked wallets. One market move would otherwise produce one
// alert per holding wallet.
type Coordinator struct {
	mu     sync.Mutex
	window time.Duration
	alerts map[string]sharedAlert // identity key -> last shared alert
	now    func() time.Time       // swapped in tests
}

func NewCoordinator(window time.Duration) *Coordinator {
	return &Coordinator{
		window: window,
		alerts: make(map[string]sharedAlert),
		now:    time.Now,
	}
}

// SetWindow replaces the suppression window.
func (c *Coordinator) SetWindow(window time.Duration) {
	c.mu.Lock()
	c.window = window
	c.mu.Unlock()
}

// Suppressed reports whether a shared alert for the key went out within
// the suppression window. Expired entries are pruned as a side effect.
func (c *Coordinator) Suppressed(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	alert, ok := c.alerts[key]
	if !ok {
		return false
	}
	if now.Sub(alert.notifiedAt) > c.window {
		delete(c.alerts, key)
		return false
	}
	return true
}

// Record notes that a shared alert for the key was just emitted at the
// given price, starting a new suppression window.
func (c *Coordinator) Record(key string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.alerts[key] = sharedAlert{price: price, notifiedAt: c.now()}
}

// LastPrice returns the price of the last shared alert for the key.
func (c *Coordinator) LastPrice(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	alert, ok := c.alerts[key]
	if !ok {
		return 0, false
	}
	return alert.price, true
}
