package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process wallet registry used when no DATABASE_URL is
// configured. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	wallets map[string]Wallet
}

// NewMemoryStore creates a registry seeded with the default wallets.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{wallets: make(map[string]Wallet)}
	now := time.Now()
	for _, w := range DefaultWallets() {
		w.Address = strings.ToLower(w.Address)
		w.CreatedAt = now
		w.UpdatedAt = now
		s.wallets[w.Key] = w
	}
	return s
}

// NewEmptyMemoryStore creates a registry with no wallets.
func NewEmptyMemoryStore() *MemoryStore {
	return &MemoryStore{wallets: make(map[string]Wallet)}
}

func (s *MemoryStore) ListWallets(_ context.Context) ([]Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wallets := make([]Wallet, 0, len(s.wallets))
	for _, w := range s.wallets {
		wallets = append(wallets, w)
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].Key < wallets[j].Key })
	return wallets, nil
}

func (s *MemoryStore) UpsertWallet(_ context.Context, w Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.Address = strings.ToLower(w.Address)
	now := time.Now()
	if existing, ok := s.wallets[w.Key]; ok {
		w.CreatedAt = existing.CreatedAt
	} else {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
	s.wallets[w.Key] = w
	return nil
}

func (s *MemoryStore) DeleteWallet(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wallets[key]; !ok {
		return ErrNotFound
	}
	delete(s.wallets, key)
	return nil
}

func (s *MemoryStore) ReplaceWallets(_ context.Context, wallets []Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	replacement := make(map[string]Wallet, len(wallets))
	for _, w := range wallets {
		w.Address = strings.ToLower(w.Address)
		if existing, ok := s.wallets[w.Key]; ok {
			w.CreatedAt = existing.CreatedAt
		} else {
			w.CreatedAt = now
		}
		w.UpdatedAt = now
		replacement[w.Key] = w
	}
	s.wallets = replacement
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
