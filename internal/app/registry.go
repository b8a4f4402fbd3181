package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/SerhatHacioglu/trumptakip/internal/store"

	"go.uber.org/zap"
)

// Registry mediates between the wallet store and the engine's tracked
// set. Every mutation persists to the store first, then re-syncs the
// engine, so the engine only ever sees registry states that survived a
// write.
type Registry struct {
	logger *zap.Logger
	store  store.Store
	engine *Engine

	mu sync.Mutex
}

func NewRegistry(logger *zap.Logger, s store.Store, engine *Engine) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger: logger,
		store:  s,
		engine: engine,
	}
}

// Load reads the wallet set from the store and syncs the engine. Called
// once at startup.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallets, err := r.store.ListWallets(ctx)
	if err != nil {
		return fmt.Errorf("load wallets: %w", err)
	}

	r.engine.SyncWallets(wallets)
	r.logger.Info("wallet registry loaded", zap.Int("count", len(wallets)))
	return nil
}

// List returns the persisted wallet set.
func (r *Registry) List(ctx context.Context) ([]store.Wallet, error) {
	return r.store.ListWallets(ctx)
}

// Upsert validates and persists one wallet, then re-syncs the engine.
func (r *Registry) Upsert(ctx context.Context, w store.Wallet) error {
	if err := validateWallet(w); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.UpsertWallet(ctx, w); err != nil {
		return err
	}
	return r.resyncLocked(ctx)
}

// Delete removes one wallet by key, then re-syncs the engine. The
// engine drops the wallet's tracking state; re-adding the same key
// later starts a fresh baseline.
func (r *Registry) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.DeleteWallet(ctx, key); err != nil {
		return err
	}
	return r.resyncLocked(ctx)
}

// Sync atomically replaces the full wallet set. Wallet keys present in
// both the old and new set keep their engine state (anchors, phase);
// only genuinely new keys re-baseline.
func (r *Registry) Sync(ctx context.Context, wallets []store.Wallet) error {
	seen := make(map[string]struct{}, len(wallets))
	for _, w := range wallets {
		if err := validateWallet(w); err != nil {
			return err
		}
		if _, dup := seen[w.Key]; dup {
			return fmt.Errorf("duplicate wallet key %q", w.Key)
		}
		seen[w.Key] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.ReplaceWallets(ctx, wallets); err != nil {
		return err
	}
	return r.resyncLocked(ctx)
}

func (r *Registry) resyncLocked(ctx context.Context) error {
	wallets, err := r.store.ListWallets(ctx)
	if err != nil {
		return fmt.Errorf("reload wallets: %w", err)
	}
	r.engine.SyncWallets(wallets)
	return nil
}

func validateWallet(w store.Wallet) error {
	if strings.TrimSpace(w.Key) == "" {
		return fmt.Errorf("wallet key must not be empty")
	}
	addr := strings.ToLower(strings.TrimSpace(w.Address))
	if !strings.HasPrefix(addr, "0x") || len(addr) != 42 {
		return fmt.Errorf("wallet %q address must be a 0x-prefixed 40-hex-char address", w.Key)
	}
	for _, c := range addr[2:] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("wallet %q address contains non-hex characters", w.Key)
		}
	}
	return nil
}
