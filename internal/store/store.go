// Package store persists the tracked wallet registry.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a wallet key does not exist.
var ErrNotFound = errors.New("wallet not found")

// Wallet is a tracked wallet entry.
type Wallet struct {
	Key       string    `json:"key"`     // Stable identifier, e.g. "wallet1"
	Address   string    `json:"address"` // 0x-prefixed, stored lowercase
	Name      string    `json:"name"`
	Color     string    `json:"color"` // Hex color used by dashboard clients
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the wallet registry backend.
type Store interface {
	// ListWallets returns all wallets ordered by key.
	ListWallets(ctx context.Context) ([]Wallet, error)

	// UpsertWallet inserts or updates a wallet by key.
	UpsertWallet(ctx context.Context, w Wallet) error

	// DeleteWallet removes a wallet by key.
	DeleteWallet(ctx context.Context, key string) error

	// ReplaceWallets atomically replaces the full wallet set.
	ReplaceWallets(ctx context.Context, wallets []Wallet) error

	// Close releases any backend resources.
	Close() error
}

// DefaultWallets is the set seeded into an empty registry on first start.
func DefaultWallets() []Wallet {
	return []Wallet{
		{Key: "wallet1", Address: "0xc2a30212a8ddac9e123944d6e29faddce994e5f2", Name: "Cüzdan 1", Color: "#3498db"},
		{Key: "wallet2", Address: "0xb317d2bc2d3d2df5fa441b5bae0ab9d8b07283ae", Name: "Cüzdan 2", Color: "#2ecc71"},
		{Key: "wallet3", Address: "0x9263c1bd29aa87a118242f3fbba4517037f8cc7a", Name: "Cüzdan 3", Color: "#e74c3c"},
	}
}
