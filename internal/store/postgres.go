package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"go.uber.org/zap"
)

// PostgresStore persists the wallet registry in Postgres.
type PostgresStore struct {
	logger *zap.Logger
	db     *sql.DB
}

// NewPostgresStore opens the database, ensures the schema exists and seeds
// the default wallets when the table is empty.
func NewPostgresStore(ctx context.Context, logger *zap.Logger, databaseURL string) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{logger: logger, db: db}

	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.seedDefaults(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("postgres wallet store ready")
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS wallets (
			key        TEXT PRIMARY KEY,
			address    TEXT NOT NULL,
			name       TEXT NOT NULL,
			color      TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create wallets table: %w", err)
	}
	return nil
}

func (s *PostgresStore) seedDefaults(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wallets`).Scan(&count); err != nil {
		return fmt.Errorf("count wallets: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, w := range DefaultWallets() {
		if err := s.UpsertWallet(ctx, w); err != nil {
			return fmt.Errorf("seed wallet %s: %w", w.Key, err)
		}
	}
	s.logger.Info("seeded default wallets", zap.Int("count", len(DefaultWallets())))
	return nil
}

// ListWallets returns all wallets ordered by key.
func (s *PostgresStore) ListWallets(ctx context.Context) ([]Wallet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, address, name, color, created_at, updated_at
		FROM wallets
		ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []Wallet
	for rows.Next() {
		var w Wallet
		if err := rows.Scan(&w.Key, &w.Address, &w.Name, &w.Color, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallets: %w", err)
	}

	return wallets, nil
}

// UpsertWallet inserts or updates a wallet by key.
func (s *PostgresStore) UpsertWallet(ctx context.Context, w Wallet) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wallets (key, address, name, color, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (key) DO UPDATE
		SET address = EXCLUDED.address,
		    name = EXCLUDED.name,
		    color = EXCLUDED.color,
		    updated_at = NOW()`,
		w.Key, strings.ToLower(w.Address), w.Name, w.Color)
	if err != nil {
		return fmt.Errorf("upsert wallet %s: %w", w.Key, err)
	}
	return nil
}

// DeleteWallet removes a wallet by key.
func (s *PostgresStore) DeleteWallet(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM wallets WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete wallet %s: %w", key, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceWallets atomically replaces the full wallet set.
func (s *PostgresStore) ReplaceWallets(ctx context.Context, wallets []Wallet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM wallets`); err != nil {
		return fmt.Errorf("clear wallets: %w", err)
	}

	for _, w := range wallets {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO wallets (key, address, name, color, updated_at)
			VALUES ($1, $2, $3, $4, NOW())`,
			w.Key, strings.ToLower(w.Address), w.Name, w.Color); err != nil {
			return fmt.Errorf("insert wallet %s: %w", w.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
