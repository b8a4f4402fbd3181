package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	clts "github.com/SerhatHacioglu/trumptakip/clients"
	"github.com/SerhatHacioglu/trumptakip/config"
	"github.com/SerhatHacioglu/trumptakip/internal/app"
	"github.com/SerhatHacioglu/trumptakip/internal/store"

	"go.uber.org/zap"
)

const (
	// storeConnectTimeout is the maximum time to wait for the database
	storeConnectTimeout = 15 * time.Second
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Load config from environment variables
	cfg := config.Load()
	logger.Info("starting bot", zap.Bool("isProd", cfg.IsProd))

	// Validate config before doing anything else
	if result := cfg.Validate(); !result.Valid {
		for _, verr := range result.Errors {
			logger.Error("invalid config",
				zap.String("field", verr.Field),
				zap.String("message", verr.Message),
			)
		}
		logger.Fatal("config validation failed", zap.Int("errors", len(result.Errors)))
	}

	logger.Info("instantiating clients")
	clients := clts.NewClients(logger, cfg)

	// Wallet store: Postgres when configured, in-memory otherwise
	var walletStore store.Store
	if cfg.Database.URL != "" {
		connectCtx, connectCancel := context.WithTimeout(context.Background(), storeConnectTimeout)
		pg, err := store.NewPostgresStore(connectCtx, logger, cfg.Database.URL)
		connectCancel()
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		walletStore = pg
		logger.Info("using postgres wallet store")
	} else {
		walletStore = store.NewMemoryStore()
		logger.Info("DATABASE_URL not set, using in-memory wallet store")
	}
	defer walletStore.Close()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	runner := app.NewRunner(clients, cfg, walletStore)
	if err := runner.Run(ctx); err != nil {
		logger.Fatal("runner failed", zap.Error(err))
	}
}
