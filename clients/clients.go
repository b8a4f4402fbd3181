package clients

import (
	"github.com/SerhatHacioglu/trumptakip/clients/coingecko"
	"github.com/SerhatHacioglu/trumptakip/clients/discord"
	"github.com/SerhatHacioglu/trumptakip/clients/hyperliquid"
	"github.com/SerhatHacioglu/trumptakip/clients/notifier"
	"github.com/SerhatHacioglu/trumptakip/clients/telegram"
	"github.com/SerhatHacioglu/trumptakip/config"

	"go.uber.org/zap"
)

type Clients struct {
	Logger *zap.Logger

	Discord     *discord.DiscordClient
	Telegram    *telegram.TelegramClient
	Notifier    notifier.Notifier // Combined notifier for all channels
	Hyperliquid *hyperliquid.HyperliquidClient
	CoinGecko   *coingecko.CoinGeckoClient
}

func NewClients(logger *zap.Logger, cfg *config.Config) *Clients {
	discordClient := discord.NewDiscordClient(logger, cfg)
	telegramClient := telegram.NewTelegramClient(logger, cfg)

	// Create combined notifier for all channels
	multiNotifier := notifier.NewMultiNotifier(discordClient, telegramClient)

	return &Clients{
		Logger:      logger,
		Discord:     discordClient,
		Telegram:    telegramClient,
		Notifier:    multiNotifier,
		Hyperliquid: hyperliquid.NewHyperliquidClient(logger, cfg),
		CoinGecko:   coingecko.NewCoinGeckoClient(logger, cfg),
	}
}
