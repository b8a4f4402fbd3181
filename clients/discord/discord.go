package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/SerhatHacioglu/trumptakip/clients/notifier"
	"github.com/SerhatHacioglu/trumptakip/config"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// DiscordClient sends position alerts to Discord.
// Implements notifier.Notifier interface.
type DiscordClient struct {
	logger    *zap.Logger
	session   *discordgo.Session
	channelID string
	isProd    bool
}

func NewDiscordClient(logger *zap.Logger, cfg *config.Config) *DiscordClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	channelID := cfg.Discord.BetaChannelID
	if cfg.IsProd {
		channelID = cfg.Discord.ProdChannelID
	}

	token := cfg.Discord.BotToken
	if token == "" {
		logger.Warn("DISCORD_BOT_TOKEN not set, Discord alerts disabled")
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
			isProd:    cfg.IsProd,
		}
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		logger.Error("failed to create discord session", zap.Error(err))
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
			isProd:    cfg.IsProd,
		}
	}

	logger.Info("discord bot initialized",
		zap.Bool("isProd", cfg.IsProd),
		zap.String("channelID", channelID),
	)

	return &DiscordClient{
		logger:    logger,
		session:   session,
		channelID: channelID,
		isProd:    cfg.IsProd,
	}
}

// SendMessage sends a plain text message.
func (dc *DiscordClient) SendMessage(message string) {
	if dc.session == nil {
		dc.logger.Warn("discord session not initialized, skipping message")
		return
	}

	_, err := dc.session.ChannelMessageSend(dc.channelID, message)
	if err != nil {
		dc.logger.Error("failed to send discord message", zap.Error(err))
		return
	}

	dc.logger.Info("sent discord message")
}

// SendEvent sends a rich embedded position notification.
// Implements notifier.Notifier interface.
func (dc *DiscordClient) SendEvent(event notifier.Event) {
	if dc.session == nil {
		dc.logger.Warn("discord session not initialized, skipping event")
		return
	}

	embed := dc.buildEventEmbed(event)

	_, err := dc.session.ChannelMessageSendEmbed(dc.channelID, embed)
	if err != nil {
		dc.logger.Error("failed to send discord embed", zap.Error(err))
		return
	}

	dc.logger.Info("sent discord notification",
		zap.String("type", string(event.Type)),
		zap.String("wallet", event.WalletName),
		zap.String("coin", event.Coin),
	)
}

func (dc *DiscordClient) buildEventEmbed(event notifier.Event) *discordgo.MessageEmbed {
	title, color := eventTitle(event)

	var fields []*discordgo.MessageEmbedField

	if event.Type != notifier.EventMarketMove && event.Type != notifier.EventBotStarted {
		fields = append(fields,
			&discordgo.MessageEmbedField{
				Name:   "Position",
				Value:  fmt.Sprintf("%s %s", event.Coin, event.Side),
				Inline: true,
			},
			&discordgo.MessageEmbedField{
				Name:   "Size",
				Value:  fmt.Sprintf("%.4f (~$%.2f)", event.Size, event.PositionValue),
				Inline: true,
			},
		)
	}

	switch event.Type {
	case notifier.EventBotStarted:
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Open Positions",
			Value:  fmt.Sprintf("%d", event.PositionCount),
			Inline: true,
		})

	case notifier.EventBaseline, notifier.EventOpened:
		fields = append(fields,
			&discordgo.MessageEmbedField{
				Name:   "Entry / Mark",
				Value:  fmt.Sprintf("$%.4f / $%.4f", event.EntryPrice, event.MarkPrice),
				Inline: true,
			},
			&discordgo.MessageEmbedField{
				Name:   "Leverage",
				Value:  fmt.Sprintf("%.0fx", event.Leverage),
				Inline: true,
			},
			&discordgo.MessageEmbedField{
				Name:   "Unrealized PnL",
				Value:  formatPnl(event.UnrealizedPnl),
				Inline: true,
			},
		)

	case notifier.EventClosed:
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Last PnL",
			Value:  formatPnl(event.UnrealizedPnl),
			Inline: true,
		})

	case notifier.EventIncreased, notifier.EventDecreased:
		fields = append(fields,
			&discordgo.MessageEmbedField{
				Name:   "Change",
				Value:  fmt.Sprintf("%+.4f (~$%.2f, %.1f%%)", event.SizeDelta, event.DeltaValueUSD, event.DeltaPercent),
				Inline: true,
			},
			&discordgo.MessageEmbedField{
				Name:   "Size Before → After",
				Value:  fmt.Sprintf("%.4f → %.4f", event.AnchorSize, event.Size),
				Inline: true,
			},
		)

	case notifier.EventPriceAlert:
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Mark Price",
			Value: fmt.Sprintf("$%.4f (%+.2f%% from $%.4f)",
				event.MarkPrice, signedPct(event), event.AnchorPrice),
			Inline: true,
		})
		if event.Shared {
			fields = append(fields, &discordgo.MessageEmbedField{
				Name:   "Scope",
				Value:  "Multiple tracked wallets",
				Inline: true,
			})
		}

	case notifier.EventMarketMove:
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: strings.ToUpper(event.Coin),
			Value: fmt.Sprintf("$%.2f (%+.2f%% from $%.2f)",
				event.MarkPrice, signedPct(event), event.AnchorPrice),
			Inline: false,
		})
	}

	description := ""
	if event.WalletAddress != "" && !event.Shared {
		description = fmt.Sprintf("**%s** (%s)", walletDisplay(event), shortAddress(event.WalletAddress))
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("trumptakip * %s", ts.UTC().Format("2006-01-02 15:04:05 UTC")),
		},
		Timestamp: ts.Format(time.RFC3339),
	}
}

func eventTitle(event notifier.Event) (string, int) {
	const (
		green  = 0x2ECC71
		red    = 0xE74C3C
		gray   = 0x95A5A6
		blue   = 0x3498DB
		orange = 0xE67E22
	)

	switch event.Type {
	case notifier.EventBotStarted:
		return "🤖 Bot Started", blue
	case notifier.EventBaseline:
		return "📋 Current Position", gray
	case notifier.EventOpened:
		if event.Side == "SHORT" {
			return "🔴 Position Opened", red
		}
		return "🟢 Position Opened", green
	case notifier.EventClosed:
		return "⚪ Position Closed", gray
	case notifier.EventIncreased:
		return "📈 Position Increased", green
	case notifier.EventDecreased:
		return "📉 Position Decreased", orange
	case notifier.EventPriceAlert:
		if event.Direction == notifier.DirectionDown {
			return "🔻 Price Alert", red
		}
		return "🔺 Price Alert", green
	case notifier.EventMarketMove:
		if event.Direction == notifier.DirectionDown {
			return "🔻 Market Move", red
		}
		return "🔺 Market Move", green
	}
	return "🚨 Position Alert", blue
}

func walletDisplay(event notifier.Event) string {
	if event.WalletName != "" {
		return event.WalletName
	}
	return shortAddress(event.WalletAddress)
}

func signedPct(event notifier.Event) float64 {
	if event.Direction == notifier.DirectionDown {
		return -event.PricePercent
	}
	return event.PricePercent
}

func formatPnl(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+$%.2f", v)
	}
	return fmt.Sprintf("-$%.2f", -v)
}

func shortAddress(addr string) string {
	if len(addr) <= 14 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-6:]
}

// Close closes the Discord session.
func (dc *DiscordClient) Close() error {
	if dc.session != nil {
		return dc.session.Close()
	}
	return nil
}
