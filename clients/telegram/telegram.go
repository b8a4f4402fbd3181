package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SerhatHacioglu/trumptakip/clients/notifier"
	"github.com/SerhatHacioglu/trumptakip/config"

	"go.uber.org/zap"
)

const telegramAPIURL = "https://api.telegram.org/bot%s/%s"

// TelegramClient sends position alerts to Telegram.
// Implements notifier.Notifier interface.
type TelegramClient struct {
	logger   *zap.Logger
	botToken string
	chatID   string
	isProd   bool
	client   *http.Client
}

func NewTelegramClient(logger *zap.Logger, cfg *config.Config) *TelegramClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	chatID := cfg.Telegram.BetaChatID
	if cfg.IsProd {
		chatID = cfg.Telegram.ProdChatID
	}

	token := cfg.Telegram.BotToken
	if token == "" {
		logger.Warn("TELEGRAM_BOT_TOKEN not set, Telegram alerts disabled")
		return &TelegramClient{
			logger: logger,
			chatID: chatID,
			isProd: cfg.IsProd,
		}
	}

	logger.Info("telegram bot initialized",
		zap.Bool("isProd", cfg.IsProd),
		zap.String("chatID", chatID),
	)

	return &TelegramClient{
		logger:   logger,
		botToken: token,
		chatID:   chatID,
		isProd:   cfg.IsProd,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SendEvent sends a position event notification.
// Implements notifier.Notifier interface.
func (tc *TelegramClient) SendEvent(event notifier.Event) {
	if tc.botToken == "" || tc.chatID == "" {
		tc.logger.Warn("telegram not configured, skipping event")
		return
	}

	message := tc.buildMessage(event)

	if err := tc.sendMessage(message); err != nil {
		tc.logger.Error("failed to send telegram message", zap.Error(err))
		return
	}

	tc.logger.Info("sent telegram notification",
		zap.String("type", string(event.Type)),
		zap.String("wallet", event.WalletName),
		zap.String("coin", event.Coin),
	)
}

func (tc *TelegramClient) buildMessage(event notifier.Event) string {
	var sb strings.Builder

	switch event.Type {
	case notifier.EventBotStarted:
		sb.WriteString("🤖 <b>Bot Started</b>\n\n")
		sb.WriteString(fmt.Sprintf("Now tracking <b>%s</b> (%s)\n", escapeHTML(walletDisplay(event)), shortAddress(event.WalletAddress)))
		sb.WriteString(fmt.Sprintf("Open positions: <b>%d</b>", event.PositionCount))

	case notifier.EventBaseline:
		sb.WriteString(fmt.Sprintf("📋 <b>Current Position</b> · %s\n\n", escapeHTML(walletDisplay(event))))
		tc.writePositionBlock(&sb, event)

	case notifier.EventOpened:
		sb.WriteString(fmt.Sprintf("%s <b>Position Opened</b> · %s\n\n", sideEmoji(event.Side), escapeHTML(walletDisplay(event))))
		tc.writePositionBlock(&sb, event)

	case notifier.EventClosed:
		sb.WriteString(fmt.Sprintf("⚪ <b>Position Closed</b> · %s\n\n", escapeHTML(walletDisplay(event))))
		sb.WriteString(fmt.Sprintf("<b>%s %s</b>\n", escapeHTML(event.Coin), event.Side))
		sb.WriteString(fmt.Sprintf("Size was: %s\n", formatSize(event.Size)))
		sb.WriteString(fmt.Sprintf("Entry: $%s\n", formatPrice(event.EntryPrice)))
		sb.WriteString(fmt.Sprintf("Last PnL: %s", formatPnl(event.UnrealizedPnl)))

	case notifier.EventIncreased:
		sb.WriteString(fmt.Sprintf("📈 <b>Position Increased</b> · %s\n\n", escapeHTML(walletDisplay(event))))
		tc.writeSizeChangeBlock(&sb, event)

	case notifier.EventDecreased:
		sb.WriteString(fmt.Sprintf("📉 <b>Position Decreased</b> · %s\n\n", escapeHTML(walletDisplay(event))))
		tc.writeSizeChangeBlock(&sb, event)

	case notifier.EventPriceAlert:
		arrow := "🔺"
		if event.Direction == notifier.DirectionDown {
			arrow = "🔻"
		}
		if event.Shared {
			sb.WriteString(fmt.Sprintf("%s <b>Price Alert</b> · multiple wallets\n\n", arrow))
		} else {
			sb.WriteString(fmt.Sprintf("%s <b>Price Alert</b> · %s\n\n", arrow, escapeHTML(walletDisplay(event))))
		}
		sb.WriteString(fmt.Sprintf("<b>%s %s</b>\n", escapeHTML(event.Coin), event.Side))
		sb.WriteString(fmt.Sprintf("Mark: $%s (%+.2f%% from $%s)\n",
			formatPrice(event.MarkPrice), signedPct(event), formatPrice(event.AnchorPrice)))
		sb.WriteString(fmt.Sprintf("Size: %s · PnL: %s", formatSize(event.Size), formatPnl(event.UnrealizedPnl)))

	case notifier.EventMarketMove:
		arrow := "🔺"
		if event.Direction == notifier.DirectionDown {
			arrow = "🔻"
		}
		sb.WriteString(fmt.Sprintf("%s <b>%s</b>\n\n", arrow, escapeHTML(strings.ToUpper(event.Coin))))
		sb.WriteString(fmt.Sprintf("$%s (%+.2f%% from $%s)",
			formatPrice(event.MarkPrice), signedPct(event), formatPrice(event.AnchorPrice)))

	default:
		sb.WriteString(fmt.Sprintf("<b>%s</b> · %s %s", escapeHTML(string(event.Type)), escapeHTML(event.Coin), event.Side))
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	sb.WriteString(fmt.Sprintf("\n\n<i>%s</i>", ts.UTC().Format("2006-01-02 15:04:05 UTC")))

	return sb.String()
}

func (tc *TelegramClient) writePositionBlock(sb *strings.Builder, event notifier.Event) {
	sb.WriteString(fmt.Sprintf("<b>%s %s %.0fx</b>\n", escapeHTML(event.Coin), event.Side, event.Leverage))
	sb.WriteString(fmt.Sprintf("Size: %s ($%s)\n", formatSize(event.Size), formatUSD(event.PositionValue)))
	sb.WriteString(fmt.Sprintf("Entry: $%s · Mark: $%s\n", formatPrice(event.EntryPrice), formatPrice(event.MarkPrice)))
	sb.WriteString(fmt.Sprintf("PnL: %s", formatPnl(event.UnrealizedPnl)))
}

func (tc *TelegramClient) writeSizeChangeBlock(sb *strings.Builder, event notifier.Event) {
	sb.WriteString(fmt.Sprintf("<b>%s %s</b>\n", escapeHTML(event.Coin), event.Side))
	sb.WriteString(fmt.Sprintf("Change: %s (~$%s, %.1f%%)\n",
		formatSignedSize(event.SizeDelta), formatUSD(event.DeltaValueUSD), event.DeltaPercent))
	sb.WriteString(fmt.Sprintf("Size: %s → %s\n", formatSize(event.AnchorSize), formatSize(event.Size)))
	sb.WriteString(fmt.Sprintf("Mark: $%s · PnL: %s", formatPrice(event.MarkPrice), formatPnl(event.UnrealizedPnl)))
}

func (tc *TelegramClient) sendMessage(text string) error {
	url := fmt.Sprintf(telegramAPIURL, tc.botToken, "sendMessage")

	payload := map[string]interface{}{
		"chat_id":    tc.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := tc.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// Close cleans up resources. Implements notifier.Notifier interface.
func (tc *TelegramClient) Close() error {
	return nil
}

func walletDisplay(event notifier.Event) string {
	if event.WalletName != "" {
		return event.WalletName
	}
	return shortAddress(event.WalletAddress)
}

func shortAddress(addr string) string {
	if len(addr) <= 14 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-6:]
}

func sideEmoji(side string) string {
	if side == "SHORT" {
		return "🔴"
	}
	return "🟢"
}

func signedPct(event notifier.Event) float64 {
	if event.Direction == notifier.DirectionDown {
		return -event.PricePercent
	}
	return event.PricePercent
}

func formatSize(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}

func formatSignedSize(v float64) string {
	if v >= 0 {
		return "+" + formatSize(v)
	}
	return "-" + formatSize(-v)
}

func formatPrice(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.2f", v)
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", v), "0"), ".")
}

func formatUSD(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatPnl(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+$%.2f", v)
	}
	return fmt.Sprintf("-$%.2f", -v)
}

// escapeHTML escapes the characters Telegram's HTML parse mode treats specially.
func escapeHTML(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	return replacer.Replace(s)
}
