package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/SerhatHacioglu/trumptakip/clients/notifier"
	"github.com/SerhatHacioglu/trumptakip/config"

	"go.uber.org/zap"
)

func testConfig(isProd bool, token string) *config.Config {
	return &config.Config{
		IsProd: isProd,
		Telegram: config.TelegramConfig{
			BotToken:   token,
			ProdChatID: "prod-chat",
			BetaChatID: "beta-chat",
		},
	}
}

func testEvent(t notifier.EventType) notifier.Event {
	return notifier.Event{
		Type:          t,
		WalletKey:     "wallet1",
		WalletName:    "Cüzdan 1",
		WalletAddress: "0xc2a30212a8ddac9e123944d6e29faddce994e5f2",
		Coin:          "BTC",
		Side:          "LONG",
		Size:          12.5,
		EntryPrice:    50000,
		MarkPrice:     51000,
		UnrealizedPnl: 12500,
		PositionValue: 637500,
		Leverage:      20,
		Timestamp:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewTelegramClient_NoToken(t *testing.T) {
	client := NewTelegramClient(zap.NewNop(), testConfig(false, ""))

	if client.botToken != "" {
		t.Error("expected empty token")
	}
	if client.chatID != "beta-chat" {
		t.Errorf("expected beta chat, got: %s", client.chatID)
	}
}

func TestNewTelegramClient_ProdChat(t *testing.T) {
	client := NewTelegramClient(nil, testConfig(true, "test-token"))

	if client.chatID != "prod-chat" {
		t.Errorf("expected prod chat, got: %s", client.chatID)
	}
	if !client.isProd {
		t.Error("expected isProd flag")
	}
}

func TestSendEvent_NotConfigured(t *testing.T) {
	client := NewTelegramClient(zap.NewNop(), testConfig(false, ""))

	// Must not panic or attempt a network call.
	client.SendEvent(testEvent(notifier.EventOpened))
}

func TestBuildMessage_BotStarted(t *testing.T) {
	client := NewTelegramClient(zap.NewNop(), testConfig(false, "token"))

	ev := testEvent(notifier.EventBotStarted)
	ev.PositionCount = 3
	msg := client.buildMessage(ev)

	if !strings.Contains(msg, "Bot Started") {
		t.Errorf("expected bot started header, got: %s", msg)
	}
	if !strings.Contains(msg, "Cüzdan 1") {
		t.Errorf("expected wallet name, got: %s", msg)
	}
	if !strings.Contains(msg, "0xc2a3…94e5f2") {
		t.Errorf("expected short address, got: %s", msg)
	}
	if !strings.Contains(msg, "<b>3</b>") {
		t.Errorf("expected position count, got: %s", msg)
	}
}

func TestBuildMessage_Baseline(t *testing.T) {
	client := NewTelegramClient(zap.NewNop(), testConfig(false, "token"))

	msg := client.buildMessage(testEvent(notifier.EventBaseline))

	if !strings.Contains(msg, "Current Position") {
		t.Errorf("expected baseline header, got: %s", msg)
	}
	if !strings.Contains(msg, "BTC LONG 20x") {
		t.Errorf("expected position line, got: %s", msg)
	}
	if !strings.Contains(msg, "Entry: $50000.00") {
		t.Errorf("expected entry price, got: %s", msg)
	}
	if !strings.Contains(msg, "PnL: +$12500.00") {
		t.Errorf("expected pnl, got: %s", msg)
	}
	if !strings.Contains(msg, "2025-06-01 12:00:00 UTC") {
		t.Errorf("expected timestamp footer, got: %s", msg)
	}
}

func TestBuildMessage_OpenedSideEmoji(t *testing.T) {
	client := NewTelegramClient(zap.NewNop(), testConfig(false, "token"))

	long := client.buildMessage(testEvent(notifier.EventOpened))
	if !strings.Contains(long, "🟢") {
		t.Errorf("expected green emoji for long, got: %s", long)
	}

	ev := testEvent(notifier.EventOpened)
	ev.Side = "SHORT"
	short := client.buildMessage(ev)
	if !strings.Contains(short, "🔴") {
		t.Errorf("expected red emoji for short, got: %s", short)
	}
}

func TestBuildMessage_Closed(t *testing.T) {
	client := NewTelegramClient(zap.NewNop(), testConfig(false, "token"))

	ev := testEvent(notifier.EventClosed)
	ev.UnrealizedPnl = -420.5
	msg := client.buildMessage(ev)

	if !strings.Contains(msg, "Position Closed") {
		t.Errorf("expected closed header, got: %s", msg)
	}
	if !strings.Contains(msg, "Size was: 12.5") {
		t.Errorf("expected final size, got: %s", msg)
	}
	if !strings.Contains(msg, "Last PnL: -$420.50") {
		t.Errorf("expected negative pnl, got: %s", msg)
	}
}

func TestBuildMessage_Increased(t *testing.T) {
	client := NewTelegramClient(zap.NewNop(), testConfig(false, "token"))

	ev := testEvent(notifier.EventIncreased)
	ev.SizeDelta = 6
	ev.DeltaValueUSD = 306000
	ev.DeltaPercent = 92.3
	ev.AnchorSize = 6.5
	msg := client.buildMessage(ev)

	if !strings.Contains(msg, "📈") || !strings.Contains(msg, "Position Increased") {
		t.Errorf("expected increase header, got: %s", msg)
	}
	if !strings.Contains(msg, "Change: +6 (~$306000.00, 92.3%)") {
		t.Errorf("expected change line, got: %s", msg)
	}
	if !strings.Contains(msg, "Size: 6.5 → 12.5") {
		t.Errorf("expected size transition, got: %s", msg)
	}
}

func TestBuildMessage_Decreased(t *testing.T) {
	client := NewTelegramClient(zap.NewNop(), testConfig(false, "token"))

	ev := testEvent(notifier.EventDecreased)
	ev.SizeDelta = -6
	ev.DeltaValueUSD = 306000
	ev.DeltaPercent = 32.4
	ev.AnchorSize = 18.5
	msg := client.buildMessage(ev)

	if !strings.Contains(msg, "📉") || !strings.Contains(msg, "Position Decreased") {
		t.Errorf("expected decrease header, got: %s", msg)
	}
	if !strings.Contains(msg, "Change: -6") {
		t.Errorf("expected signed change, got: %s", msg)
	}
}

func TestBuildMessage_PriceAlert(t *testing.T) {
	client := NewTelegramClient(zap.NewNop(), testConfig(false, "token"))

	ev := testEvent(notifier.EventPriceAlert)
	ev.AnchorPrice = 49500
	ev.PricePercent = 3.03
	ev.Direction = notifier.DirectionUp
	msg := client.buildMessage(ev)

	if !strings.Contains(msg, "🔺") {
		t.Errorf("expected up arrow, got: %s", msg)
	}
	if !strings.Contains(msg, "(+3.03% from $49500.00)") {
		t.Errorf("expected signed percent, got: %s", msg)
	}
	if strings.Contains(msg, "multiple wallets") {
		t.Error("single-holder alert should name the wallet")
	}
}

func TestBuildMessage_SharedPriceAlert(t *testing.T) {
	client := NewTelegramClient(zap.NewNop(), testConfig(false, "token"))

	ev := testEvent(notifier.EventPriceAlert)
	ev.Shared = true
	ev.AnchorPrice = 52000
	ev.PricePercent = 1.92
	ev.Direction = notifier.DirectionDown
	msg := client.buildMessage(ev)

	if !strings.Contains(msg, "🔻") {
		t.Errorf("expected down arrow, got: %s", msg)
	}
	if !strings.Contains(msg, "multiple wallets") {
		t.Errorf("expected shared label, got: %s", msg)
	}
	if !strings.Contains(msg, "-1.92%") {
		t.Errorf("expected negative percent for down move, got: %s", msg)
	}
}

func TestBuildMessage_MarketMove(t *testing.T) {
	client := NewTelegramClient(zap.NewNop(), testConfig(false, "token"))

	ev := notifier.Event{
		Type:         notifier.EventMarketMove,
		Coin:         "bitcoin",
		MarkPrice:    103000,
		AnchorPrice:  100000,
		PricePercent: 3,
		Direction:    notifier.DirectionUp,
		Timestamp:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	msg := client.buildMessage(ev)

	if !strings.Contains(msg, "<b>BITCOIN</b>") {
		t.Errorf("expected uppercased coin, got: %s", msg)
	}
	if !strings.Contains(msg, "(+3.00% from $100000.00)") {
		t.Errorf("expected move line, got: %s", msg)
	}
}

func TestBuildMessage_ZeroTimestamp(t *testing.T) {
	client := NewTelegramClient(zap.NewNop(), testConfig(false, "token"))

	ev := testEvent(notifier.EventBaseline)
	ev.Timestamp = time.Time{}
	msg := client.buildMessage(ev)

	if !strings.Contains(msg, "UTC</i>") {
		t.Errorf("expected a timestamp footer even for zero time, got: %s", msg)
	}
}

func TestBuildMessage_EscapesWalletName(t *testing.T) {
	client := NewTelegramClient(zap.NewNop(), testConfig(false, "token"))

	ev := testEvent(notifier.EventBaseline)
	ev.WalletName = "a<b>&c"
	msg := client.buildMessage(ev)

	if !strings.Contains(msg, "a&lt;b&gt;&amp;c") {
		t.Errorf("expected escaped name, got: %s", msg)
	}
}

func TestShortAddress(t *testing.T) {
	if got := shortAddress("0xc2a30212a8ddac9e123944d6e29faddce994e5f2"); got != "0xc2a3…94e5f2" {
		t.Errorf("unexpected short address: %s", got)
	}
	if got := shortAddress("0x1234"); got != "0x1234" {
		t.Errorf("short addresses should pass through, got: %s", got)
	}
}

func TestFormatSize(t *testing.T) {
	cases := map[float64]string{
		12.5:    "12.5",
		100:     "100",
		0.1234: "0.1234",
		1.5:    "1.5",
	}
	for in, want := range cases {
		if got := formatSize(in); got != want {
			t.Errorf("formatSize(%f): expected %s, got %s", in, want, got)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	if got := formatPrice(51000); got != "51000.00" {
		t.Errorf("unexpected large price: %s", got)
	}
	if got := formatPrice(0.00012); got != "0.00012" {
		t.Errorf("unexpected small price: %s", got)
	}
}

func TestClose(t *testing.T) {
	client := NewTelegramClient(zap.NewNop(), testConfig(false, "token"))
	if err := client.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}
