package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SerhatHacioglu/trumptakip/config"

	"go.uber.org/zap"
)

// Side of a perp position. A wallet can hold a LONG and a SHORT on the
// same coin at once; they are tracked as separate positions.
const (
	SideLong  = "LONG"
	SideShort = "SHORT"
)

type HyperliquidClient struct {
	logger     *zap.Logger
	httpClient *http.Client
	baseURL    string
}

func NewHyperliquidClient(logger *zap.Logger, cfg *config.Config) *HyperliquidClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HyperliquidClient{
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: cfg.Hyperliquid.APIURL,
	}
}

// ---- Info API wire types ----
//
// The info endpoint returns all numbers as JSON strings ("szi": "-12.5"),
// so the raw types keep them as strings and Position normalizes them.

type clearinghouseState struct {
	AssetPositions []assetPosition `json:"assetPositions"`
}

type assetPosition struct {
	Position rawPosition `json:"position"`
}

type rawPosition struct {
	Coin           string      `json:"coin"`
	Szi            string      `json:"szi"`
	EntryPx        string      `json:"entryPx"`
	PositionValue  string      `json:"positionValue"`
	UnrealizedPnl  string      `json:"unrealizedPnl"`
	ReturnOnEquity string      `json:"returnOnEquity"`
	Leverage       rawLeverage `json:"leverage"`
}

type rawLeverage struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// Position is a normalized open perp position.
type Position struct {
	Coin          string  `json:"coin"`
	Side          string  `json:"side"` // LONG or SHORT
	Size          float64 `json:"size"` // absolute contracts, always > 0
	EntryPrice    float64 `json:"entryPrice"`
	MarkPrice     float64 `json:"markPrice"`
	UnrealizedPnl float64 `json:"unrealizedPnl"`
	PositionValue float64 `json:"positionValue"`
	Leverage      float64 `json:"leverage"`
}

// Key returns the identity key of the position, e.g. "BTC_LONG".
// Two positions with the same key are the same position across snapshots.
func (p Position) Key() string {
	return p.Coin + "_" + p.Side
}

// FetchPositions fetches the open perp positions for a wallet address.
// Positions with zero size are filtered out. Mark prices come from the
// allMids book; a position whose coin has no mid falls back to its entry
// price so downstream math never sees a zero mark.
func (c *HyperliquidClient) FetchPositions(ctx context.Context, address string) ([]Position, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("address is empty")
	}

	var state clearinghouseState
	if err := c.doInfo(ctx, map[string]string{
		"type": "clearinghouseState",
		"user": address,
	}, &state); err != nil {
		return nil, fmt.Errorf("clearinghouse state: %w", err)
	}

	mids, err := c.fetchAllMids(ctx)
	if err != nil {
		// Stale marks are worse than entry-price marks, but a missing
		// mids book should not hide the positions themselves.
		c.logger.Warn("failed to fetch mids, falling back to entry prices", zap.Error(err))
		mids = map[string]float64{}
	}

	positions := make([]Position, 0, len(state.AssetPositions))
	for _, ap := range state.AssetPositions {
		raw := ap.Position
		szi := parseNum(raw.Szi)
		if szi == 0 {
			continue
		}

		side := SideLong
		if szi < 0 {
			side = SideShort
		}

		leverage := raw.Leverage.Value
		if leverage <= 0 {
			leverage = 1
		}

		entry := parseNum(raw.EntryPx)
		mark, ok := mids[raw.Coin]
		if !ok || mark <= 0 {
			mark = entry
		}

		positions = append(positions, Position{
			Coin:          raw.Coin,
			Side:          side,
			Size:          math.Abs(szi),
			EntryPrice:    entry,
			MarkPrice:     mark,
			UnrealizedPnl: parseNum(raw.UnrealizedPnl),
			PositionValue: parseNum(raw.PositionValue),
			Leverage:      leverage,
		})
	}

	return positions, nil
}

// fetchAllMids fetches the current mid price for every coin.
func (c *HyperliquidClient) fetchAllMids(ctx context.Context) (map[string]float64, error) {
	var raw map[string]string
	if err := c.doInfo(ctx, map[string]string{"type": "allMids"}, &raw); err != nil {
		return nil, fmt.Errorf("all mids: %w", err)
	}

	mids := make(map[string]float64, len(raw))
	for coin, px := range raw {
		if v := parseNum(px); v > 0 {
			mids[coin] = v
		}
	}
	return mids, nil
}

// doInfo posts a request body to the /info endpoint and decodes the response.
func (c *HyperliquidClient) doInfo(ctx context.Context, payload any, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/info", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, dest); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	return nil
}

// parseNum parses a string-encoded number, returning 0 on empty or garbage.
func parseNum(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
