package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SerhatHacioglu/trumptakip/config"

	"go.uber.org/zap"
)

type CoinGeckoClient struct {
	logger     *zap.Logger
	httpClient *http.Client
	baseURL    string
}

func NewCoinGeckoClient(logger *zap.Logger, cfg *config.Config) *CoinGeckoClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CoinGeckoClient{
		logger: logger,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: cfg.CoinGecko.APIURL,
	}
}

// SimplePrices fetches current USD prices for the given CoinGecko coin ids
// (e.g. "bitcoin", "ethereum"). Coins the API omits are absent from the map.
func (c *CoinGeckoClient) SimplePrices(ctx context.Context, ids []string) (map[string]float64, error) {
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid baseURL: %w", err)
	}
	u.Path = "/api/v3/simple/price"

	q := u.Query()
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
	}

	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	prices := make(map[string]float64, len(raw))
	for id, currencies := range raw {
		if usd, ok := currencies["usd"]; ok && usd > 0 {
			prices[id] = usd
		}
	}

	return prices, nil
}
