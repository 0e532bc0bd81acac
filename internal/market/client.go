package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sabarim/cryptodash/internal/config"
)

// ErrNoData is returned when the API answers successfully with an empty list
var ErrNoData = errors.New("no market data returned")

// Fetcher returns the current top assets by market capitalization
type Fetcher interface {
	FetchTop(ctx context.Context, limit, page int, currency string) ([]Record, error)
}

// Client fetches market snapshots from the CoinGecko REST API
type Client struct {
	baseURL string
	apiKey  string
	http    *resty.Client
}

// NewClient creates a market data client from the API configuration
func NewClient(cfg *config.Config) *Client {
	client := resty.New()
	client.SetTimeout(time.Duration(cfg.API.TimeoutSeconds) * time.Second)
	client.SetHeader("Accept", "application/json")

	return &Client{
		baseURL: strings.TrimSuffix(cfg.API.BaseURL, "/"),
		apiKey:  cfg.API.APIKey,
		http:    client,
	}
}

// FetchTop downloads one page of assets ordered by market cap.
// A single attempt is made; every failure is returned to the caller, who is
// expected to log it and carry on without data.
func (c *Client) FetchTop(ctx context.Context, limit, page int, currency string) ([]Record, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"vs_currency": currency,
			"order":       "market_cap_desc",
			"per_page":    strconv.Itoa(limit),
			"page":        strconv.Itoa(page),
			"sparkline":   "false",
		})
	if c.apiKey != "" {
		req.SetHeader("x-cg-demo-api-key", c.apiKey)
	}

	url := c.baseURL + "/coins/markets"
	slog.Debug("Fetching market data", slog.String("url", url), slog.Int("limit", limit), slog.Int("page", page))

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market data: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("market data API returned status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	var records []Record
	if err := json.Unmarshal(resp.Body(), &records); err != nil {
		return nil, fmt.Errorf("failed to parse market data: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoData
	}

	slog.Info("Fetched market data", slog.Int("count", len(records)))
	return records, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
