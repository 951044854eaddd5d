package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"predictionScope/internal/model"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3/onchain"
	DefaultTimeout = 10 * time.Second
	proHost        = "pro-api.coingecko.com"
)

// Comparators deciding how a price settles a round.
const (
	ComparatorAbove uint8 = 1
	ComparatorBelow uint8 = 2
)

var microUnits = decimal.New(1, 6)

// Client reads on-chain token prices from a CoinGecko-compatible API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL sets the API base URL.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a price client authenticated with apiKey.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type priceResponse struct {
	Data struct {
		Attributes struct {
			TokenPrices map[string]json.RawMessage `json:"token_prices"`
		} `json:"attributes"`
	} `json:"data"`
}

// TokenPrice returns the USD price of token on network. The price must be positive.
func (c *Client) TokenPrice(ctx context.Context, network, token string) (decimal.Decimal, error) {
	switch {
	case c.apiKey == "":
		return decimal.Zero, fmt.Errorf("price api key: %w", model.ErrConfigurationMissing)
	case network == "":
		return decimal.Zero, fmt.Errorf("price network: %w", model.ErrConfigurationMissing)
	case token == "":
		return decimal.Zero, fmt.Errorf("price token: %w", model.ErrConfigurationMissing)
	}

	endpoint := fmt.Sprintf("%s/simple/networks/%s/token_price/%s", c.baseURL, url.PathEscape(network), url.PathEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(c.keyHeader(), c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price request: %w: %w", model.ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Zero, fmt.Errorf("price request: %w: status %d: %s", model.ErrFetchFailure, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return decimal.Zero, fmt.Errorf("decode price response: %w", err)
	}

	raw, ok := lookupFold(parsed.Data.Attributes.TokenPrices, token)
	if !ok {
		return decimal.Zero, fmt.Errorf("price for %s not found", token)
	}
	price, err := parsePrice(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price for %s: %w", token, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid price for %s: %s", token, price)
	}
	return price, nil
}

func (c *Client) keyHeader() string {
	if strings.Contains(c.baseURL, proHost) {
		return "x-cg-pro-api-key"
	}
	return "x-cg-demo-api-key"
}

// ToE6 converts a price into integer millionths, truncating.
func ToE6(price decimal.Decimal) int64 {
	return price.Mul(microUnits).Floor().IntPart()
}

// OutcomeSide settles a round from a price. With ComparatorAbove YES wins when the price is at
// or above the target; with ComparatorBelow YES wins at or below it. Unknown comparators
// settle nothing.
func OutcomeSide(price decimal.Decimal, targetE6 int64, comparator uint8) uint8 {
	priceE6 := ToE6(price)
	switch comparator {
	case ComparatorAbove:
		if priceE6 >= targetE6 {
			return model.SideYes
		}
		return model.SideNo
	case ComparatorBelow:
		if priceE6 <= targetE6 {
			return model.SideYes
		}
		return model.SideNo
	default:
		return model.SideNone
	}
}

func lookupFold(prices map[string]json.RawMessage, token string) (json.RawMessage, bool) {
	if raw, ok := prices[token]; ok {
		return raw, true
	}
	for key, raw := range prices {
		if strings.EqualFold(key, token) {
			return raw, true
		}
	}
	return nil, false
}

func parsePrice(raw json.RawMessage) (decimal.Decimal, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return decimal.NewFromString(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(n.String())
}
