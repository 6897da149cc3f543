// Package quotes fetches latest prices from Alpha Vantage and caches them in Redis.
package quotes

import (
	"context"       // Request scoped cancellation
	"encoding/json" // Response decoding
	"errors"        // Sentinel errors
	"fmt"           // Error wrapping
	"net/http"      // HTTP client
	"net/url"       // Query building
	"strings"       // Symbol normalization
	"time"          // Timeouts and cache lifetime

	"finance_portfolio/internal/utils" // Cache keys

	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Prices
	"github.com/sirupsen/logrus"    // Structured logging
)

// DefaultBaseURL is the Alpha Vantage query endpoint
const DefaultBaseURL = "https://www.alphavantage.co/query"

var (
	// ErrDisabled is returned when no API key is configured
	ErrDisabled = errors.New("price lookups are disabled")
	// ErrSymbolNotFound is returned when the provider knows no price for the symbol
	ErrSymbolNotFound = errors.New("symbol not found")
)

// globalQuoteResponse is the subset of a GLOBAL_QUOTE reply we read
type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
	Note         string `json:"Note"`          // Sent instead of data when throttled
	Information  string `json:"Information"`   // Sent for plan limits and bad keys
	ErrorMessage string `json:"Error Message"` // Sent for malformed calls
}

// Client looks up latest prices
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	rdb     *redis.Client // Optional, nil disables caching
	ttl     time.Duration
}

// Option customizes a Client
type Option func(*Client)

// WithBaseURL points the client at another endpoint
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a quote client. An empty apiKey disables lookups.
func NewClient(apiKey string, rdb *redis.Client, ttl time.Duration, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		rdb:     rdb,
		ttl:     ttl,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// LatestPrice returns the latest price of symbol, from cache when fresh
func (c *Client) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if !c.Enabled() {
		return decimal.Zero, ErrDisabled
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	key := utils.QuoteCacheKey(symbol)

	// Check Redis cache first
	if c.rdb != nil {
		cached, err := c.rdb.Get(ctx, key).Result()
		if err == nil {
			if price, perr := decimal.NewFromString(cached); perr == nil {
				return price, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			logrus.WithFields(logrus.Fields{"symbol": symbol, "error": err.Error()}).Warn("Quote cache read failed")
		}
	}

	price, err := c.fetch(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}

	// Cache the price in Redis
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, price.String(), c.ttl).Err(); err != nil {
			logrus.WithFields(logrus.Fields{"symbol": symbol, "error": err.Error()}).Warn("Quote cache write failed")
		}
	}
	return price, nil
}

func (c *Client) fetch(ctx context.Context, symbol string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build quote request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("fetch quote for %s: unexpected status %d", symbol, resp.StatusCode)
	}
	var result globalQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return decimal.Zero, fmt.Errorf("parse quote for %s: %w", symbol, err)
	}
	if msg := firstNonEmpty(result.Note, result.Information, result.ErrorMessage); msg != "" {
		return decimal.Zero, fmt.Errorf("quote provider: %s", msg)
	}
	if result.GlobalQuote.Price == "" {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	price, err := decimal.NewFromString(result.GlobalQuote.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q for %s: %w", result.GlobalQuote.Price, symbol, err)
	}

	logrus.WithFields(logrus.Fields{
		"symbol": symbol,         // Requested symbol
		"price":  price.String(), // Fetched price
	}).Info("Quote fetched")
	return price, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
