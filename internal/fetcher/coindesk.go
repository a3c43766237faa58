package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"btc-price-monitor/internal/scheduler"
)

const (
	defaultEndpoint  = "https://api.coindesk.com/v1/bpi/currentprice.json"
	defaultUserAgent = "btcmonitor/1.0"
	maxBodyBytes     = 1 << 20
)

// CoinDeskOptions parameterise the CoinDesk fetcher.
type CoinDeskOptions struct {
	URL               string
	Timeout           time.Duration
	RateLimitCooldown time.Duration
	UserAgent         string
}

// CoinDesk fetches the USD Bitcoin price index from the CoinDesk BPI endpoint.
type CoinDesk struct {
	opts   CoinDeskOptions
	logger zerolog.Logger
	client *http.Client
	url    string
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewCoinDesk constructs a CoinDesk fetcher.
func NewCoinDesk(opts CoinDeskOptions, logger zerolog.Logger) *CoinDesk {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	url := strings.TrimSpace(opts.URL)
	if url == "" {
		url = defaultEndpoint
	}

	return &CoinDesk{
		opts:   opts,
		logger: logger.With().Str("component", "price_fetcher").Logger(),
		client: &http.Client{Timeout: timeout},
		url:    url,
		sleep:  scheduler.Sleep,
	}
}

// Endpoint returns the URL polled by FetchPrice.
func (c *CoinDesk) Endpoint() string {
	return c.url
}

// FetchPrice issues one GET against the feed and extracts bpi.USD.rate_float.
// A 429 response blocks for the configured cooldown before returning ErrRateLimited.
func (c *CoinDesk) FetchPrice(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", c.url).Msg("error building bitcoin price request")
		return decimal.Decimal{}, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", defaultUserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", c.url).Msg("error fetching bitcoin price")
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Warn().
			Str("endpoint", c.url).
			Dur("cooldown", c.opts.RateLimitCooldown).
			Msgf("rate limit exceeded; waiting for %s", c.opts.RateLimitCooldown)
		if err := c.sleep(ctx, c.opts.RateLimitCooldown); err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: cooldown interrupted: %v", ErrRateLimited, err)
		}
		return decimal.Decimal{}, ErrRateLimited
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", c.url).Msg("error reading bitcoin price response")
		return decimal.Decimal{}, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := parseHTTPError(resp.StatusCode, payload)
		c.logger.Error().Err(err).Str("endpoint", c.url).Int("status", resp.StatusCode).Msg("error fetching bitcoin price")
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	price, err := extractUSDRate(payload)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", c.url).Msg(`unexpected response structure: missing "rate_float" in "bpi"`)
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return price, nil
}

type currentPriceResponse struct {
	BPI *struct {
		USD *struct {
			RateFloat *json.Number `json:"rate_float"`
		} `json:"USD"`
	} `json:"bpi"`
}

func extractUSDRate(payload []byte) (decimal.Decimal, error) {
	var body currentPriceResponse
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode body: %w", err)
	}

	if body.BPI == nil || body.BPI.USD == nil || body.BPI.USD.RateFloat == nil {
		return decimal.Decimal{}, fmt.Errorf("field bpi.USD.rate_float not present")
	}

	price, err := decimal.NewFromString(body.BPI.USD.RateFloat.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse rate_float: %w", err)
	}
	return price, nil
}

func parseHTTPError(status int, payload []byte) error {
	text := strings.TrimSpace(string(payload))
	if len(text) > 200 {
		text = text[:200]
	}
	if text != "" {
		return fmt.Errorf("coindesk api error (%d): %s", status, text)
	}
	return fmt.Errorf("coindesk api error (%d)", status)
}

var _ PriceFetcher = (*CoinDesk)(nil)
