package fetcher

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrRateLimited indicates the feed answered 429 and the cooldown was served.
	ErrRateLimited = errors.New("price feed rate limited")
	// ErrUnavailable covers transport failures and non-2xx responses.
	ErrUnavailable = errors.New("price feed unavailable")
	// ErrMalformedResponse indicates the body lacked bpi.USD.rate_float.
	ErrMalformedResponse = errors.New("malformed price feed response")
)

// PriceFetcher retrieves the current Bitcoin price in USD.
type PriceFetcher interface {
	FetchPrice(ctx context.Context) (decimal.Decimal, error)
}
