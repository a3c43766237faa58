package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"btc-price-monitor/internal/fetcher"
	"btc-price-monitor/internal/service"
)

// SimulateAlert runs the evaluation and alert path against a fixed price instead of the feed.
func (a *App) SimulateAlert(ctx context.Context, price decimal.Decimal) error {
	feed := &staticPriceFetcher{price: price}
	svc := service.New(a.serviceOptions("simulated"), nil, feed, a.newNotifier(a.Logger), nil, a.Logger)

	obs := svc.Check(ctx, time.Now().UTC())
	if !obs.Alerted {
		a.Logger.Info().Str("price", price.StringFixed(2)).Msg("simulated price did not cross a threshold")
	}
	return nil
}

type staticPriceFetcher struct {
	price decimal.Decimal
}

func (s *staticPriceFetcher) FetchPrice(ctx context.Context) (decimal.Decimal, error) {
	return s.price, nil
}

var _ fetcher.PriceFetcher = (*staticPriceFetcher)(nil)
