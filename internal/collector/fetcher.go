package collector

import (
	"context"

	"EquityDesk/internal/model"
)

// PriceSource fetches OHLCV bars for a ticker.
// period and interval use Yahoo-style codes such as "1y" and "1d".
type PriceSource interface {
	FetchPrices(ctx context.Context, ticker, period, interval string) ([]model.OHLCV, error)
	Name() string
}

// NewsSource fetches recent headlines for a ticker. Implementations may
// return errors; the Gateway turns them into an empty result.
type NewsSource interface {
	FetchNews(ctx context.Context, ticker string, limit int) ([]model.NewsItem, error)
	Name() string
}
