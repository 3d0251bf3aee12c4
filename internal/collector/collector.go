// Package collector fetches market prices and news behind a retry and
// fail-soft policy.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"EquityDesk/internal/model"
)

// ErrPriceUnavailable is returned once every price fetch attempt has failed.
var ErrPriceUnavailable = errors.New("price data unavailable after retries")

// Defaults for the gateway.
const (
	DefaultPriceAttempts = 3
	DefaultNewsLimit     = 10
	DefaultPeriod        = "1y"
	DefaultInterval      = "1d"
)

// Gateway wraps a PriceSource and a NewsSource with their failure policies:
// price fetches are retried and fatal on exhaustion, news fetches never fail.
type Gateway struct {
	prices   PriceSource
	news     NewsSource
	logger   arbor.ILogger
	attempts int
	backoff  time.Duration
}

// GatewayOption configures the Gateway.
type GatewayOption func(*Gateway)

// WithAttempts sets the number of price fetch attempts.
func WithAttempts(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.attempts = n
		}
	}
}

// WithBackoff sets the base wait between price attempts. Attempt i waits i*d.
func WithBackoff(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.backoff = d
	}
}

// NewGateway creates a Gateway. news may be nil, in which case news is always empty.
func NewGateway(prices PriceSource, news NewsSource, logger arbor.ILogger, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		prices:   prices,
		news:     news,
		logger:   logger,
		attempts: DefaultPriceAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FetchPrices returns bars sorted by time with duplicate timestamps removed.
// An error, a provider error status and an empty payload all count as a
// failed attempt. After the last attempt ErrPriceUnavailable is returned.
func (g *Gateway) FetchPrices(ctx context.Context, ticker, period, interval string) ([]model.OHLCV, error) {
	if period == "" {
		period = DefaultPeriod
	}
	if interval == "" {
		interval = DefaultInterval
	}

	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		bars, err := g.prices.FetchPrices(ctx, ticker, period, interval)
		if err == nil && len(bars) == 0 {
			err = errors.New("empty payload")
		}
		if err == nil {
			return normalizeBars(bars), nil
		}
		lastErr = err

		g.logger.Warn().
			Str("ticker", ticker).
			Str("source", g.prices.Name()).
			Int("attempt", attempt).
			Int("max_attempts", g.attempts).
			Err(err).
			Msg("price fetch failed")

		if attempt == g.attempts {
			break
		}
		if wait := g.backoff * time.Duration(attempt); wait > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch prices for %s: %w", ticker, ctx.Err())
			case <-time.After(wait):
			}
		} else if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch prices for %s: %w", ticker, ctx.Err())
		}
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrPriceUnavailable, ticker, lastErr)
}

// FetchNews returns up to limit headlines. Any failure yields an empty slice.
func (g *Gateway) FetchNews(ctx context.Context, ticker string, limit int) []model.NewsItem {
	if limit <= 0 {
		limit = DefaultNewsLimit
	}
	if g.news == nil {
		return []model.NewsItem{}
	}
	items, err := g.news.FetchNews(ctx, ticker, limit)
	if err != nil {
		g.logger.Warn().
			Str("ticker", ticker).
			Str("source", g.news.Name()).
			Err(err).
			Msg("news fetch failed, continuing without news")
		return []model.NewsItem{}
	}
	if items == nil {
		return []model.NewsItem{}
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func normalizeBars(bars []model.OHLCV) []model.OHLCV {
	out := make([]model.OHLCV, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	uniq := out[:0]
	for i, b := range out {
		if i > 0 && b.Time.Equal(uniq[len(uniq)-1].Time) {
			uniq[len(uniq)-1] = b
			continue
		}
		uniq = append(uniq, b)
	}
	return uniq
}
