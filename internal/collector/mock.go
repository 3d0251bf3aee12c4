package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"EquityDesk/internal/model"
)

// MockFetcher returns deterministic synthetic bars for offline runs and tests.
// Bars for the same ticker, period and anchor are always identical.
type MockFetcher struct {
	Anchor time.Time // last bar date; zero means today (UTC)
	Bars   []model.OHLCV
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchPrices(_ context.Context, ticker, period, interval string) ([]model.OHLCV, error) {
	if m.Bars != nil {
		return m.Bars, nil
	}
	anchor := m.Anchor
	if anchor.IsZero() {
		anchor = time.Now().UTC().Truncate(24 * time.Hour)
	}
	step, err := intervalStep(interval)
	if err != nil {
		return nil, err
	}
	from, err := periodStart(period, anchor)
	if err != nil {
		return nil, err
	}
	count := 500
	if !from.IsZero() {
		count = int(anchor.Sub(from) / step)
	}
	if count < 1 {
		count = 1
	}
	return generateMockBars(basePrice(ticker), count, anchor, step), nil
}

func intervalStep(interval string) (time.Duration, error) {
	switch strings.ToLower(interval) {
	case "", "1d":
		return 24 * time.Hour, nil
	case "1wk", "1w":
		return 7 * 24 * time.Hour, nil
	case "1mo", "1m":
		return 30 * 24 * time.Hour, nil
	case "1h", "60m":
		return time.Hour, nil
	}
	return 0, fmt.Errorf("mock: unsupported interval %q", interval)
}

func basePrice(ticker string) float64 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToUpper(ticker)))
	return 50 + float64(h.Sum32()%450)
}

func generateMockBars(base float64, count int, end time.Time, step time.Duration) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		frac := float64(i) / float64(count)
		p := base * (1 + 0.05*math.Sin(12*frac) + 0.02*frac)
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000 + float64(i*100),
		}
	}
	return bars
}

// MockNews returns canned headlines for a ticker.
type MockNews struct {
	Items []model.NewsItem
}

func (m *MockNews) Name() string { return "mock" }

func (m *MockNews) FetchNews(_ context.Context, ticker string, limit int) ([]model.NewsItem, error) {
	if m.Items != nil {
		return m.Items, nil
	}
	items := []model.NewsItem{
		{Title: ticker + " shares steady ahead of earnings", URL: "https://example.com/" + strings.ToLower(ticker) + "/earnings", Excerpt: "Analysts expect results in line with guidance."},
		{Title: ticker + " announces buyback programme", URL: "https://example.com/" + strings.ToLower(ticker) + "/buyback", Excerpt: "The board approved a share repurchase."},
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
