package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"EquityDesk/internal/model"
)

type fakePrices struct {
	calls  int
	failN  int
	empty  bool
	bars   []model.OHLCV
	params []string
}

func (f *fakePrices) Name() string { return "fake" }

func (f *fakePrices) FetchPrices(_ context.Context, ticker, period, interval string) ([]model.OHLCV, error) {
	f.calls++
	f.params = append(f.params, ticker+"|"+period+"|"+interval)
	if f.calls <= f.failN {
		return nil, errors.New("connection reset")
	}
	if f.empty {
		return nil, nil
	}
	return f.bars, nil
}

type fakeNews struct {
	items []model.NewsItem
	err   error
}

func (f *fakeNews) Name() string { return "fake" }

func (f *fakeNews) FetchNews(_ context.Context, _ string, _ int) ([]model.NewsItem, error) {
	return f.items, f.err
}

func testBars(n int) []model.OHLCV {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	for i := range bars {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Close: float64(100 + i)}
	}
	return bars
}

func TestGateway_FetchPrices_RetriesThenSucceeds(t *testing.T) {
	src := &fakePrices{failN: 2, bars: testBars(5)}
	g := NewGateway(src, nil, arbor.NewLogger())

	bars, err := g.FetchPrices(context.Background(), "AAPL", "", "")
	require.NoError(t, err)
	assert.Len(t, bars, 5)
	assert.Equal(t, 3, src.calls)
	for _, p := range src.params {
		assert.Equal(t, "AAPL|1y|1d", p)
	}
}

func TestGateway_FetchPrices_ExhaustedIsFatal(t *testing.T) {
	src := &fakePrices{failN: 10}
	g := NewGateway(src, nil, arbor.NewLogger())

	_, err := g.FetchPrices(context.Background(), "AAPL", "1y", "1d")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	assert.Contains(t, err.Error(), "price data unavailable")
	assert.Equal(t, DefaultPriceAttempts, src.calls)
}

func TestGateway_FetchPrices_EmptyPayloadCountsAsFailure(t *testing.T) {
	src := &fakePrices{empty: true}
	g := NewGateway(src, nil, arbor.NewLogger())

	_, err := g.FetchPrices(context.Background(), "AAPL", "1y", "1d")
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	assert.Equal(t, 3, src.calls)
}

func TestGateway_FetchPrices_BackoffHonoursCancel(t *testing.T) {
	src := &fakePrices{failN: 10}
	g := NewGateway(src, nil, arbor.NewLogger(), WithBackoff(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := g.FetchPrices(ctx, "AAPL", "1y", "1d")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, src.calls)
}

func TestGateway_FetchPrices_SortsAndDedupes(t *testing.T) {
	b := testBars(3)
	src := &fakePrices{bars: []model.OHLCV{b[2], b[0], b[1], b[0]}}
	g := NewGateway(src, nil, arbor.NewLogger())

	bars, err := g.FetchPrices(context.Background(), "AAPL", "1y", "1d")
	require.NoError(t, err)
	require.Len(t, bars, 3)
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i].Time.After(bars[i-1].Time))
	}
}

func TestGateway_FetchNews_FailSoft(t *testing.T) {
	tests := []struct {
		name string
		news NewsSource
		want int
	}{
		{"error", &fakeNews{err: errors.New("unreachable")}, 0},
		{"nil source", nil, 0},
		{"nil items", &fakeNews{}, 0},
		{"items", &fakeNews{items: []model.NewsItem{{Title: "a"}, {Title: "b"}}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGateway(&fakePrices{}, tt.news, arbor.NewLogger())
			items := g.FetchNews(context.Background(), "AAPL", 10)
			require.NotNil(t, items)
			assert.Len(t, items, tt.want)
		})
	}
}

func TestGateway_FetchNews_Limit(t *testing.T) {
	items := make([]model.NewsItem, 15)
	g := NewGateway(&fakePrices{}, &fakeNews{items: items}, arbor.NewLogger())
	assert.Len(t, g.FetchNews(context.Background(), "AAPL", 0), DefaultNewsLimit)
	assert.Len(t, g.FetchNews(context.Background(), "AAPL", 4), 4)
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		period  string
		want    time.Time
		wantErr bool
	}{
		{"5d", now.AddDate(0, 0, -5), false},
		{"1wk", now.AddDate(0, 0, -7), false},
		{"6mo", now.AddDate(0, -6, 0), false},
		{"1y", now.AddDate(-1, 0, 0), false},
		{"ytd", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"max", time.Time{}, false},
		{"y", time.Time{}, true},
		{"3x", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			got, err := periodStart(tt.period, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMockFetcher_Deterministic(t *testing.T) {
	m := &MockFetcher{Anchor: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)}
	a, err := m.FetchPrices(context.Background(), "MSFT", "1y", "1d")
	require.NoError(t, err)
	b, err := m.FetchPrices(context.Background(), "MSFT", "1y", "1d")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, len(a), 200)
	assert.Equal(t, m.Anchor, a[len(a)-1].Time)
}
