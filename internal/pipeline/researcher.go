package pipeline

import (
	"context"

	"EquityDesk/internal/calculator"
	"EquityDesk/internal/model"
)

// MarketData is the gateway the Researcher reads from. FetchNews never fails.
type MarketData interface {
	FetchPrices(ctx context.Context, ticker, period, interval string) ([]model.OHLCV, error)
	FetchNews(ctx context.Context, ticker string, limit int) []model.NewsItem
}

// Researcher gathers prices and news for the ticker.
type Researcher struct {
	data      MarketData
	period    string
	interval  string
	newsLimit int
}

// NewResearcher creates a Researcher for the given history window.
func NewResearcher(data MarketData, period, interval string, newsLimit int) *Researcher {
	return &Researcher{data: data, period: period, interval: interval, newsLimit: newsLimit}
}

// Run fetches news concurrently with prices. Only a price failure is returned;
// news degrades to an empty list.
func (r *Researcher) Run(ctx context.Context, s State) (State, error) {
	newsCh := make(chan []model.NewsItem, 1)
	go func() {
		news := []model.NewsItem{}
		defer func() {
			recover()
			newsCh <- news
		}()
		news = r.data.FetchNews(ctx, s.Ticker, r.newsLimit)
	}()

	bars, err := r.data.FetchPrices(ctx, s.Ticker, r.period, r.interval)
	news := <-newsCh
	if err != nil {
		return s, err
	}
	if news == nil {
		news = []model.NewsItem{}
	}
	s.OHLCV = bars
	s.News = news
	return s, nil
}

// Analyze computes the indicator bundle. It cannot fail; short histories
// yield a sparser bundle.
func Analyze(s State) State {
	s.Indicators = calculator.Compute(s.OHLCV)
	return s
}
