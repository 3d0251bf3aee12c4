package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// NewsItem is one headline relevant to a ticker. A nil SentimentScore reads as neutral.
type NewsItem struct {
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Excerpt        string     `json:"excerpt"`
	Published      *time.Time `json:"published,omitempty"`
	SentimentScore *float64   `json:"sentiment_score,omitempty"`
	Relevance      *float64   `json:"score,omitempty"`
}
