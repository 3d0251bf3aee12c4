package model

import "time"

// Categorical signal values.
const (
	TrendUp   = "Uptrend"
	TrendDown = "Downtrend"

	RSIOversold   = "Oversold"
	RSIOverbought = "Overbought"
	RSINeutral    = "Neutral"

	CrossBullish = "Bullish"
	CrossBearish = "Bearish"
)

// Indicators is the bundle of latest-bar technical indicators. A nil field
// means the series was too short for that indicator.
type Indicators struct {
	RSI14     *float64   `json:"rsi_14,omitempty"`
	MACD      *MACD      `json:"macd,omitempty"`
	SMA50     *float64   `json:"sma_50,omitempty"`
	SMA200    *float64   `json:"sma_200,omitempty"`
	EMA20     *float64   `json:"ema_20,omitempty"`
	Bollinger *Bollinger `json:"bollinger_bands,omitempty"`
	Signals   Signals    `json:"signals"`
}

// MACD holds the 12/26/9 momentum pair and its histogram.
type MACD struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// Bollinger holds the 20-period, 2-sigma volatility bands.
type Bollinger struct {
	Upper     float64 `json:"upper"`
	Middle    float64 `json:"middle"`
	Lower     float64 `json:"lower"`
	Bandwidth float64 `json:"bandwidth"`
}

// Signals are rule-based readings derived from the indicators.
type Signals struct {
	Trend            string `json:"trend,omitempty"`
	RSIState         string `json:"rsi_state,omitempty"`
	MACDCross        string `json:"macd_cross,omitempty"`
	BullishCrossover bool   `json:"bullish_crossover"`
}

// Complete reports whether every indicator could be computed.
func (ind *Indicators) Complete() bool {
	return ind.RSI14 != nil && ind.MACD != nil && ind.SMA50 != nil &&
		ind.SMA200 != nil && ind.EMA20 != nil && ind.Bollinger != nil
}

// Point is one value of an indicator series at a bar time.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// IndicatorSeries holds per-bar indicator values for charting. Each series
// is aligned to the suffix of the bars it could be computed for.
type IndicatorSeries struct {
	SMA50     []Point
	SMA200    []Point
	EMA20     []Point
	RSI       []Point
	MACD      []Point
	Signal    []Point
	Histogram []Point
	BBUpper   []Point
	BBMiddle  []Point
	BBLower   []Point
}
