// Package calculator computes technical indicators from OHLCV bars.
//
// Every function here is a pure function of its input: identical bars
// always produce identical values, with no clock or randomness involved.
package calculator

import (
	"EquityDesk/internal/model"
)

// Indicator lookbacks.
const (
	SMAFastPeriod   = 50
	SMASlowPeriod   = 200
	EMAPeriod       = 20
	RSIPeriod       = 14
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
	BollingerPeriod = 20
	BollingerK      = 2.0

	rsiOversold   = 30.0
	rsiOverbought = 70.0
)

// Compute returns the latest-bar indicator bundle. Indicators whose lookback
// exceeds the series length are left nil.
func Compute(bars []model.OHLCV) model.Indicators {
	closes := extractCloses(bars)
	var ind model.Indicators

	if v, err := CalculateRSI(bars, RSIPeriod); err == nil {
		ind.RSI14 = &v
	}
	if m, err := CalculateMACD(closes, MACDFast, MACDSlow, MACDSignal); err == nil {
		last := len(closes) - 1
		ind.MACD = &model.MACD{
			MACD:      m.MACD[last],
			Signal:    m.Signal[last],
			Histogram: m.Histogram[last],
		}
	}
	if v, err := CalculateSMA(closes, SMAFastPeriod); err == nil {
		ind.SMA50 = &v
	}
	if v, err := CalculateSMA(closes, SMASlowPeriod); err == nil {
		ind.SMA200 = &v
	}
	if v, err := CalculateEMA(closes, EMAPeriod); err == nil {
		ind.EMA20 = &v
	}
	if b, err := CalculateBollinger(closes, BollingerPeriod, BollingerK); err == nil {
		last := len(b.Middle) - 1
		ind.Bollinger = &model.Bollinger{
			Upper:     b.Upper[last],
			Middle:    b.Middle[last],
			Lower:     b.Lower[last],
			Bandwidth: Bandwidth(b.Upper[last], b.Middle[last], b.Lower[last]),
		}
	}

	ind.Signals = deriveSignals(&ind, closes)
	return ind
}

func deriveSignals(ind *model.Indicators, closes []float64) model.Signals {
	var s model.Signals
	if ind.SMA50 != nil && ind.SMA200 != nil {
		if *ind.SMA50 > *ind.SMA200 {
			s.Trend = model.TrendUp
		} else {
			s.Trend = model.TrendDown
		}
	}
	if ind.RSI14 != nil {
		switch {
		case *ind.RSI14 < rsiOversold:
			s.RSIState = model.RSIOversold
		case *ind.RSI14 > rsiOverbought:
			s.RSIState = model.RSIOverbought
		default:
			s.RSIState = model.RSINeutral
		}
	}
	if ind.MACD != nil {
		if ind.MACD.MACD > ind.MACD.Signal {
			s.MACDCross = model.CrossBullish
		} else {
			s.MACDCross = model.CrossBearish
		}
	}
	s.BullishCrossover = crossedAbove(closes, SMAFastPeriod, SMASlowPeriod)
	return s
}

// crossedAbove reports whether the fast SMA moved from at-or-below the slow
// SMA on the previous bar to above it on the latest bar.
func crossedAbove(closes []float64, fast, slow int) bool {
	n := len(closes)
	if n < slow+1 {
		return false
	}
	prev := closes[:n-1]
	fastPrev, _ := CalculateSMA(prev, fast)
	slowPrev, _ := CalculateSMA(prev, slow)
	fastNow, _ := CalculateSMA(closes, fast)
	slowNow, _ := CalculateSMA(closes, slow)
	return fastPrev <= slowPrev && fastNow > slowNow
}

// Series returns per-bar indicator values for charting.
func Series(bars []model.OHLCV) model.IndicatorSeries {
	closes := extractCloses(bars)
	var s model.IndicatorSeries

	s.SMA50 = align(bars, SMASeries(closes, SMAFastPeriod))
	s.SMA200 = align(bars, SMASeries(closes, SMASlowPeriod))
	if len(closes) >= EMAPeriod {
		s.EMA20 = align(bars, EMASeries(closes, EMAPeriod))
	}
	if len(closes) >= RSIPeriod+1 {
		s.RSI = align(bars, RSISeries(closes, RSIPeriod))
	}
	if m, err := CalculateMACD(closes, MACDFast, MACDSlow, MACDSignal); err == nil {
		s.MACD = align(bars, m.MACD)
		s.Signal = align(bars, m.Signal)
		s.Histogram = align(bars, m.Histogram)
	}
	if b, err := CalculateBollinger(closes, BollingerPeriod, BollingerK); err == nil {
		s.BBUpper = align(bars, b.Upper)
		s.BBMiddle = align(bars, b.Middle)
		s.BBLower = align(bars, b.Lower)
	}
	return s
}

// align pairs values with the timestamps of the last len(values) bars.
func align(bars []model.OHLCV, values []float64) []model.Point {
	if len(values) == 0 {
		return []model.Point{}
	}
	offset := len(bars) - len(values)
	out := make([]model.Point, len(values))
	for i, v := range values {
		out[i] = model.Point{Time: bars[offset+i].Time, Value: v}
	}
	return out
}
