package calculator

import (
	"errors"

	"EquityDesk/internal/model"
)

// ErrInsufficientData is returned when a series is shorter than an indicator's lookback.
var ErrInsufficientData = errors.New("not enough data")

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, ErrInsufficientData
	}
	return mean(prices[len(prices)-period:]), nil
}

// SMASeries returns one average per full window, aligned to prices[period-1:].
// Each window is summed directly so the last value equals CalculateSMA.
func SMASeries(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}
	out := make([]float64, 0, len(prices)-period+1)
	for end := period; end <= len(prices); end++ {
		out = append(out, mean(prices[end-period:end]))
	}
	return out
}

// EMASeries returns the exponential moving average for every price, using
// alpha = 2/(span+1) seeded with the first price.
func EMASeries(prices []float64, span int) []float64 {
	if span <= 0 || len(prices) == 0 {
		return nil
	}
	return smooth(prices, 2.0/float64(span+1))
}

// CalculateEMA returns the latest EMA value. At least span prices are required.
func CalculateEMA(prices []float64, span int) (float64, error) {
	if span <= 0 {
		return 0, errors.New("span must be positive")
	}
	if len(prices) < span {
		return 0, ErrInsufficientData
	}
	s := EMASeries(prices, span)
	return s[len(s)-1], nil
}

// smooth applies y[i] = (1-alpha)*y[i-1] + alpha*x[i] with y[0] = x[0].
func smooth(xs []float64, alpha float64) []float64 {
	out := make([]float64, len(xs))
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = (1-alpha)*out[i-1] + alpha*xs[i]
	}
	return out
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
