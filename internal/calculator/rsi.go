package calculator

import (
	"errors"

	"EquityDesk/internal/model"
)

// RSISeries computes Wilder's RSI for closes[1:]. Average gain and loss are
// smoothed recursively with alpha = 1/period, seeded with the first change.
func RSISeries(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < 2 {
		return nil
	}
	alpha := 1.0 / float64(period)
	out := make([]float64, 0, len(closes)-1)

	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		if i == 1 {
			avgGain, avgLoss = gain, loss
		} else {
			avgGain = (1-alpha)*avgGain + alpha*gain
			avgLoss = (1-alpha)*avgLoss + alpha*loss
		}
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	rsi := 100.0 - 100.0/(1.0+rs)
	switch {
	case rsi < 0:
		return 0
	case rsi > 100:
		return 100
	}
	return rsi
}

// CalculateRSI returns the latest RSI over the given period.
// Requires at least period+1 bars.
func CalculateRSI(bars []model.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return 0, ErrInsufficientData
	}
	s := RSISeries(extractCloses(bars), period)
	return s[len(s)-1], nil
}
