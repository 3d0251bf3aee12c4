package calculator

import "math"

// BandSeries holds Bollinger bands aligned to prices[period-1:].
type BandSeries struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// CalculateBollinger computes middle = SMA(period) and bands at k population
// standard deviations.
func CalculateBollinger(prices []float64, period int, k float64) (*BandSeries, error) {
	if period <= 0 || len(prices) < period {
		return nil, ErrInsufficientData
	}
	n := len(prices) - period + 1
	bs := &BandSeries{
		Upper:  make([]float64, 0, n),
		Middle: make([]float64, 0, n),
		Lower:  make([]float64, 0, n),
	}
	for end := period; end <= len(prices); end++ {
		window := prices[end-period : end]
		m := mean(window)
		sq := 0.0
		for _, p := range window {
			sq += (p - m) * (p - m)
		}
		sd := math.Sqrt(sq / float64(period))
		bs.Upper = append(bs.Upper, m+k*sd)
		bs.Middle = append(bs.Middle, m)
		bs.Lower = append(bs.Lower, m-k*sd)
	}
	return bs, nil
}

// Bandwidth returns (upper-lower)/middle, or 0 when middle is 0.
func Bandwidth(upper, middle, lower float64) float64 {
	if middle == 0 {
		return 0
	}
	return (upper - lower) / middle
}
