package calculator

// MACDSeries holds the full-length momentum series.
type MACDSeries struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// CalculateMACD computes fast EMA minus slow EMA, its signal EMA and the
// histogram for every price. At least slow prices are required.
func CalculateMACD(prices []float64, fast, slow, signal int) (*MACDSeries, error) {
	if len(prices) < slow {
		return nil, ErrInsufficientData
	}
	fastEMA := EMASeries(prices, fast)
	slowEMA := EMASeries(prices, slow)

	line := make([]float64, len(prices))
	for i := range prices {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig := EMASeries(line, signal)
	hist := make([]float64, len(prices))
	for i := range line {
		hist[i] = line[i] - sig[i]
	}
	return &MACDSeries{MACD: line, Signal: sig, Histogram: hist}, nil
}
