package calculate

import "fmt"

// RSI returns the Relative Strength Index at the latest point of the series,
// using Wilder smoothing for the running gain/loss averages.
//
// Conventions for degenerate series: avgLoss == 0 -> 100 (fully overbought),
// avgGain == 0 -> 0, and a completely flat series -> 50 (neutral).
func RSI(prices []float64, period int) (float64, error) {
	if period < 2 {
		return 0, fmt.Errorf("rsi period must be >= 2, got %d", period)
	}
	if len(prices) < period+1 {
		return 0, fmt.Errorf("%w: rsi needs %d closes, got %d", ErrNotEnoughData, period+1, len(prices))
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	// Wilder smoothing over the remainder of the series
	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgGain == 0 && avgLoss == 0 {
		return 50.0, nil
	}
	if avgLoss == 0 {
		return 100.0, nil
	}

	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs)), nil
}
