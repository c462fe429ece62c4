package calculate

import (
	"errors"
	"fmt"
)

// ErrNotEnoughData means the series is shorter than the indicator period allows.
var ErrNotEnoughData = errors.New("not enough data points")

// EMA returns the exponential moving average at the latest point of the series.
// The first `period` closes seed a simple moving average, each later close is
// blended in with multiplier k = 2/(period+1).
func EMA(prices []float64, period int) (float64, error) {
	if period < 2 {
		return 0, fmt.Errorf("ema period must be >= 2, got %d", period)
	}
	if len(prices) < period {
		return 0, fmt.Errorf("%w: ema needs %d closes, got %d", ErrNotEnoughData, period, len(prices))
	}

	// Calculate simple moving average for the initial value
	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	ema := sum / float64(period)

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
	}

	return ema, nil
}
