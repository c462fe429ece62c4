package calculate

import (
	"fmt"

	"github.com/Alias1177/TraderBot/models"
)

// Snapshot computes EMA, RSI and previous-day close from one fetched series,
// so all indicators within a tick are internally consistent. Pure function,
// calling it twice on the same series yields identical results.
func Snapshot(series models.PriceSeries, currentPrice float64, emaPeriod, rsiPeriod int) (models.IndicatorSnapshot, error) {
	closes := series.Closes()

	ema, err := EMA(closes, emaPeriod)
	if err != nil {
		return models.IndicatorSnapshot{}, fmt.Errorf("ema: %w", err)
	}
	rsi, err := RSI(closes, rsiPeriod)
	if err != nil {
		return models.IndicatorSnapshot{}, fmt.Errorf("rsi: %w", err)
	}
	pdl, err := PrevDayClose(series)
	if err != nil {
		return models.IndicatorSnapshot{}, fmt.Errorf("pdl: %w", err)
	}

	return models.IndicatorSnapshot{
		EMA:          ema,
		RSI:          rsi,
		PDL:          pdl,
		CurrentPrice: currentPrice,
	}, nil
}
