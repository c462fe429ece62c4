package calculate

import (
	"errors"
	"time"

	"github.com/Alias1177/TraderBot/models"
)

// ErrNoPriorDayData means the series does not span a completed previous
// trading day, so no reference close exists.
var ErrNoPriorDayData = errors.New("series does not cover a completed previous day")

// PrevDayClose returns the closing price of the last fully completed UTC day
// before the day of the most recent candle.
func PrevDayClose(series models.PriceSeries) (float64, error) {
	if len(series) == 0 {
		return 0, ErrNoPriorDayData
	}

	lastDay := dayOf(series.Last().Timestamp)
	for i := len(series) - 1; i >= 0; i-- {
		if dayOf(series[i].Timestamp).Before(lastDay) {
			return series[i].Close, nil
		}
	}
	return 0, ErrNoPriorDayData
}

func dayOf(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
