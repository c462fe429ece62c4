package strategy

import (
	"math"
	"time"

	"github.com/Alias1177/TraderBot/models"
)

// Evaluate maps an indicator snapshot to a trade decision:
//
//	BUY  when price is below EMA, RSI is under the buy threshold and price sits
//	     within the proximity band of the previous day's close (near support),
//	SELL when price is above EMA and RSI is over the sell threshold,
//	HOLD otherwise.
//
// With valid threshold ordering (buy < sell) the BUY and SELL conditions are
// mutually exclusive, so evaluation is total and unambiguous.
func Evaluate(snap models.IndicatorSnapshot, cfg *models.Config) models.TradeDecision {
	decision := models.TradeDecision{
		Action:    models.ActionHold,
		Snapshot:  snap,
		Timestamp: time.Now().UTC(),
	}

	switch {
	case snap.CurrentPrice < snap.EMA &&
		snap.RSI < cfg.BuyThresholdRSI &&
		nearSupport(snap.CurrentPrice, snap.PDL, cfg.PDLProximityPct):
		decision.Action = models.ActionBuy
	case snap.CurrentPrice > snap.EMA && snap.RSI > cfg.SellThresholdRSI:
		decision.Action = models.ActionSell
	}

	return decision
}

// nearSupport reports whether price lies within the relative band around the
// previous day's close.
func nearSupport(price, pdl, band float64) bool {
	if pdl <= 0 {
		return false
	}
	return math.Abs(price-pdl)/pdl <= band
}
