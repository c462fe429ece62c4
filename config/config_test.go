package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("API_KEY", "key")
	t.Setenv("API_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.bitflex.com", cfg.BaseURL)
	assert.Equal(t, "BTCUSDT", cfg.Symbol)
	assert.Equal(t, "1m", cfg.Interval)
	assert.Equal(t, 100, cfg.CandleCount)
	assert.Equal(t, 30.0, cfg.BuyThresholdRSI)
	assert.Equal(t, 70.0, cfg.SellThresholdRSI)
	assert.Equal(t, 0.001, cfg.TradeAmount)
	assert.Equal(t, 14, cfg.EMAPeriod)
	assert.Equal(t, 14, cfg.RSIPeriod)
	assert.Equal(t, 60, cfg.CheckInterval)
	assert.Equal(t, 0.005, cfg.PDLProximityPct)
	assert.Equal(t, 15, cfg.MinHistory())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SYMBOL", "ETHUSDT")
	t.Setenv("EMA_PERIOD", "21")
	t.Setenv("TRADE_AMOUNT", "0.05")
	t.Setenv("CHECK_INTERVAL", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ETHUSDT", cfg.Symbol)
	assert.Equal(t, 21, cfg.EMAPeriod)
	assert.Equal(t, 0.05, cfg.TradeAmount)
	assert.Equal(t, 30, cfg.CheckInterval)
	assert.Equal(t, 22, cfg.MinHistory())
}

func TestLoadFailsFast(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing credentials",
			env:  map[string]string{"API_KEY": ""},
		},
		{
			name: "thresholds out of order",
			env:  map[string]string{"BUY_THRESHOLD_RSI": "80", "SELL_THRESHOLD_RSI": "20"},
		},
		{
			name: "equal thresholds",
			env:  map[string]string{"BUY_THRESHOLD_RSI": "50", "SELL_THRESHOLD_RSI": "50"},
		},
		{
			name: "sell threshold above scale",
			env:  map[string]string{"SELL_THRESHOLD_RSI": "101"},
		},
		{
			name: "period too small",
			env:  map[string]string{"RSI_PERIOD": "1"},
		},
		{
			name: "non-positive trade amount",
			env:  map[string]string{"TRADE_AMOUNT": "0"},
		},
		{
			name: "lookback below required history",
			env:  map[string]string{"CANDLE_COUNT": "10"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
