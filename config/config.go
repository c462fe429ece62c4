package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Alias1177/TraderBot/models"
)

// Load builds the bot configuration from environment variables, applying
// defaults for everything except credentials, then validates it.
func Load() (*models.Config, error) {
	cfg := &models.Config{
		APIKey:           os.Getenv("API_KEY"),
		APISecret:        os.Getenv("API_SECRET"),
		BaseURL:          getString("BASE_URL", "https://api.bitflex.com"),
		Symbol:           getString("SYMBOL", "BTCUSDT"),
		Interval:         getString("INTERVAL", "1m"),
		CandleCount:      getInt("CANDLE_COUNT", 100),
		BuyThresholdRSI:  getFloat("BUY_THRESHOLD_RSI", 30),
		SellThresholdRSI: getFloat("SELL_THRESHOLD_RSI", 70),
		TradeAmount:      getFloat("TRADE_AMOUNT", 0.001),
		EMAPeriod:        getInt("EMA_PERIOD", 14),
		RSIPeriod:        getInt("RSI_PERIOD", 14),
		CheckInterval:    getInt("CHECK_INTERVAL", 60),
		PDLProximityPct:  getFloat("PDL_PROXIMITY_PCT", 0.005),
		RequestTimeout:   getInt("REQUEST_TIMEOUT", 10),
		MaxRetries:       getInt("MAX_RETRIES", 3),
		LogLevel:         getString("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
