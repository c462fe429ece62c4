package models

import (
	"fmt"
	"time"
)

// Config holds all bot settings, loaded from environment variables at startup.
type Config struct {
	APIKey           string  `env:"API_KEY" envDefault:"-"`
	APISecret        string  `env:"API_SECRET" envDefault:"-"`
	BaseURL          string  `env:"BASE_URL" envDefault:"https://api.bitflex.com"`
	Symbol           string  `env:"SYMBOL" envDefault:"BTCUSDT"`
	Interval         string  `env:"INTERVAL" envDefault:"1m"`
	CandleCount      int     `env:"CANDLE_COUNT" envDefault:"100"`
	BuyThresholdRSI  float64 `env:"BUY_THRESHOLD_RSI" envDefault:"30"`
	SellThresholdRSI float64 `env:"SELL_THRESHOLD_RSI" envDefault:"70"`
	TradeAmount      float64 `env:"TRADE_AMOUNT" envDefault:"0.001"`
	EMAPeriod        int     `env:"EMA_PERIOD" envDefault:"14"`
	RSIPeriod        int     `env:"RSI_PERIOD" envDefault:"14"`
	CheckInterval    int     `env:"CHECK_INTERVAL" envDefault:"60"` // seconds
	PDLProximityPct  float64 `env:"PDL_PROXIMITY_PCT" envDefault:"0.005"`
	RequestTimeout   int     `env:"REQUEST_TIMEOUT" envDefault:"10"` // seconds
	MaxRetries       int     `env:"MAX_RETRIES" envDefault:"3"`
	LogLevel         string  `env:"LOG_LEVEL" envDefault:"info"`
}

// Validate fails fast on settings the decision engine cannot run with.
func (c *Config) Validate() error {
	if c.APIKey == "" || c.APISecret == "" {
		return fmt.Errorf("config: API_KEY and API_SECRET are required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("config: BASE_URL is required")
	}
	if c.Symbol == "" {
		return fmt.Errorf("config: SYMBOL is required")
	}
	if c.BuyThresholdRSI < 0 || c.SellThresholdRSI > 100 || c.BuyThresholdRSI >= c.SellThresholdRSI {
		return fmt.Errorf("config: RSI thresholds must satisfy 0 <= buy < sell <= 100, got buy=%.2f sell=%.2f",
			c.BuyThresholdRSI, c.SellThresholdRSI)
	}
	if c.EMAPeriod < 2 || c.RSIPeriod < 2 {
		return fmt.Errorf("config: indicator periods must be >= 2, got ema=%d rsi=%d", c.EMAPeriod, c.RSIPeriod)
	}
	if c.TradeAmount <= 0 {
		return fmt.Errorf("config: TRADE_AMOUNT must be positive, got %f", c.TradeAmount)
	}
	if c.PDLProximityPct <= 0 {
		return fmt.Errorf("config: PDL_PROXIMITY_PCT must be positive, got %f", c.PDLProximityPct)
	}
	if min := c.MinHistory(); c.CandleCount < min {
		return fmt.Errorf("config: CANDLE_COUNT %d is below required history %d", c.CandleCount, min)
	}
	return nil
}

// MinHistory is the minimum series length indicators are valid on.
func (c *Config) MinHistory() int {
	period := c.EMAPeriod
	if c.RSIPeriod > period {
		period = c.RSIPeriod
	}
	return period + 1
}

// Candle represents a single price candle
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume,omitempty"`
}

// PriceSeries is a chronological candle sequence with strictly increasing timestamps.
type PriceSeries []Candle

// Closes extracts closing prices in series order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, c := range s {
		closes[i] = c.Close
	}
	return closes
}

// Last returns the most recent candle.
func (s PriceSeries) Last() Candle {
	return s[len(s)-1]
}

// IndicatorSnapshot holds all indicators computed from one fetched series.
// Produced fresh each tick, never cached across ticks.
type IndicatorSnapshot struct {
	EMA          float64 `json:"ema"`
	RSI          float64 `json:"rsi"`
	PDL          float64 `json:"pdl"`
	CurrentPrice float64 `json:"current_price"`
}

// Action is the discrete outcome of one strategy evaluation.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// TradeDecision pairs an action with the snapshot that produced it.
type TradeDecision struct {
	Action    Action            `json:"action"`
	Snapshot  IndicatorSnapshot `json:"snapshot"`
	Timestamp time.Time         `json:"timestamp"`
}

// Actionable reports whether the decision requires an order.
func (d TradeDecision) Actionable() bool {
	return d.Action == ActionBuy || d.Action == ActionSell
}

// OrderRequest describes a single order submission. Timestamp and signature
// are attached by the signed HTTP client at send time.
type OrderRequest struct {
	Symbol        string  `json:"symbol"`
	Side          Action  `json:"side"`
	Type          string  `json:"type"`
	Quantity      float64 `json:"quantity"`
	Price         float64 `json:"price"`
	ClientOrderID string  `json:"client_order_id"`
}

// OrderAck is the exchange's acknowledgement of a placed order.
type OrderAck struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// OrderResult is the terminal record of one execution attempt.
type OrderResult struct {
	Success     bool         `json:"success"`
	NoAction    bool         `json:"no_action"`
	OrderID     string       `json:"order_id,omitempty"`
	Status      string       `json:"status,omitempty"`
	Request     OrderRequest `json:"request"`
	RawResponse string       `json:"raw_response,omitempty"`
	Error       string       `json:"error,omitempty"`
	ExecutedAt  time.Time    `json:"executed_at"`
}

// Tick outcomes emitted to the audit sink.
const (
	TickOutcomeSuccess = "SUCCESS"
	TickOutcomeSkip    = "SKIP"
	TickOutcomeHalt    = "HALT"
)

// TickRecord is the per-iteration audit entry, written before any state transition.
type TickRecord struct {
	Tick     int64             `json:"tick"`
	Time     time.Time         `json:"time"`
	Outcome  string            `json:"outcome"`
	Reason   string            `json:"reason,omitempty"`
	Decision Action            `json:"decision,omitempty"`
	Snapshot IndicatorSnapshot `json:"snapshot"`
}
