package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/TraderBot/internal/platform/http"
	"github.com/Alias1177/TraderBot/models"
)

// ErrInsufficientHistory means the exchange returned fewer candles than the
// indicators need. The tick is skipped, the loop retries next interval.
var ErrInsufficientHistory = errors.New("insufficient price history")

// ErrMalformedSeries means candles arrived with duplicate or out-of-order
// timestamps even after sorting. Treated as a data-integrity failure.
var ErrMalformedSeries = errors.New("malformed candle series")

// Client is the Bitflex REST API client
type Client struct {
	baseURL    string
	config     *models.Config
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// NewClient creates a new Bitflex API client on top of the signed HTTP client.
func NewClient(cfg *models.Config, hc *httpClient.Client) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		config:     cfg,
		httpClient: hc,
		logger:     log.With().Str("component", "exchange_client").Logger(),
	}
}

type klineResponse struct {
	Data [][]json.RawMessage `json:"data"`
}

type tickerResponse struct {
	Data struct {
		LastPrice float64 `json:"lastPrice,string"`
	} `json:"data"`
}

type orderResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		OrderID json.Number `json:"orderId"`
		Status  string      `json:"status"`
	} `json:"data"`
}

// GetPriceHistory fetches the candle window and normalizes it into an ordered
// PriceSeries with strictly increasing timestamps.
func (c *Client) GetPriceHistory(ctx context.Context, lookback int) (models.PriceSeries, error) {
	params := url.Values{}
	params.Set("symbol", c.config.Symbol)
	params.Set("interval", c.config.Interval)
	params.Set("limit", strconv.Itoa(lookback))

	c.logger.Debug().Str("symbol", c.config.Symbol).Int("lookback", lookback).Msg("Fetching candles")

	body, err := c.httpClient.Get(ctx, c.baseURL+"/api/v1/market/klines", params)
	if err != nil {
		return nil, fmt.Errorf("fetching klines: %w", err)
	}

	var data klineResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing klines JSON")
		return nil, fmt.Errorf("parsing klines JSON: %w", err)
	}

	series := make(models.PriceSeries, 0, len(data.Data))
	for _, entry := range data.Data {
		candle, err := parseKline(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSeries, err)
		}
		series = append(series, candle)
	}

	// Exchange may return newest-first, sort oldest first for calculations
	sort.Slice(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})

	for i := 1; i < len(series); i++ {
		if !series[i].Timestamp.After(series[i-1].Timestamp) {
			return nil, fmt.Errorf("%w: duplicate or out-of-order timestamp %s",
				ErrMalformedSeries, series[i].Timestamp)
		}
	}

	if required := c.config.MinHistory(); len(series) < required {
		return nil, fmt.Errorf("%w: got %d candles, need %d", ErrInsufficientHistory, len(series), required)
	}

	c.logger.Debug().Int("count", len(series)).Msg("Fetched candles")
	return series, nil
}

// GetMarketPrice fetches the current last-trade price for the configured symbol.
func (c *Client) GetMarketPrice(ctx context.Context) (float64, error) {
	params := url.Values{}
	params.Set("symbol", c.config.Symbol)

	body, err := c.httpClient.Get(ctx, c.baseURL+"/api/v1/market/ticker", params)
	if err != nil {
		return 0, fmt.Errorf("fetching ticker: %w", err)
	}

	var data tickerResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing ticker JSON")
		return 0, fmt.Errorf("parsing ticker JSON: %w", err)
	}
	if data.Data.LastPrice <= 0 {
		return 0, fmt.Errorf("ticker returned no price: %s", string(body))
	}

	return data.Data.LastPrice, nil
}

// PlaceOrder submits a signed order and returns the exchange acknowledgement
// together with the raw response for the audit record.
func (c *Client) PlaceOrder(ctx context.Context, req models.OrderRequest) (models.OrderAck, []byte, error) {
	params := map[string]string{
		"symbol":           req.Symbol,
		"side":             string(req.Side),
		"type":             req.Type,
		"quantity":         strconv.FormatFloat(req.Quantity, 'f', -1, 64),
		"price":            strconv.FormatFloat(req.Price, 'f', -1, 64),
		"newClientOrderId": req.ClientOrderID,
	}

	c.logger.Info().
		Str("symbol", req.Symbol).
		Str("side", string(req.Side)).
		Float64("quantity", req.Quantity).
		Float64("price", req.Price).
		Msg("Submitting order")

	body, err := c.httpClient.SignedPost(ctx, c.baseURL+"/api/v1/order", params)
	if err != nil {
		return models.OrderAck{}, body, err
	}

	var data orderResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return models.OrderAck{}, body, fmt.Errorf("parsing order response: %w", err)
	}
	if data.Code != 0 {
		return models.OrderAck{}, body, fmt.Errorf("order rejected by exchange: code=%d msg=%s", data.Code, data.Msg)
	}

	return models.OrderAck{
		OrderID: data.Data.OrderID.String(),
		Status:  data.Data.Status,
	}, body, nil
}

// parseKline decodes one exchange kline entry:
// [openTime, open, high, low, close, volume, ...], prices quoted as strings.
func parseKline(entry []json.RawMessage) (models.Candle, error) {
	if len(entry) < 6 {
		return models.Candle{}, fmt.Errorf("kline entry has %d fields, need 6", len(entry))
	}

	openTime, err := parseCellInt(entry[0])
	if err != nil {
		return models.Candle{}, fmt.Errorf("open time: %w", err)
	}

	values := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		v, err := parseCellFloat(entry[i])
		if err != nil {
			return models.Candle{}, fmt.Errorf("field %d: %w", i, err)
		}
		values[i-1] = v
	}

	return models.Candle{
		Timestamp: time.UnixMilli(openTime).UTC(),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}

func parseCellFloat(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}

func parseCellInt(raw json.RawMessage) (int64, error) {
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}
