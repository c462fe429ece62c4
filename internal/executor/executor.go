package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/TraderBot/internal/platform/http"
	"github.com/Alias1177/TraderBot/models"
)

// OrderPlacer is the slice of the exchange client the executor needs.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req models.OrderRequest) (models.OrderAck, []byte, error)
}

// Executor translates trade decisions into signed limit orders.
type Executor struct {
	exchange OrderPlacer
	config   *models.Config
	logger   zerolog.Logger
}

// New creates an order executor.
func New(cfg *models.Config, exchange OrderPlacer) *Executor {
	return &Executor{
		exchange: exchange,
		config:   cfg,
		logger:   log.With().Str("component", "order_executor").Logger(),
	}
}

// Execute submits one order for an actionable decision and returns the
// terminal result record. HOLD yields a no-action sentinel. A failed
// submission is never retried within the tick, the next tick re-evaluates
// fresh market state instead. Authentication failures are returned as an
// error so the trading loop can halt.
func (e *Executor) Execute(ctx context.Context, decision models.TradeDecision) (models.OrderResult, error) {
	if !decision.Actionable() {
		return models.OrderResult{
			Success:    true,
			NoAction:   true,
			ExecutedAt: time.Now().UTC(),
		}, nil
	}

	req := models.OrderRequest{
		Symbol:        e.config.Symbol,
		Side:          decision.Action,
		Type:          "LIMIT",
		Quantity:      e.config.TradeAmount,
		Price:         decision.Snapshot.CurrentPrice,
		ClientOrderID: uuid.New().String(),
	}

	// a shutdown signal must not abort an in-flight submission, that would
	// leave the order state ambiguous; the client's request timeout still
	// bounds the call
	ack, raw, err := e.exchange.PlaceOrder(context.WithoutCancel(ctx), req)
	if err != nil {
		result := models.OrderResult{
			Success:     false,
			Request:     req,
			RawResponse: string(raw),
			Error:       err.Error(),
			ExecutedAt:  time.Now().UTC(),
		}

		if httpClient.IsAuthError(err) {
			e.logger.Error().Err(err).Msg("Order rejected: authentication failure")
			return result, fmt.Errorf("placing %s order: %w", decision.Action, err)
		}

		e.logger.Warn().Err(err).Str("side", string(decision.Action)).Msg("Order submission failed")
		return result, nil
	}

	e.logger.Info().
		Str("order_id", ack.OrderID).
		Str("status", ack.Status).
		Str("side", string(decision.Action)).
		Msg("Order executed")

	return models.OrderResult{
		Success:     true,
		OrderID:     ack.OrderID,
		Status:      ack.Status,
		Request:     req,
		RawResponse: string(raw),
		ExecutedAt:  time.Now().UTC(),
	}, nil
}
