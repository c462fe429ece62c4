package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpClient "github.com/Alias1177/TraderBot/internal/platform/http"
	"github.com/Alias1177/TraderBot/models"
)

type fakePlacer struct {
	calls      int
	lastReq    models.OrderRequest
	lastCtxErr error
	ack        models.OrderAck
	raw        []byte
	placeErr   error
}

func (f *fakePlacer) PlaceOrder(ctx context.Context, req models.OrderRequest) (models.OrderAck, []byte, error) {
	f.calls++
	f.lastReq = req
	f.lastCtxErr = ctx.Err()
	return f.ack, f.raw, f.placeErr
}

func testConfig() *models.Config {
	return &models.Config{
		Symbol:      "BTCUSDT",
		TradeAmount: 0.001,
	}
}

func decisionWith(action models.Action) models.TradeDecision {
	return models.TradeDecision{
		Action: action,
		Snapshot: models.IndicatorSnapshot{
			CurrentPrice: 50000,
			EMA:          50500,
			RSI:          25,
			PDL:          50010,
		},
	}
}

func TestExecuteHoldIsNoAction(t *testing.T) {
	placer := &fakePlacer{}
	exec := New(testConfig(), placer)

	result, err := exec.Execute(context.Background(), decisionWith(models.ActionHold))

	require.NoError(t, err)
	assert.True(t, result.NoAction)
	assert.True(t, result.Success)
	assert.Equal(t, 0, placer.calls, "hold must not reach the exchange")
}

func TestExecuteBuySubmitsLimitOrder(t *testing.T) {
	placer := &fakePlacer{
		ack: models.OrderAck{OrderID: "42", Status: "FILLED"},
		raw: []byte(`{"code":0}`),
	}
	exec := New(testConfig(), placer)

	result, err := exec.Execute(context.Background(), decisionWith(models.ActionBuy))

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.NoAction)
	assert.Equal(t, "42", result.OrderID)
	assert.Equal(t, "FILLED", result.Status)

	assert.Equal(t, 1, placer.calls)
	assert.Equal(t, "BTCUSDT", placer.lastReq.Symbol)
	assert.Equal(t, models.ActionBuy, placer.lastReq.Side)
	assert.Equal(t, "LIMIT", placer.lastReq.Type)
	assert.Equal(t, 0.001, placer.lastReq.Quantity)
	assert.Equal(t, 50000.0, placer.lastReq.Price)
	assert.NotEmpty(t, placer.lastReq.ClientOrderID)
}

func TestExecuteTransientFailureIsNotFatal(t *testing.T) {
	placer := &fakePlacer{
		placeErr: &httpClient.RetryExhaustedError{Attempts: 3, Err: errors.New("connection refused")},
	}
	exec := New(testConfig(), placer)

	result, err := exec.Execute(context.Background(), decisionWith(models.ActionSell))

	// failed order, but the loop keeps running: next tick re-evaluates fresh state
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, 1, placer.calls, "no intra-tick retry of a stale decision")
}

func TestExecuteAuthFailureIsFatal(t *testing.T) {
	placer := &fakePlacer{
		placeErr: &httpClient.AuthError{StatusCode: 401, Body: "bad key"},
	}
	exec := New(testConfig(), placer)

	result, err := exec.Execute(context.Background(), decisionWith(models.ActionBuy))

	require.Error(t, err)
	assert.True(t, httpClient.IsAuthError(err))
	assert.False(t, result.Success)
}

// A stop signal arriving while an order is in flight must not cancel the
// submission, the order may already have reached the exchange.
func TestExecuteSurvivesShutdownSignal(t *testing.T) {
	placer := &fakePlacer{ack: models.OrderAck{OrderID: "7", Status: "NEW"}}
	exec := New(testConfig(), placer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // shutdown already requested

	result, err := exec.Execute(ctx, decisionWith(models.ActionBuy))

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, placer.calls)
	assert.NoError(t, placer.lastCtxErr, "submission context must not carry the cancellation")
}

func TestExecuteUniqueClientOrderIDs(t *testing.T) {
	placer := &fakePlacer{ack: models.OrderAck{OrderID: "1", Status: "NEW"}}
	exec := New(testConfig(), placer)

	first, err := exec.Execute(context.Background(), decisionWith(models.ActionBuy))
	require.NoError(t, err)
	second, err := exec.Execute(context.Background(), decisionWith(models.ActionBuy))
	require.NoError(t, err)

	assert.NotEqual(t, first.Request.ClientOrderID, second.Request.ClientOrderID)
}
