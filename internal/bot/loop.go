package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/TraderBot/internal/audit"
	"github.com/Alias1177/TraderBot/internal/calculate"
	"github.com/Alias1177/TraderBot/internal/exchange"
	"github.com/Alias1177/TraderBot/internal/notify"
	httpClient "github.com/Alias1177/TraderBot/internal/platform/http"
	"github.com/Alias1177/TraderBot/internal/strategy"
	"github.com/Alias1177/TraderBot/models"
)

// State is the trading loop's position in its cycle.
type State int

const (
	StateFetching State = iota
	StateEvaluating
	StateExecuting
	StateWaiting
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "FETCHING"
	case StateEvaluating:
		return "EVALUATING"
	case StateExecuting:
		return "EXECUTING"
	case StateWaiting:
		return "WAITING"
	case StateHalted:
		return "HALTED"
	}
	return "UNKNOWN"
}

// maxConsecutiveSkips halts the loop when data-quality skips keep repeating,
// the exchange is clearly not serving usable history.
const maxConsecutiveSkips = 3

// MarketData is the slice of the exchange client the loop reads from.
type MarketData interface {
	GetPriceHistory(ctx context.Context, lookback int) (models.PriceSeries, error)
	GetMarketPrice(ctx context.Context) (float64, error)
}

// OrderExecutor turns decisions into order results.
type OrderExecutor interface {
	Execute(ctx context.Context, decision models.TradeDecision) (models.OrderResult, error)
}

// Bot owns all loop state: current machine state, tick counter and the last
// decision. One Bot runs one symbol with one outstanding request at a time.
type Bot struct {
	config   *models.Config
	market   MarketData
	executor OrderExecutor
	sink     audit.Sink
	notifier notify.Notifier
	logger   zerolog.Logger

	// sleep is injectable so tests drive the loop with a fake clock
	sleep func(ctx context.Context, d time.Duration) error

	state        State
	tick         int64
	lastDecision models.Action
	skipStreak   int
}

// New wires the trading loop.
func New(cfg *models.Config, market MarketData, exec OrderExecutor, sink audit.Sink, notifier notify.Notifier) *Bot {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Bot{
		config:   cfg,
		market:   market,
		executor: exec,
		sink:     sink,
		notifier: notifier,
		logger:   log.With().Str("component", "trading_loop").Logger(),
		sleep:    sleepContext,
		state:    StateWaiting,
	}
}

// State returns the loop's current state.
func (b *Bot) State() State {
	return b.state
}

// Ticks returns how many iterations have run.
func (b *Bot) Ticks() int64 {
	return b.tick
}

// LastDecision returns the action of the most recent evaluated tick.
func (b *Bot) LastDecision() models.Action {
	return b.lastDecision
}

// Run drives the fetch/evaluate/execute/wait cycle until the context is
// cancelled (clean stop, nil) or a fatal error halts the loop (non-nil).
// Cancellation is honored only between ticks, never mid-order-submission.
func (b *Bot) Run(ctx context.Context) error {
	interval := time.Duration(b.config.CheckInterval) * time.Second
	b.logger.Info().
		Str("symbol", b.config.Symbol).
		Dur("interval", interval).
		Msg("Trading loop started")

	for {
		if ctx.Err() != nil {
			b.logger.Info().Int64("ticks", b.tick).Msg("Stop signal received, shutting down")
			return nil
		}

		if err := b.runTick(ctx); err != nil {
			b.setState(StateHalted)
			b.logger.Error().Err(err).Int64("tick", b.tick).Msg("Trading loop halted")
			return err
		}

		b.setState(StateWaiting)
		if err := b.sleep(ctx, interval); err != nil {
			b.logger.Info().Int64("ticks", b.tick).Msg("Stop signal received while waiting, shutting down")
			return nil
		}
	}
}

// runTick executes one full cycle. A non-nil return is fatal for the loop.
func (b *Bot) runTick(ctx context.Context) error {
	b.tick++
	b.setState(StateFetching)

	series, err := b.market.GetPriceHistory(ctx, b.config.CandleCount)
	if err != nil {
		return b.tickFailure(fmt.Errorf("fetching history: %w", err))
	}
	price, err := b.market.GetMarketPrice(ctx)
	if err != nil {
		return b.tickFailure(fmt.Errorf("fetching market price: %w", err))
	}

	b.setState(StateEvaluating)
	snapshot, err := calculate.Snapshot(series, price, b.config.EMAPeriod, b.config.RSIPeriod)
	if err != nil {
		return b.tickFailure(fmt.Errorf("computing indicators: %w", err))
	}
	b.skipStreak = 0

	decision := strategy.Evaluate(snapshot, b.config)
	b.lastDecision = decision.Action

	b.logger.Info().
		Int64("tick", b.tick).
		Float64("price", snapshot.CurrentPrice).
		Float64("ema", snapshot.EMA).
		Float64("rsi", snapshot.RSI).
		Float64("pdl", snapshot.PDL).
		Str("decision", string(decision.Action)).
		Msg("Tick evaluated")

	outcome := models.TickOutcomeSuccess
	reason := ""

	if decision.Actionable() {
		b.setState(StateExecuting)
		result, execErr := b.executor.Execute(ctx, decision)
		if emitErr := b.sink.EmitOrder(result); emitErr != nil {
			b.logger.Warn().Err(emitErr).Msg("Failed to emit order record")
		}
		b.notifier.NotifyOrder(result)

		if execErr != nil {
			// fatal for the whole process, record the halt before transitioning
			b.emitTick(models.TickOutcomeHalt, execErr.Error(), decision.Action, snapshot)
			return execErr
		}
	}

	b.emitTick(outcome, reason, decision.Action, snapshot)
	return nil
}

// tickFailure classifies a tick-level failure: authentication halts the loop,
// repeated data-quality failures halt it, everything else is absorbed by
// skipping the tick and retrying on the next interval.
func (b *Bot) tickFailure(err error) error {
	if httpClient.IsAuthError(err) {
		b.emitTick(models.TickOutcomeHalt, err.Error(), "", models.IndicatorSnapshot{})
		return err
	}

	if isDataQuality(err) {
		b.skipStreak++
		if b.skipStreak >= maxConsecutiveSkips {
			haltErr := fmt.Errorf("%d consecutive ticks without usable history: %w", b.skipStreak, err)
			b.emitTick(models.TickOutcomeHalt, haltErr.Error(), "", models.IndicatorSnapshot{})
			return haltErr
		}
	}

	b.logger.Warn().Err(err).Int64("tick", b.tick).Msg("Tick skipped")
	b.emitTick(models.TickOutcomeSkip, err.Error(), "", models.IndicatorSnapshot{})
	return nil
}

// isDataQuality marks failures that count toward the halt streak: the
// exchange not serving enough usable candles. A window that merely lacks a
// completed previous day is normal for most of the day and only skips.
func isDataQuality(err error) bool {
	return errors.Is(err, exchange.ErrInsufficientHistory) ||
		errors.Is(err, exchange.ErrMalformedSeries) ||
		errors.Is(err, calculate.ErrNotEnoughData)
}

func (b *Bot) emitTick(outcome, reason string, decision models.Action, snapshot models.IndicatorSnapshot) {
	rec := models.TickRecord{
		Tick:     b.tick,
		Time:     time.Now().UTC(),
		Outcome:  outcome,
		Reason:   reason,
		Decision: decision,
		Snapshot: snapshot,
	}
	if err := b.sink.EmitTick(rec); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to emit tick record")
	}
}

func (b *Bot) setState(next State) {
	if b.state != next {
		b.logger.Debug().Stringer("from", b.state).Stringer("to", next).Msg("State transition")
	}
	b.state = next
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
