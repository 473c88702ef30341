// Package trading runs the agent's dispatch loop. One goroutine consumes
// the venue event stream, feeds market data through the indicator engine
// and the signal evaluator, and walks every symbol through the trade
// lifecycle state machine IDLE, SUBMITTING, OPEN, SETTLED and back.
package trading

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-pilot/internal/config"
	"github.com/rxtech-lab/argo-pilot/internal/indicator"
	"github.com/rxtech-lab/argo-pilot/internal/logger"
	"github.com/rxtech-lab/argo-pilot/internal/stats"
	"github.com/rxtech-lab/argo-pilot/internal/types"
	"github.com/rxtech-lab/argo-pilot/internal/venue"
	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

// closeTimeout bounds the venue teardown after the dispatch loop exits.
const closeTimeout = 5 * time.Second

// SignalEvaluator turns the indicator snapshots of one symbol into a single
// directional signal. *strategy.Evaluator is the production implementation.
type SignalEvaluator interface {
	Evaluate(symbol string, snapshots []types.IndicatorSnapshot) types.Signal
}

// Orchestrator drives the trading pipeline against one venue. All pipeline
// work happens on the goroutine running Run; only the running switch and
// the stats tracker are shared with other goroutines.
type Orchestrator struct {
	// Collaborators.
	cfg       *config.Config
	venue     venue.Venue
	engine    *indicator.Engine
	evaluator SignalEvaluator
	tracker   *stats.Tracker
	logger    *logger.Logger

	// Control surface shared with the reporting API.
	ctrlMu  sync.Mutex
	running bool

	// Dispatch-loop state. Owned by the goroutine running Run.
	connected bool
	states    map[string]*types.SymbolState
	runCtx    context.Context
	callbacks Callbacks

	now func() time.Time
}

// NewOrchestrator creates an orchestrator wiring the venue, the indicator
// engine, the evaluator and the stats tracker together. Trading starts
// paused until Run flips the running switch.
func NewOrchestrator(
	cfg *config.Config,
	v venue.Venue,
	engine *indicator.Engine,
	evaluator SignalEvaluator,
	tracker *stats.Tracker,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{ //nolint:exhaustruct // mutexes and loop state zero-initialized
		cfg:       cfg,
		venue:     v,
		engine:    engine,
		evaluator: evaluator,
		tracker:   tracker,
		logger:    log,
		states:    make(map[string]*types.SymbolState),
		now:       time.Now,
	}
}

// Running reports whether new trade submissions are allowed.
func (o *Orchestrator) Running() bool {
	o.ctrlMu.Lock()
	defer o.ctrlMu.Unlock()

	return o.running
}

// Resume enables trade submissions. It fails if trading is already running.
func (o *Orchestrator) Resume() error {
	o.ctrlMu.Lock()
	defer o.ctrlMu.Unlock()

	if o.running {
		return errors.New(errors.ErrCodeAlreadyRunning, "trading is already running")
	}

	o.running = true
	o.logger.Info("trading resumed")

	return nil
}

// Pause stops new trade submissions. Open contracts still settle and the
// market data pipeline keeps running.
func (o *Orchestrator) Pause() error {
	o.ctrlMu.Lock()
	defer o.ctrlMu.Unlock()

	if !o.running {
		return errors.New(errors.ErrCodeNotRunning, "trading is not running")
	}

	o.running = false
	o.logger.Info("trading paused")

	return nil
}

func (o *Orchestrator) setRunning(running bool) {
	o.ctrlMu.Lock()
	defer o.ctrlMu.Unlock()

	o.running = running
}

// Run connects the venue, subscribes every configured feed and consumes the
// event stream until the context is cancelled or a fatal error arrives. On
// cancellation it drains open contracts before closing the transport.
func (o *Orchestrator) Run(ctx context.Context, callbacks Callbacks) error {
	var runErr error

	defer func() {
		if callbacks.OnStop != nil {
			(*callbacks.OnStop)(runErr)
		}
	}()

	if err := o.preRunCheck(); err != nil {
		runErr = err

		return runErr
	}

	o.callbacks = callbacks
	o.runCtx = ctx

	if err := o.venue.Connect(ctx); err != nil {
		runErr = err

		return runErr
	}

	defer o.closeVenue()

	if err := o.subscribeAll(ctx); err != nil {
		runErr = err

		return runErr
	}

	o.connected = true
	o.setRunning(true)

	defer o.setRunning(false)

	o.logger.Info("orchestrator running",
		zap.Strings("symbols", o.cfg.Symbols),
		zap.Int("timeframes", len(o.cfg.Timeframes)),
		zap.String("venue", string(o.cfg.Venue)),
	)

	for {
		select {
		case <-ctx.Done():
			o.drain()

			runErr = ctx.Err()

			return runErr
		case evt, ok := <-o.venue.Events():
			if !ok {
				runErr = errors.New(errors.ErrCodeConnectionClosed, "venue event stream closed")

				return runErr
			}

			if err := o.handleEvent(evt); err != nil {
				runErr = err

				return runErr
			}
		}
	}
}

// preRunCheck validates that all collaborators are wired before running.
func (o *Orchestrator) preRunCheck() error {
	if o.venue == nil {
		return errors.New(errors.ErrCodeMissingParameter, "no venue configured")
	}

	if o.engine == nil {
		return errors.New(errors.ErrCodeMissingParameter, "no indicator engine configured")
	}

	if o.evaluator == nil {
		return errors.New(errors.ErrCodeMissingParameter, "no signal evaluator configured")
	}

	if o.tracker == nil {
		return errors.New(errors.ErrCodeMissingParameter, "no stats tracker configured")
	}

	if len(o.cfg.Symbols) == 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "no symbols configured")
	}

	if len(o.cfg.Timeframes) == 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "no timeframes configured")
	}

	return nil
}

// subscribeAll registers every configured (symbol, timeframe) pair with the
// indicator engine and the venue. Every symbol starts IDLE.
func (o *Orchestrator) subscribeAll(ctx context.Context) error {
	for _, symbol := range o.cfg.Symbols {
		o.state(symbol)

		for _, tf := range o.cfg.Timeframes {
			o.engine.Watch(symbol, tf)

			if err := o.venue.Subscribe(ctx, symbol, tf); err != nil {
				return errors.Wrapf(errors.ErrCodeSubscribeFailed, err, "subscribe %s %s", symbol, tf)
			}
		}
	}

	return nil
}

// drain waits for open contracts to settle before the transport goes away,
// bounded by the configured drain timeout. Submissions stop first.
func (o *Orchestrator) drain() {
	o.setRunning(false)

	open := o.openPositions()
	if open == 0 {
		return
	}

	o.logger.Info("draining open trades",
		zap.Int("open", open),
		zap.Duration("timeout", o.cfg.Timeouts.Drain()),
	)

	deadline := time.NewTimer(o.cfg.Timeouts.Drain())
	defer deadline.Stop()

	for {
		select {
		case <-deadline.C:
			o.logger.Warn("drain timed out with trades still open",
				zap.Int("open", o.openPositions()),
			)

			return
		case evt, ok := <-o.venue.Events():
			if !ok {
				return
			}

			if err := o.handleEvent(evt); err != nil {
				return
			}

			if o.openPositions() == 0 {
				o.logger.Info("all open trades settled")

				return
			}
		}
	}
}

func (o *Orchestrator) closeVenue() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := o.venue.Close(ctx); err != nil {
		o.logger.Warn("venue close failed", zap.Error(err))
	}
}

// handleEvent dispatches one venue event. A non-nil return stops the run;
// everything recoverable is handled in place.
func (o *Orchestrator) handleEvent(evt venue.Event) error {
	switch e := evt.(type) {
	case venue.HistoryEvent:
		o.handleHistory(e)
	case venue.TickEvent:
		o.handleTick(e.Tick)
	case venue.CandleEvent:
		o.handleCandle(e.Candle)
	case venue.OrderAckEvent:
		o.handleAck(e.Ack)
	case venue.TradeResultEvent:
		o.handleResult(e)
	case venue.ConnectionLostEvent:
		if errors.IsFatal(e.Err) {
			o.logger.Error("connection lost with fatal error", zap.Error(e.Err))

			return e.Err
		}

		o.connected = false

		o.logger.Warn("connection lost, venue is reconnecting", zap.Error(e.Err))
	case venue.ConnectionRestoredEvent:
		o.connected = true

		o.logger.Info("connection restored", zap.Int("attempts", e.Attempts))
	}

	return nil
}

// handleHistory warms the indicator engine with seed candles. Seeding never
// evaluates signals; only live closes do.
func (o *Orchestrator) handleHistory(evt venue.HistoryEvent) {
	applied, err := o.engine.Seed(evt.Symbol, evt.Timeframe, evt.Candles)
	if err != nil {
		o.logger.Warn("history seeding failed",
			zap.String("symbol", evt.Symbol),
			zap.String("timeframe", string(evt.Timeframe)),
			zap.Error(err),
		)

		return
	}

	o.logger.Info("history seeded",
		zap.String("symbol", evt.Symbol),
		zap.String("timeframe", string(evt.Timeframe)),
		zap.Int("candles", applied),
	)

	if o.callbacks.OnSeedDone != nil {
		(*o.callbacks.OnSeedDone)(evt.Symbol, evt.Timeframe, applied)
	}
}

func (o *Orchestrator) handleTick(tick types.Tick) {
	closed, err := o.engine.ApplyTick(tick)
	if err != nil {
		o.logger.Debug("tick dropped",
			zap.String("symbol", tick.Symbol),
			zap.Error(err),
		)

		return
	}

	if len(closed) > 0 {
		o.evaluate(tick.Symbol)
	}
}

func (o *Orchestrator) handleCandle(candle types.Candle) {
	_, advanced, err := o.engine.ApplyCandle(candle)
	if err != nil {
		o.logger.Warn("candle dropped",
			zap.String("symbol", candle.Symbol),
			zap.String("timeframe", string(candle.Timeframe)),
			zap.Error(err),
		)

		return
	}

	if advanced {
		o.evaluate(candle.Symbol)
	}
}

// evaluate runs the evaluator over the symbol's snapshots and submits a
// trade when the signal is actionable and every guardrail passes.
func (o *Orchestrator) evaluate(symbol string) {
	signal := o.evaluator.Evaluate(symbol, o.engine.Snapshots(symbol))

	if o.callbacks.OnSignal != nil {
		(*o.callbacks.OnSignal)(signal)
	}

	if !signal.Actionable() {
		o.logger.Debug("no actionable signal",
			zap.String("symbol", symbol),
			zap.String("reason", signal.Reason),
		)

		return
	}

	o.logger.Info("signal",
		zap.String("symbol", symbol),
		zap.String("direction", string(signal.Direction)),
		zap.Float64("strength", signal.Strength),
		zap.String("reason", signal.Reason),
	)

	o.maybeTrade(signal)
}

// maybeTrade checks the submission guardrails for one actionable signal.
// Guardrail refusals are ordinary conditions and only log at debug.
func (o *Orchestrator) maybeTrade(signal types.Signal) {
	state := o.state(signal.Symbol)

	if !o.Running() {
		o.logger.Debug("trading is paused", zap.String("symbol", signal.Symbol))

		return
	}

	if !o.connected {
		o.logger.Debug("venue is reconnecting, holding submissions",
			zap.String("symbol", signal.Symbol),
		)

		return
	}

	if state.HasOpenPosition() {
		o.logger.Debug("position already open",
			zap.String("symbol", signal.Symbol),
			zap.String("status", string(state.Status)),
		)

		return
	}

	now := o.now()

	if !o.cfg.ActiveHours.Contains(now) {
		o.logger.Debug("outside active hours",
			zap.String("symbol", signal.Symbol),
			zap.String("window", fmt.Sprintf("%s-%s", o.cfg.ActiveHours.Start, o.cfg.ActiveHours.End)),
		)

		return
	}

	minGap := time.Duration(o.cfg.TradeInterval) * time.Second
	if !state.LastTradeAt.IsZero() && now.Sub(state.LastTradeAt) < minGap {
		o.logger.Debug("trade interval not elapsed",
			zap.String("symbol", signal.Symbol),
			zap.Duration("since", now.Sub(state.LastTradeAt)),
			zap.Duration("required", minGap),
		)

		return
	}

	req := types.TradeRequest{ //nolint:exhaustruct // SubmittedAt stamped by the venue
		RequestID: uuid.NewString(),
		Symbol:    signal.Symbol,
		Direction: signal.Direction,
		Stake:     stakeFor(o.cfg.Stake, signal.Strength, o.cfg.Risk),
		Duration:  o.cfg.Duration,
		Unit:      o.cfg.DurationUnit,
	}

	o.submit(req, state)
}

func (o *Orchestrator) submit(req types.TradeRequest, state *types.SymbolState) {
	if err := req.Validate(); err != nil {
		o.logger.Error("trade request invalid before submission",
			zap.String("symbol", req.Symbol),
			zap.Error(err),
		)

		return
	}

	o.setStatus(state, types.SymbolStatusSubmitting)
	state.Active = &req

	if err := o.venue.SubmitOrder(o.runCtx, req); err != nil {
		state.Active = nil
		o.setStatus(state, types.SymbolStatusError)
		o.logger.Error("order submission failed",
			zap.String("symbol", req.Symbol),
			zap.String("request_id", req.RequestID),
			zap.Error(err),
		)
		o.setStatus(state, types.SymbolStatusIdle)

		return
	}

	state.LastTradeAt = o.now()

	o.logger.Info("order submitted",
		zap.String("symbol", req.Symbol),
		zap.String("request_id", req.RequestID),
		zap.String("direction", string(req.Direction)),
		zap.Float64("stake", req.Stake),
		zap.Int("duration", req.Duration),
		zap.String("unit", string(req.Unit)),
	)

	if o.callbacks.OnOrderPlaced != nil {
		(*o.callbacks.OnOrderPlaced)(req)
	}
}

func (o *Orchestrator) handleAck(ack types.OrderAck) {
	state := o.state(ack.Symbol)

	if state.Active == nil || state.Active.RequestID != ack.RequestID {
		o.logger.Warn("ack for unknown request",
			zap.String("symbol", ack.Symbol),
			zap.String("request_id", ack.RequestID),
		)

		return
	}

	o.setStatus(state, types.SymbolStatusOpen)

	o.logger.Info("order acknowledged",
		zap.String("symbol", ack.Symbol),
		zap.String("request_id", ack.RequestID),
		zap.String("contract_id", ack.ContractID),
		zap.Float64("buy_price", ack.BuyPrice),
	)

	if o.callbacks.OnOrderFilled != nil {
		(*o.callbacks.OnOrderFilled)(ack)
	}
}

// handleResult settles or fails the symbol's active trade. Failures pass
// through ERROR and return to IDLE without retrying; the next evaluation
// cycle may submit a fresh trade.
func (o *Orchestrator) handleResult(evt venue.TradeResultEvent) {
	result := evt.Result
	state := o.state(result.Symbol)

	if state.Active == nil || state.Active.RequestID != result.RequestID {
		o.logger.Warn("result for unknown request",
			zap.String("symbol", result.Symbol),
			zap.String("request_id", result.RequestID),
		)

		return
	}

	direction := state.Active.Direction
	state.Active = nil

	if result.Outcome == types.OutcomeError {
		o.setStatus(state, types.SymbolStatusError)
		o.logger.Warn("trade failed",
			zap.String("symbol", result.Symbol),
			zap.String("request_id", result.RequestID),
			zap.Error(evt.Err),
		)
		o.setStatus(state, types.SymbolStatusIdle)

		return
	}

	o.setStatus(state, types.SymbolStatusSettled)
	o.tracker.Record(result, direction)

	o.logger.Info("trade settled",
		zap.String("symbol", result.Symbol),
		zap.String("contract_id", result.ContractID),
		zap.String("outcome", string(result.Outcome)),
		zap.Float64("profit_loss", result.ProfitLoss),
		zap.Float64("exit_price", result.ExitPrice),
	)

	if o.callbacks.OnTradeSettled != nil {
		(*o.callbacks.OnTradeSettled)(result)
	}

	o.setStatus(state, types.SymbolStatusIdle)
}

// state returns the symbol's live state record, creating an IDLE one on
// first touch.
func (o *Orchestrator) state(symbol string) *types.SymbolState {
	if s, ok := o.states[symbol]; ok {
		return s
	}

	s := &types.SymbolState{ //nolint:exhaustruct // no active trade yet
		Symbol: symbol,
		Status: types.SymbolStatusIdle,
	}
	o.states[symbol] = s

	return s
}

func (o *Orchestrator) setStatus(state *types.SymbolState, status types.SymbolStatus) {
	if state.Status == status {
		return
	}

	o.logger.Debug("symbol state",
		zap.String("symbol", state.Symbol),
		zap.String("from", string(state.Status)),
		zap.String("to", string(status)),
	)

	state.Status = status
}

func (o *Orchestrator) openPositions() int {
	open := 0

	for _, state := range o.states {
		if state.HasOpenPosition() {
			open++
		}
	}

	return open
}
