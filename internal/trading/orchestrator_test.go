package trading

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/rxtech-lab/argo-pilot/internal/config"
	"github.com/rxtech-lab/argo-pilot/internal/indicator"
	"github.com/rxtech-lab/argo-pilot/internal/logger"
	"github.com/rxtech-lab/argo-pilot/internal/stats"
	"github.com/rxtech-lab/argo-pilot/internal/types"
	"github.com/rxtech-lab/argo-pilot/internal/venue"
	"github.com/rxtech-lab/argo-pilot/mocks"
	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

// scriptedEvaluator returns queued signals in order and NONE once the
// script runs out.
type scriptedEvaluator struct {
	mu    sync.Mutex
	queue []types.Signal
	count int
}

func (e *scriptedEvaluator) push(signals ...types.Signal) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.queue = append(e.queue, signals...)
}

func (e *scriptedEvaluator) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.count
}

func (e *scriptedEvaluator) Evaluate(symbol string, _ []types.IndicatorSnapshot) types.Signal {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.count++

	if len(e.queue) == 0 {
		return types.Signal{Symbol: symbol, Direction: types.DirectionNone, Reason: "script exhausted"}
	}

	next := e.queue[0]
	e.queue = e.queue[1:]
	next.Symbol = symbol

	return next
}

// testClock is a mutable clock safe to advance while the dispatch loop
// reads it.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// OrchestratorTestSuite is the test suite for the Orchestrator.
type OrchestratorTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mock      *mocks.MockVenue
	events    chan venue.Event
	evaluator *scriptedEvaluator
	engine    *indicator.Engine
	tracker   *stats.Tracker
	orch      *Orchestrator

	cancel context.CancelFunc
	done   chan error

	seeded  chan int
	signals chan types.Signal
	placed  chan types.TradeRequest
	filled  chan types.OrderAck
	settled chan types.TradeResult

	mu      sync.Mutex
	stopErr error
	stopped bool
}

// TestOrchestrator runs the test suite.
func TestOrchestrator(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

// SetupTest runs before each test.
func (s *OrchestratorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mock = mocks.NewMockVenue(s.ctrl)
	s.events = make(chan venue.Event, 64)
	s.evaluator = &scriptedEvaluator{}
	s.cancel = nil
	s.done = nil

	s.seeded = make(chan int, 16)
	s.signals = make(chan types.Signal, 16)
	s.placed = make(chan types.TradeRequest, 16)
	s.filled = make(chan types.OrderAck, 16)
	s.settled = make(chan types.TradeResult, 16)

	s.mu.Lock()
	s.stopErr = nil
	s.stopped = false
	s.mu.Unlock()
}

// TearDownTest runs after each test.
func (s *OrchestratorTestSuite) TearDownTest() {
	if s.cancel != nil {
		s.cancel()
	}

	if s.done != nil {
		select {
		case <-s.done:
		case <-time.After(5 * time.Second):
			s.Require().Fail("orchestrator did not stop")
		}
	}

	s.ctrl.Finish()
}

// newOrchestrator builds an orchestrator around the mock venue with one
// symbol on the one-minute timeframe and no trade spacing.
func (s *OrchestratorTestSuite) newOrchestrator(mutate func(*config.Config)) {
	cfg := config.DefaultConfig()
	cfg.Symbols = []string{"R_50"}
	cfg.Timeframes = []types.Timeframe{types.Timeframe1m}
	cfg.TradeInterval = 0

	if mutate != nil {
		mutate(&cfg)
	}

	log, err := logger.NewDevelopmentLogger()
	s.Require().NoError(err)

	s.engine = indicator.NewEngine(cfg.Indicators, cfg.LookbackPeriods)
	s.tracker = stats.NewTracker(log)
	s.orch = NewOrchestrator(&cfg, s.mock, s.engine, s.evaluator, s.tracker, log)
}

// expectSession wires the expectations every successful run shares.
func (s *OrchestratorTestSuite) expectSession() {
	s.mock.EXPECT().Connect(gomock.Any()).Return(nil)
	s.mock.EXPECT().Subscribe(gomock.Any(), "R_50", types.Timeframe1m).Return(nil)
	s.mock.EXPECT().Events().Return((<-chan venue.Event)(s.events)).AnyTimes()
	s.mock.EXPECT().Close(gomock.Any()).Return(nil)
}

// startRun launches Run on its own goroutine with capturing callbacks.
func (s *OrchestratorTestSuite) startRun() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan error, 1)

	onSeed := OnSeedDoneCallback(func(_ string, _ types.Timeframe, candles int) {
		s.seeded <- candles
	})
	onSignal := OnSignalCallback(func(signal types.Signal) {
		s.signals <- signal
	})
	onPlaced := OnOrderPlacedCallback(func(req types.TradeRequest) {
		s.placed <- req
	})
	onFilled := OnOrderFilledCallback(func(ack types.OrderAck) {
		s.filled <- ack
	})
	onSettled := OnTradeSettledCallback(func(result types.TradeResult) {
		s.settled <- result
	})
	onStop := OnStopCallback(func(err error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.stopped = true
		s.stopErr = err
	})

	callbacks := Callbacks{
		OnSeedDone:     &onSeed,
		OnSignal:       &onSignal,
		OnOrderPlaced:  &onPlaced,
		OnOrderFilled:  &onFilled,
		OnTradeSettled: &onSettled,
		OnStop:         &onStop,
	}

	go func() {
		s.done <- s.orch.Run(ctx, callbacks)
	}()
}

// waitDone waits for Run to return.
func (s *OrchestratorTestSuite) waitDone() error {
	select {
	case err := <-s.done:
		s.done = nil
		return err
	case <-time.After(5 * time.Second):
		s.Require().Fail("orchestrator did not stop")
		return nil
	}
}

// stopRun cancels the run context and waits for Run to return.
func (s *OrchestratorTestSuite) stopRun() error {
	s.cancel()

	return s.waitDone()
}

func (s *OrchestratorTestSuite) waitSeeded() int {
	select {
	case n := <-s.seeded:
		return n
	case <-time.After(2 * time.Second):
		s.Require().Fail("timed out waiting for seeding")
		return 0
	}
}

func (s *OrchestratorTestSuite) waitSignal() types.Signal {
	select {
	case sig := <-s.signals:
		return sig
	case <-time.After(2 * time.Second):
		s.Require().Fail("timed out waiting for a signal")
		return types.Signal{}
	}
}

func (s *OrchestratorTestSuite) waitPlaced() types.TradeRequest {
	select {
	case req := <-s.placed:
		return req
	case <-time.After(2 * time.Second):
		s.Require().Fail("timed out waiting for an order")
		return types.TradeRequest{}
	}
}

func (s *OrchestratorTestSuite) waitFilled() types.OrderAck {
	select {
	case ack := <-s.filled:
		return ack
	case <-time.After(2 * time.Second):
		s.Require().Fail("timed out waiting for an ack")
		return types.OrderAck{}
	}
}

func (s *OrchestratorTestSuite) waitSettled() types.TradeResult {
	select {
	case result := <-s.settled:
		return result
	case <-time.After(2 * time.Second):
		s.Require().Fail("timed out waiting for a settlement")
		return types.TradeResult{}
	}
}

// candleAt builds one valid closed candle for the watched series.
func candleAt(start time.Time, price float64) types.Candle {
	return types.Candle{
		Symbol:    "R_50",
		Timeframe: types.Timeframe1m,
		Open:      price,
		High:      price + 0.5,
		Low:       price - 0.5,
		Close:     price + 0.2,
		Start:     start,
		End:       start.Add(time.Minute),
	}
}

// seedCandles builds a contiguous run of valid candles.
func seedCandles(start time.Time, count int) []types.Candle {
	candles := make([]types.Candle, 0, count)
	for i := 0; i < count; i++ {
		candles = append(candles, candleAt(start.Add(time.Duration(i)*time.Minute), 100+float64(i)*0.1))
	}

	return candles
}

func buySignal(strength float64) types.Signal {
	return types.Signal{Direction: types.DirectionBuy, Strength: strength, Reason: "scripted buy"}
}

func ackFor(req types.TradeRequest) venue.OrderAckEvent {
	return venue.OrderAckEvent{Ack: types.OrderAck{
		RequestID:  req.RequestID,
		Symbol:     req.Symbol,
		ContractID: uuid.NewString(),
		BuyPrice:   req.Stake,
		Time:       time.Now(),
	}}
}

func wonResultFor(req types.TradeRequest) venue.TradeResultEvent {
	return venue.TradeResultEvent{Result: types.TradeResult{
		RequestID:  req.RequestID,
		Symbol:     req.Symbol,
		ContractID: "c-" + req.RequestID,
		Outcome:    types.OutcomeWon,
		ProfitLoss: 9.5,
		EntryPrice: 100,
		ExitPrice:  101.2,
		SettledAt:  time.Now(),
	}}
}

// settleImmediately is a SubmitOrder side effect that acks the order and
// settles it as won.
func (s *OrchestratorTestSuite) settleImmediately(_ context.Context, req types.TradeRequest) error {
	s.events <- ackFor(req)
	s.events <- wonResultFor(req)

	return nil
}

// ============================================================================
// Control surface
// ============================================================================

func (s *OrchestratorTestSuite) TestNewOrchestratorStartsPaused() {
	s.newOrchestrator(nil)

	s.False(s.orch.Running())
}

func (s *OrchestratorTestSuite) TestResumeAndPauseFlipTheSwitch() {
	s.newOrchestrator(nil)

	s.Require().NoError(s.orch.Resume())
	s.True(s.orch.Running())

	err := s.orch.Resume()
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeAlreadyRunning))

	s.Require().NoError(s.orch.Pause())
	s.False(s.orch.Running())

	err = s.orch.Pause()
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeNotRunning))
}

// ============================================================================
// Pre-run validation
// ============================================================================

func (s *OrchestratorTestSuite) TestRunRejectsMissingVenue() {
	cfg := config.DefaultConfig()
	log, err := logger.NewDevelopmentLogger()
	s.Require().NoError(err)

	orch := NewOrchestrator(&cfg, nil, indicator.NewEngine(cfg.Indicators, cfg.LookbackPeriods),
		s.evaluator, stats.NewTracker(log), log)

	err = orch.Run(context.Background(), Callbacks{})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

func (s *OrchestratorTestSuite) TestRunRejectsEmptySymbols() {
	s.newOrchestrator(func(cfg *config.Config) {
		cfg.Symbols = nil
	})

	err := s.orch.Run(context.Background(), Callbacks{})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (s *OrchestratorTestSuite) TestRunSurfacesConnectFailure() {
	s.newOrchestrator(nil)

	authErr := errors.New(errors.ErrCodeAuthFailed, "token rejected")
	s.mock.EXPECT().Connect(gomock.Any()).Return(authErr)

	err := s.orch.Run(context.Background(), Callbacks{})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeAuthFailed))
}

func (s *OrchestratorTestSuite) TestRunSurfacesSubscribeFailure() {
	s.newOrchestrator(nil)

	s.mock.EXPECT().Connect(gomock.Any()).Return(nil)
	s.mock.EXPECT().Subscribe(gomock.Any(), "R_50", types.Timeframe1m).
		Return(errors.New(errors.ErrCodeSubscribeFailed, "unknown symbol"))
	s.mock.EXPECT().Close(gomock.Any()).Return(nil)

	err := s.orch.Run(context.Background(), Callbacks{})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeSubscribeFailed))
}

// ============================================================================
// History seeding
// ============================================================================

func (s *OrchestratorTestSuite) TestHistorySeedsWithoutEvaluating() {
	s.newOrchestrator(nil)
	s.expectSession()
	s.startRun()

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.events <- venue.HistoryEvent{
		Symbol:    "R_50",
		Timeframe: types.Timeframe1m,
		Candles:   seedCandles(start, 30),
	}

	s.Equal(30, s.waitSeeded())
	s.Equal(30, s.engine.CandleCount("R_50", types.Timeframe1m))
	s.Equal(0, s.evaluator.calls())

	err := s.stopRun()
	s.Require().ErrorIs(err, context.Canceled)
	s.Empty(s.signals)
}

// ============================================================================
// Trade lifecycle
// ============================================================================

func (s *OrchestratorTestSuite) TestActionableSignalDrivesFullLifecycle() {
	s.newOrchestrator(nil)
	s.evaluator.push(buySignal(0.8))
	s.expectSession()
	s.mock.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).DoAndReturn(s.settleImmediately)
	s.startRun()

	s.events <- venue.CandleEvent{Candle: candleAt(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), 100)}

	sig := s.waitSignal()
	s.Equal(types.DirectionBuy, sig.Direction)
	s.Equal("R_50", sig.Symbol)

	req := s.waitPlaced()
	_, err := uuid.Parse(req.RequestID)
	s.Require().NoError(err)
	s.Equal(types.DirectionBuy, req.Direction)
	s.InDelta(10.0, req.Stake, 1e-9)
	s.Equal(5, req.Duration)
	s.Equal(types.DurationUnitTicks, req.Unit)

	ack := s.waitFilled()
	s.Equal(req.RequestID, ack.RequestID)

	result := s.waitSettled()
	s.Equal(types.OutcomeWon, result.Outcome)
	s.InDelta(9.5, result.ProfitLoss, 1e-9)

	s.Require().ErrorIs(s.stopRun(), context.Canceled)

	symbolStats, ok := s.tracker.Symbol("R_50")
	s.Require().True(ok)
	s.Equal(1, symbolStats.TradesPlaced)
	s.Equal(1, symbolStats.Wins)
	s.InDelta(9.5, symbolStats.TotalProfitLoss, 1e-9)

	s.Equal(types.SymbolStatusIdle, s.orch.states["R_50"].Status)
	s.Nil(s.orch.states["R_50"].Active)
}

func (s *OrchestratorTestSuite) TestNonActionableSignalDoesNotTrade() {
	s.newOrchestrator(nil)
	s.expectSession()
	s.startRun()

	s.events <- venue.CandleEvent{Candle: candleAt(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), 100)}

	sig := s.waitSignal()
	s.Equal(types.DirectionNone, sig.Direction)

	s.Require().ErrorIs(s.stopRun(), context.Canceled)

	_, ok := s.tracker.Symbol("R_50")
	s.False(ok)
}

func (s *OrchestratorTestSuite) TestSingleOpenPositionPerSymbol() {
	s.newOrchestrator(nil)
	s.evaluator.push(buySignal(0.8), buySignal(0.9))
	s.expectSession()

	s.mock.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req types.TradeRequest) error {
			s.events <- ackFor(req)
			return nil
		})
	s.startRun()

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.events <- venue.CandleEvent{Candle: candleAt(start, 100)}

	s.waitSignal()
	req := s.waitPlaced()
	s.waitFilled()

	// A second actionable signal must not submit while the position is open.
	s.events <- venue.CandleEvent{Candle: candleAt(start.Add(time.Minute), 101)}
	s.waitSignal()

	s.events <- wonResultFor(req)
	s.waitSettled()

	s.Require().ErrorIs(s.stopRun(), context.Canceled)

	symbolStats, ok := s.tracker.Symbol("R_50")
	s.Require().True(ok)
	s.Equal(1, symbolStats.TradesPlaced)
}

func (s *OrchestratorTestSuite) TestStakeScalesWithSignalStrength() {
	s.newOrchestrator(func(cfg *config.Config) {
		cfg.Risk.ScaleStake = true
	})
	s.evaluator.push(buySignal(0.8))
	s.expectSession()
	s.mock.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).DoAndReturn(s.settleImmediately)
	s.startRun()

	s.events <- venue.CandleEvent{Candle: candleAt(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), 100)}

	req := s.waitPlaced()
	s.InDelta(17.0, req.Stake, 1e-9)

	s.waitSettled()
	s.Require().ErrorIs(s.stopRun(), context.Canceled)
}

func (s *OrchestratorTestSuite) TestOrderTimeoutReturnsSymbolToIdle() {
	s.newOrchestrator(nil)
	s.evaluator.push(buySignal(0.8), buySignal(0.8))
	s.expectSession()

	first := s.mock.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req types.TradeRequest) error {
			s.events <- venue.TradeResultEvent{
				Result: types.TradeResult{
					RequestID: req.RequestID,
					Symbol:    req.Symbol,
					Outcome:   types.OutcomeError,
					SettledAt: time.Now(),
				},
				Err: errors.Newf(errors.ErrCodeOrderTimeout, "no ack for %s", req.RequestID),
			}
			return nil
		})
	second := s.mock.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).DoAndReturn(s.settleImmediately)
	gomock.InOrder(first, second)
	s.startRun()

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.events <- venue.CandleEvent{Candle: candleAt(start, 100)}
	s.waitSignal()
	s.waitPlaced()

	// The timed-out trade frees the symbol; the next signal trades again.
	s.events <- venue.CandleEvent{Candle: candleAt(start.Add(time.Minute), 101)}
	s.waitSignal()
	s.waitPlaced()
	s.waitSettled()

	s.Require().ErrorIs(s.stopRun(), context.Canceled)

	symbolStats, ok := s.tracker.Symbol("R_50")
	s.Require().True(ok)
	s.Equal(1, symbolStats.TradesPlaced)
}

func (s *OrchestratorTestSuite) TestSubmitErrorDoesNotBlockNextSignal() {
	s.newOrchestrator(nil)
	s.evaluator.push(buySignal(0.8), buySignal(0.8))
	s.expectSession()

	first := s.mock.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).
		Return(errors.New(errors.ErrCodeWriteFailed, "write to venue failed"))
	second := s.mock.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).DoAndReturn(s.settleImmediately)
	gomock.InOrder(first, second)
	s.startRun()

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.events <- venue.CandleEvent{Candle: candleAt(start, 100)}
	s.waitSignal()

	s.events <- venue.CandleEvent{Candle: candleAt(start.Add(time.Minute), 101)}
	s.waitSignal()
	s.waitPlaced()
	s.waitSettled()

	s.Require().ErrorIs(s.stopRun(), context.Canceled)
}

// ============================================================================
// Guardrails
// ============================================================================

func (s *OrchestratorTestSuite) TestPausedOrchestratorHoldsFire() {
	s.newOrchestrator(nil)
	s.evaluator.push(buySignal(0.8), buySignal(0.8))
	s.expectSession()
	s.mock.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).DoAndReturn(s.settleImmediately)
	s.startRun()

	s.Require().Eventually(s.orch.Running, 2*time.Second, 10*time.Millisecond)
	s.Require().NoError(s.orch.Pause())

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.events <- venue.CandleEvent{Candle: candleAt(start, 100)}
	s.waitSignal()

	s.Require().NoError(s.orch.Resume())

	s.events <- venue.CandleEvent{Candle: candleAt(start.Add(time.Minute), 101)}
	s.waitSignal()
	s.waitPlaced()
	s.waitSettled()

	s.Require().ErrorIs(s.stopRun(), context.Canceled)

	symbolStats, ok := s.tracker.Symbol("R_50")
	s.Require().True(ok)
	s.Equal(1, symbolStats.TradesPlaced)
}

func (s *OrchestratorTestSuite) TestOutsideActiveHoursHoldsFire() {
	s.newOrchestrator(func(cfg *config.Config) {
		cfg.ActiveHours = config.HoursWindow{
			Start: config.ClockTime{Hour: 10, Minute: 0},
			End:   config.ClockTime{Hour: 18, Minute: 0},
		}
	})
	s.orch.now = func() time.Time {
		return time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)
	}
	s.evaluator.push(buySignal(0.8))
	s.expectSession()
	s.startRun()

	s.events <- venue.CandleEvent{Candle: candleAt(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), 100)}
	sig := s.waitSignal()
	s.Equal(types.DirectionBuy, sig.Direction)

	s.Require().ErrorIs(s.stopRun(), context.Canceled)

	_, ok := s.tracker.Symbol("R_50")
	s.False(ok)
}

func (s *OrchestratorTestSuite) TestOvernightWindowAllowsTrading() {
	s.newOrchestrator(func(cfg *config.Config) {
		cfg.ActiveHours = config.HoursWindow{
			Start: config.ClockTime{Hour: 22, Minute: 0},
			End:   config.ClockTime{Hour: 2, Minute: 0},
		}
	})
	s.orch.now = func() time.Time {
		return time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	}
	s.evaluator.push(buySignal(0.8))
	s.expectSession()
	s.mock.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).DoAndReturn(s.settleImmediately)
	s.startRun()

	s.events <- venue.CandleEvent{Candle: candleAt(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), 100)}
	s.waitPlaced()
	s.waitSettled()

	s.Require().ErrorIs(s.stopRun(), context.Canceled)
}

func (s *OrchestratorTestSuite) TestTradeIntervalSpacesSubmissions() {
	s.newOrchestrator(func(cfg *config.Config) {
		cfg.TradeInterval = 60
	})

	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s.orch.now = clock.Now

	s.evaluator.push(buySignal(0.8), buySignal(0.8), buySignal(0.8))
	s.expectSession()
	s.mock.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).DoAndReturn(s.settleImmediately).Times(2)
	s.startRun()

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.events <- venue.CandleEvent{Candle: candleAt(start, 100)}
	s.waitSignal()
	s.waitPlaced()
	s.waitSettled()

	// Same clock instant: the spacing guardrail blocks the second trade.
	s.events <- venue.CandleEvent{Candle: candleAt(start.Add(time.Minute), 101)}
	s.waitSignal()

	clock.Advance(61 * time.Second)

	s.events <- venue.CandleEvent{Candle: candleAt(start.Add(2*time.Minute), 102)}
	s.waitSignal()
	s.waitPlaced()
	s.waitSettled()

	s.Require().ErrorIs(s.stopRun(), context.Canceled)

	symbolStats, ok := s.tracker.Symbol("R_50")
	s.Require().True(ok)
	s.Equal(2, symbolStats.TradesPlaced)
}

// ============================================================================
// Connection lifecycle
// ============================================================================

func (s *OrchestratorTestSuite) TestFatalConnectionLossStopsRun() {
	s.newOrchestrator(nil)
	s.expectSession()
	s.startRun()

	s.events <- venue.ConnectionLostEvent{
		Err: errors.New(errors.ErrCodeAuthFailed, "account token revoked"),
	}

	err := s.waitDone()
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeAuthFailed))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.True(s.stopped)
	s.Equal(err, s.stopErr)
}

func (s *OrchestratorTestSuite) TestTransientLossHoldsSubmissionsUntilRestore() {
	s.newOrchestrator(nil)
	s.evaluator.push(buySignal(0.8), buySignal(0.8))
	s.expectSession()
	s.mock.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).DoAndReturn(s.settleImmediately)
	s.startRun()

	s.events <- venue.ConnectionLostEvent{
		Err: errors.New(errors.ErrCodeReadFailed, "transport lost"),
	}

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.events <- venue.CandleEvent{Candle: candleAt(start, 100)}
	s.waitSignal()

	s.events <- venue.ConnectionRestoredEvent{Attempts: 2}

	s.events <- venue.CandleEvent{Candle: candleAt(start.Add(time.Minute), 101)}
	s.waitSignal()
	s.waitPlaced()
	s.waitSettled()

	s.Require().ErrorIs(s.stopRun(), context.Canceled)

	symbolStats, ok := s.tracker.Symbol("R_50")
	s.Require().True(ok)
	s.Equal(1, symbolStats.TradesPlaced)
}

func (s *OrchestratorTestSuite) TestClosedEventStreamStopsRun() {
	s.newOrchestrator(nil)
	s.expectSession()
	s.startRun()

	close(s.events)

	err := s.waitDone()
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeConnectionClosed))
}

// ============================================================================
// Data isolation
// ============================================================================

func (s *OrchestratorTestSuite) TestMalformedCandleDoesNotEvaluate() {
	s.newOrchestrator(nil)
	s.expectSession()
	s.startRun()

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	bad := candleAt(start, 100)
	bad.High = bad.Low - 1

	s.events <- venue.CandleEvent{Candle: bad}
	s.events <- venue.CandleEvent{Candle: candleAt(start.Add(time.Minute), 101)}

	s.waitSignal()

	s.Require().ErrorIs(s.stopRun(), context.Canceled)
	s.Equal(1, s.evaluator.calls())
}

func (s *OrchestratorTestSuite) TestTickRolloverClosesCandleAndEvaluates() {
	s.newOrchestrator(nil)
	s.expectSession()
	s.startRun()

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	s.events <- venue.TickEvent{Tick: types.Tick{Symbol: "R_50", Price: 100, Time: start.Add(5 * time.Second)}}
	s.events <- venue.TickEvent{Tick: types.Tick{Symbol: "R_50", Price: 100.4, Time: start.Add(30 * time.Second)}}

	// Ticks inside one bucket only form the candle; the rollover closes it.
	s.events <- venue.TickEvent{Tick: types.Tick{Symbol: "R_50", Price: 100.6, Time: start.Add(65 * time.Second)}}

	s.waitSignal()

	s.Require().ErrorIs(s.stopRun(), context.Canceled)
	s.Equal(1, s.evaluator.calls())
	s.Equal(1, s.engine.CandleCount("R_50", types.Timeframe1m))
}

// ============================================================================
// Shutdown drain
// ============================================================================

func (s *OrchestratorTestSuite) TestDrainWaitsForOpenContract() {
	s.newOrchestrator(nil)
	s.evaluator.push(buySignal(0.8))
	s.expectSession()
	s.mock.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req types.TradeRequest) error {
			s.events <- ackFor(req)
			return nil
		})
	s.startRun()

	s.events <- venue.CandleEvent{Candle: candleAt(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), 100)}
	req := s.waitPlaced()
	s.waitFilled()

	// Cancel with the contract open; the settlement arrives during drain.
	s.cancel()
	s.events <- wonResultFor(req)

	result := s.waitSettled()
	s.Equal(types.OutcomeWon, result.Outcome)

	s.Require().ErrorIs(s.waitDone(), context.Canceled)

	symbolStats, ok := s.tracker.Symbol("R_50")
	s.Require().True(ok)
	s.Equal(1, symbolStats.TradesPlaced)
	s.False(s.orch.Running())
}

func (s *OrchestratorTestSuite) TestDrainGivesUpAfterTimeout() {
	s.newOrchestrator(func(cfg *config.Config) {
		cfg.Timeouts.DrainSeconds = 1
	})
	s.evaluator.push(buySignal(0.8))
	s.expectSession()
	s.mock.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req types.TradeRequest) error {
			s.events <- ackFor(req)
			return nil
		})
	s.startRun()

	s.events <- venue.CandleEvent{Candle: candleAt(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), 100)}
	s.waitPlaced()
	s.waitFilled()

	s.cancel()

	s.Require().ErrorIs(s.waitDone(), context.Canceled)

	_, ok := s.tracker.Symbol("R_50")
	s.False(ok)
}
