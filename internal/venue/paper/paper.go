// Package paper implements the in-process venue simulator. It serves the
// same event contract as the production venue from a pluggable price feed
// and settles rise/fall contracts by comparing entry and exit spot, so the
// whole pipeline can dry-run without touching a broker.
package paper

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-pilot/internal/config"
	"github.com/rxtech-lab/argo-pilot/internal/logger"
	"github.com/rxtech-lab/argo-pilot/internal/types"
	"github.com/rxtech-lab/argo-pilot/internal/venue"
	"github.com/rxtech-lab/argo-pilot/internal/venue/feed"
	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

const eventBuffer = 256

type feedKey struct {
	symbol string
	tf     types.Timeframe
}

type openContract struct {
	req        types.TradeRequest
	contractID string
	entryPrice float64
	timer      *time.Timer
}

// Simulator is an in-process venue. Orders are acknowledged immediately at
// the current spot and settle after their contractual lifetime at the
// configured payout ratio.
type Simulator struct {
	feed     feed.Feed
	payout   float64
	lookback int
	logger   *logger.Logger

	runCtx    context.Context
	runCancel context.CancelFunc

	mu      sync.Mutex
	symbols map[string]struct{}
	feeds   map[feedKey]struct{}
	forming map[feedKey]*types.Candle
	last    map[string]float64
	open    map[string]*openContract

	loop sync.WaitGroup

	closeMu   sync.RWMutex
	isClosed  bool
	closeOnce sync.Once
	events    chan venue.Event
}

// NewSimulator builds a paper venue over the given price feed. It does not
// start the feed until Connect.
func NewSimulator(cfg *config.Config, priceFeed feed.Feed, log *logger.Logger) *Simulator {
	ctx, cancel := context.WithCancel(context.Background())

	return &Simulator{
		feed:      priceFeed,
		payout:    cfg.Paper.Payout,
		lookback:  cfg.LookbackPeriods,
		logger:    log,
		runCtx:    ctx,
		runCancel: cancel,
		symbols:   make(map[string]struct{}),
		feeds:     make(map[feedKey]struct{}),
		forming:   make(map[feedKey]*types.Candle),
		last:      make(map[string]float64),
		open:      make(map[string]*openContract),
		events:    make(chan venue.Event, eventBuffer),
	}
}

// Connect starts the price feed and the tick loop.
func (s *Simulator) Connect(_ context.Context) error {
	ticks, err := s.feed.Start(s.runCtx)
	if err != nil {
		return err
	}

	s.loop.Add(1)
	go s.run(ticks)

	s.logger.Info("paper venue started", zap.Float64("payout", s.payout))

	return nil
}

// Subscribe seeds the feed's history and begins forming candles for the
// (symbol, timeframe) pair. Repeat calls for the same feed are no-ops.
func (s *Simulator) Subscribe(ctx context.Context, symbol string, tf types.Timeframe) error {
	if err := tf.Validate(); err != nil {
		return err
	}

	key := feedKey{symbol: symbol, tf: tf}

	s.mu.Lock()
	if _, ok := s.feeds[key]; ok {
		s.mu.Unlock()

		return nil
	}
	s.mu.Unlock()

	candles, err := s.feed.History(ctx, symbol, tf, s.lookback)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeSubscribeFailed, err, "seeding %s %s", symbol, tf)
	}

	s.mu.Lock()
	s.feeds[key] = struct{}{}
	s.symbols[symbol] = struct{}{}
	if len(candles) > 0 {
		s.last[symbol] = candles[len(candles)-1].Close
	}
	s.mu.Unlock()

	s.emit(venue.HistoryEvent{Symbol: symbol, Timeframe: tf, Candles: candles})

	s.logger.Info("subscribed",
		zap.String("symbol", symbol),
		zap.String("timeframe", string(tf)),
		zap.Int("seed_candles", len(candles)))

	return nil
}

// SubmitOrder opens a simulated contract at the current spot. The
// acknowledgement and, after the contract's lifetime, the settlement arrive
// on the events channel.
func (s *Simulator) SubmitOrder(_ context.Context, req types.TradeRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	req.SubmittedAt = time.Now().UTC()

	s.mu.Lock()
	entry, ok := s.last[req.Symbol]
	if !ok {
		s.mu.Unlock()

		return errors.Newf(errors.ErrCodeOrderRejected, "no spot price for %s, subscribe first", req.Symbol)
	}

	contract := &openContract{
		req:        req,
		contractID: uuid.NewString(),
		entryPrice: entry,
	}
	s.open[contract.contractID] = contract
	contract.timer = time.AfterFunc(req.Lifetime(), func() {
		s.settle(contract.contractID)
	})
	s.mu.Unlock()

	s.emit(venue.OrderAckEvent{Ack: types.OrderAck{
		RequestID:  req.RequestID,
		Symbol:     req.Symbol,
		ContractID: contract.contractID,
		BuyPrice:   req.Stake,
		Time:       req.SubmittedAt,
	}})

	s.logger.Info("order acknowledged",
		zap.String("request_id", req.RequestID),
		zap.String("contract_id", contract.contractID),
		zap.Float64("entry", entry))

	return nil
}

// Events returns the stream of venue events. The channel closes after Close.
func (s *Simulator) Events() <-chan venue.Event {
	return s.events
}

// Close stops the feed, voids open contracts and closes the events channel.
func (s *Simulator) Close(_ context.Context) error {
	s.closeOnce.Do(func() {
		s.runCancel()

		s.mu.Lock()
		for id, contract := range s.open {
			contract.timer.Stop()
			delete(s.open, id)
		}
		s.mu.Unlock()

		s.loop.Wait()

		s.closeMu.Lock()
		s.isClosed = true
		s.closeMu.Unlock()

		close(s.events)

		s.logger.Info("paper venue closed")
	})

	return nil
}

func (s *Simulator) run(ticks <-chan types.Tick) {
	defer s.loop.Done()

	for tick := range ticks {
		s.applyTick(tick)
	}
}

func (s *Simulator) applyTick(tick types.Tick) {
	if err := tick.Validate(); err != nil {
		s.logger.Warn("dropping malformed tick", zap.Error(err))

		return
	}

	s.mu.Lock()
	s.last[tick.Symbol] = tick.Price
	_, subscribed := s.symbols[tick.Symbol]

	var closed []types.Candle

	for key := range s.feeds {
		if key.symbol != tick.Symbol {
			continue
		}

		forming := s.forming[key]
		switch {
		case forming == nil:
			candle := types.NewCandleFromTick(tick, key.tf)
			s.forming[key] = &candle
		case !tick.Time.Before(forming.End):
			closed = append(closed, *forming)
			candle := types.NewCandleFromTick(tick, key.tf)
			s.forming[key] = &candle
		default:
			forming.ApplyTick(tick)
		}
	}
	s.mu.Unlock()

	if !subscribed {
		return
	}

	s.emit(venue.TickEvent{Tick: tick})

	for _, candle := range closed {
		s.emit(venue.CandleEvent{Candle: candle})
	}
}

// settle closes one contract against the current spot. A rise contract wins
// when the exit is strictly above the entry, a fall contract when strictly
// below; an unchanged price loses.
func (s *Simulator) settle(contractID string) {
	s.mu.Lock()
	contract, ok := s.open[contractID]
	if !ok {
		s.mu.Unlock()

		return
	}
	delete(s.open, contractID)
	exit := s.last[contract.req.Symbol]
	s.mu.Unlock()

	won := (contract.req.Direction == types.DirectionBuy && exit > contract.entryPrice) ||
		(contract.req.Direction == types.DirectionSell && exit < contract.entryPrice)

	outcome := types.OutcomeLost
	profit := -contract.req.Stake
	if won {
		outcome = types.OutcomeWon
		profit = decimal.NewFromFloat(contract.req.Stake).
			Mul(decimal.NewFromFloat(s.payout)).
			Round(2).
			InexactFloat64()
	}

	s.emit(venue.TradeResultEvent{Result: types.TradeResult{
		RequestID:  contract.req.RequestID,
		Symbol:     contract.req.Symbol,
		ContractID: contractID,
		Outcome:    outcome,
		ProfitLoss: profit,
		EntryPrice: contract.entryPrice,
		ExitPrice:  exit,
		SettledAt:  time.Now().UTC(),
	}})

	s.logger.Info("contract settled",
		zap.String("contract_id", contractID),
		zap.String("outcome", string(outcome)),
		zap.Float64("profit", profit))
}

func (s *Simulator) emit(ev venue.Event) {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()

	if s.isClosed {
		return
	}

	s.events <- ev
}
