package indicator

import (
	"time"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// series owns everything for one (symbol, timeframe) pair: the bounded
// candle window, the forming candle on the tick path, and every indicator
// accumulator. A series is only ever touched by the engine holding its lock.
type series struct {
	symbol string
	tf     types.Timeframe

	window     *Window
	forming    *types.Candle
	lastClosed time.Time

	fastSMA  *SMA
	slowSMA  *SMA
	trendSMA *SMA
	ema      *EMA
	rsi      *RSI
	macd     *MACD
	boll     *BollingerBands
	atr      *ATR
	stoch    *Stochastic
	adx      *ADX

	all []Indicator

	snapshot    types.IndicatorSnapshot
	hasSnapshot bool
}

func newSeries(symbol string, tf types.Timeframe, cfg Config, lookback int) *series {
	s := &series{
		symbol:   symbol,
		tf:       tf,
		window:   NewWindow(lookback),
		fastSMA:  NewSMA(cfg.FastSMAPeriod),
		slowSMA:  NewSMA(cfg.SlowSMAPeriod),
		trendSMA: NewSMA(cfg.TrendSMAPeriod),
		ema:      NewEMA(cfg.EMAPeriod),
		rsi:      NewRSI(cfg.RSIPeriod),
		macd:     NewMACD(cfg.MACDFastPeriod, cfg.MACDSlowPeriod, cfg.MACDSignalPeriod),
		boll:     NewBollingerBands(cfg.BollingerPeriod, cfg.BollingerStdDev),
		atr:      NewATR(cfg.ATRPeriod),
		stoch:    NewStochastic(cfg.StochasticPeriod, cfg.StochasticSmooth),
		adx:      NewADX(cfg.ADXPeriod),
	}

	s.all = []Indicator{s.fastSMA, s.slowSMA, s.trendSMA, s.ema, s.rsi, s.macd, s.boll, s.atr, s.stoch, s.adx}

	return s
}

// applyClosed folds one closed candle into the window and every accumulator
// and rebuilds the snapshot.
func (s *series) applyClosed(candle types.Candle) types.IndicatorSnapshot {
	s.window.Push(candle)

	for _, ind := range s.all {
		ind.Update(candle)
	}

	s.lastClosed = candle.Start
	s.snapshot = s.buildSnapshot(candle)
	s.hasSnapshot = true

	return s.snapshot
}

// applyTick folds a live tick into the forming candle. The previous candle
// closes when a tick lands in a later bucket; that close is the moment a new
// snapshot is produced.
func (s *series) applyTick(tick types.Tick) (types.IndicatorSnapshot, bool) {
	bucket := types.BucketStart(tick.Time, s.tf)

	// Ticks for buckets that already closed carry no new information.
	if !s.lastClosed.IsZero() && !bucket.After(s.lastClosed) {
		return types.IndicatorSnapshot{}, false
	}

	if s.forming == nil {
		candle := types.NewCandleFromTick(tick, s.tf)
		s.forming = &candle

		return types.IndicatorSnapshot{}, false
	}

	if bucket.Equal(s.forming.Start) {
		s.forming.ApplyTick(tick)
		return types.IndicatorSnapshot{}, false
	}

	if bucket.Before(s.forming.Start) {
		return types.IndicatorSnapshot{}, false
	}

	closed := *s.forming
	next := types.NewCandleFromTick(tick, s.tf)
	s.forming = &next

	return s.applyClosed(closed), true
}

// applyCandle folds a closed candle delivered by the venue's candle stream.
// Duplicates and candles older than the last close are ignored.
func (s *series) applyCandle(candle types.Candle) (types.IndicatorSnapshot, bool) {
	if !s.lastClosed.IsZero() && !candle.Start.After(s.lastClosed) {
		return types.IndicatorSnapshot{}, false
	}

	// A direct candle close supersedes whatever the tick path was forming
	// for the same or an earlier bucket.
	if s.forming != nil && !s.forming.Start.After(candle.Start) {
		s.forming = nil
	}

	return s.applyClosed(candle), true
}

func (s *series) buildSnapshot(last types.Candle) types.IndicatorSnapshot {
	return types.IndicatorSnapshot{
		Symbol:     s.symbol,
		Timeframe:  s.tf,
		Time:       last.End,
		Close:      last.Close,
		SMA:        s.slowSMA.Value(),
		FastSMA:    s.fastSMA.Value(),
		TrendSMA:   s.trendSMA.Value(),
		EMA:        s.ema.Value(),
		RSI:        s.rsi.Value(),
		MACD:       s.macd.Current(),
		Bollinger:  s.boll.Current(),
		ATR:        s.atr.Value(),
		Stochastic: s.stoch.Current(),
		ADX:        s.adx.Value(),
		Pattern:    ClassifyPattern(s.window.Last(2)),
	}
}
