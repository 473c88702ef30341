package indicator

import (
	"sync"

	"github.com/rxtech-lab/argo-pilot/internal/types"
	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

type seriesKey struct {
	symbol string
	tf     types.Timeframe
}

// Engine maintains one series per watched (symbol, timeframe) pair and is
// the single owner of all window and accumulator state. The dispatch loop
// writes through Apply*; the read accessors are safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	cfg      Config
	lookback int
	series   map[seriesKey]*series
	watched  map[string][]types.Timeframe
}

// NewEngine creates an engine that keeps the last lookback candles per
// watched series.
func NewEngine(cfg Config, lookback int) *Engine {
	return &Engine{
		cfg:      cfg,
		lookback: lookback,
		series:   make(map[seriesKey]*series),
		watched:  make(map[string][]types.Timeframe),
	}
}

// Watch registers a (symbol, timeframe) series. Watching the same pair
// twice is a no-op.
func (e *Engine) Watch(symbol string, tf types.Timeframe) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := seriesKey{symbol: symbol, tf: tf}
	if _, ok := e.series[key]; ok {
		return
	}

	e.series[key] = newSeries(symbol, tf, e.cfg, e.lookback)
	e.watched[symbol] = append(e.watched[symbol], tf)
}

// Watched returns the timeframes registered for a symbol, in watch order.
func (e *Engine) Watched(symbol string) []types.Timeframe {
	e.mu.RLock()
	defer e.mu.RUnlock()

	tfs := e.watched[symbol]
	out := make([]types.Timeframe, len(tfs))
	copy(out, tfs)

	return out
}

// Seed replays historical candles through a series so indicators are warm
// before live streaming starts. Malformed candles are skipped. It returns
// the number of candles applied.
func (e *Engine) Seed(symbol string, tf types.Timeframe, candles []types.Candle) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.series[seriesKey{symbol: symbol, tf: tf}]
	if !ok {
		return 0, errors.Newf(errors.ErrCodeUnknownSymbol, "series %s/%s is not watched", symbol, tf)
	}

	applied := 0

	for _, candle := range candles {
		if err := candle.Validate(); err != nil {
			continue
		}

		if _, ok := s.applyCandle(candle); ok {
			applied++
		}
	}

	return applied, nil
}

// ApplyTick routes a live tick into every series watched for its symbol and
// returns the snapshots of the series whose candle closed on this tick.
func (e *Engine) ApplyTick(tick types.Tick) ([]types.IndicatorSnapshot, error) {
	if err := tick.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tfs, ok := e.watched[tick.Symbol]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownSymbol, "tick for unwatched symbol %s", tick.Symbol)
	}

	var closed []types.IndicatorSnapshot

	for _, tf := range tfs {
		s := e.series[seriesKey{symbol: tick.Symbol, tf: tf}]
		if snapshot, ok := s.applyTick(tick); ok {
			closed = append(closed, snapshot)
		}
	}

	return closed, nil
}

// ApplyCandle folds one closed candle from the venue's candle stream into
// its series. The boolean reports whether the candle advanced the series
// (duplicates and stale candles do not).
func (e *Engine) ApplyCandle(candle types.Candle) (types.IndicatorSnapshot, bool, error) {
	if err := candle.Validate(); err != nil {
		return types.IndicatorSnapshot{}, false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.series[seriesKey{symbol: candle.Symbol, tf: candle.Timeframe}]
	if !ok {
		return types.IndicatorSnapshot{}, false, errors.Newf(errors.ErrCodeUnknownSymbol,
			"candle for unwatched series %s/%s", candle.Symbol, candle.Timeframe)
	}

	snapshot, ok := s.applyCandle(candle)

	return snapshot, ok, nil
}

// Snapshot returns the latest snapshot for one series, if it has closed at
// least one candle.
func (e *Engine) Snapshot(symbol string, tf types.Timeframe) (types.IndicatorSnapshot, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, ok := e.series[seriesKey{symbol: symbol, tf: tf}]
	if !ok || !s.hasSnapshot {
		return types.IndicatorSnapshot{}, false
	}

	return s.snapshot, true
}

// Snapshots returns the latest snapshot of every watched timeframe for a
// symbol, in watch order, skipping series that have not closed a candle yet.
func (e *Engine) Snapshots(symbol string) []types.IndicatorSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []types.IndicatorSnapshot

	for _, tf := range e.watched[symbol] {
		s := e.series[seriesKey{symbol: symbol, tf: tf}]
		if s.hasSnapshot {
			out = append(out, s.snapshot)
		}
	}

	return out
}

// CandleCount returns how many closed candles a series currently holds.
func (e *Engine) CandleCount(symbol string, tf types.Timeframe) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, ok := e.series[seriesKey{symbol: symbol, tf: tf}]
	if !ok {
		return 0
	}

	return s.window.Len()
}
