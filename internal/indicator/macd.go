package indicator

import (
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// MACD is the moving average convergence/divergence indicator: the fast EMA
// minus the slow EMA as the line, an EMA of the line as the signal, and
// their difference as the histogram. The signal EMA is seeded the same way
// as every other EMA, from the simple average of its first inputs.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
}

// NewMACD creates a MACD accumulator from the three configured periods.
func NewMACD(fastPeriod, slowPeriod, signalPeriod int) *MACD {
	return &MACD{
		fast:   NewEMA(fastPeriod),
		slow:   NewEMA(slowPeriod),
		signal: NewEMA(signalPeriod),
	}
}

// Name returns the indicator identifier.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Update folds one closed candle into the underlying EMAs. The signal line
// only starts accumulating once the slow EMA is defined, so its seed uses
// genuine line values.
func (m *MACD) Update(candle types.Candle) {
	m.fast.UpdateValue(candle.Close)
	m.slow.UpdateValue(candle.Close)

	fast := m.fast.Value()
	slow := m.slow.Value()

	if fast.IsSome() && slow.IsSome() {
		m.signal.UpdateValue(fast.Unwrap() - slow.Unwrap())
	}
}

// Value returns the histogram, the scalar most consumers vote on, or None
// until the signal line is defined.
func (m *MACD) Value() optional.Option[float64] {
	v := m.Current()
	if v.IsNone() {
		return optional.None[float64]()
	}

	return optional.Some(v.Unwrap().Histogram)
}

// Current returns the full line/signal/histogram triple, or None until the
// signal line is defined.
func (m *MACD) Current() optional.Option[types.MACDValue] {
	fast := m.fast.Value()
	slow := m.slow.Value()
	signal := m.signal.Value()

	if fast.IsNone() || slow.IsNone() || signal.IsNone() {
		return optional.None[types.MACDValue]()
	}

	line := fast.Unwrap() - slow.Unwrap()
	sig := signal.Unwrap()

	return optional.Some(types.MACDValue{
		Line:      line,
		Signal:    sig,
		Histogram: line - sig,
	})
}

// WarmUp returns the candles needed before Value is defined: the slow EMA
// must seed, then the signal EMA seeds on the line values that follow.
func (m *MACD) WarmUp() int {
	return m.slow.WarmUp() + m.signal.WarmUp() - 1
}

// Reset clears all accumulated state.
func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.Reset()
}
