package indicator

import (
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// EMA is an exponential moving average with smoothing factor k = 2/(n+1),
// seeded by the simple average of the first n values.
type EMA struct {
	period  int
	alpha   float64
	seedSum float64
	count   int
	value   float64
}

// NewEMA creates an exponential moving average accumulator.
func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		alpha:  2.0 / (float64(period) + 1.0),
	}
}

// Name returns the indicator identifier.
func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Update folds one closed candle into the recurrence.
func (e *EMA) Update(candle types.Candle) {
	e.UpdateValue(candle.Close)
}

// UpdateValue folds a raw value; MACD reuses the accumulator over its own
// derived line.
func (e *EMA) UpdateValue(value float64) {
	e.count++

	if e.count < e.period {
		e.seedSum += value
		return
	}

	if e.count == e.period {
		e.seedSum += value
		e.value = e.seedSum / float64(e.period)

		return
	}

	e.value = value*e.alpha + e.value*(1-e.alpha)
}

// Value returns the current EMA, or None during the seed phase.
func (e *EMA) Value() optional.Option[float64] {
	if e.count < e.period {
		return optional.None[float64]()
	}

	return optional.Some(e.value)
}

// WarmUp returns the candles needed before Value is defined.
func (e *EMA) WarmUp() int {
	return e.period
}

// Reset clears all accumulated state.
func (e *EMA) Reset() {
	e.seedSum = 0
	e.count = 0
	e.value = 0
}
