package indicator

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// ATR is Wilder's average true range. The first true range is the first
// candle's high-low span; later ones include the gap from the previous
// close. The average seeds as a plain mean over the first period ranges,
// then smooths with atr = (atr*(n-1) + tr) / n.
type ATR struct {
	period    int
	prevClose float64
	ranges    int
	sum       float64
	value     float64
}

// NewATR creates an average true range accumulator.
func NewATR(period int) *ATR {
	return &ATR{
		period: period,
	}
}

// Name returns the indicator identifier.
func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Update folds one closed candle into the smoothing recurrence.
func (a *ATR) Update(candle types.Candle) {
	tr := candle.High - candle.Low
	if a.ranges > 0 || a.prevClose > 0 {
		tr = math.Max(tr, math.Max(
			math.Abs(candle.High-a.prevClose),
			math.Abs(candle.Low-a.prevClose),
		))
	}

	a.prevClose = candle.Close
	a.ranges++

	switch {
	case a.ranges < a.period:
		a.sum += tr
	case a.ranges == a.period:
		a.sum += tr
		a.value = a.sum / float64(a.period)
	default:
		n := float64(a.period)
		a.value = (a.value*(n-1) + tr) / n
	}
}

// Value returns the current ATR, or None while fewer than period ranges
// have been seen.
func (a *ATR) Value() optional.Option[float64] {
	if a.ranges < a.period {
		return optional.None[float64]()
	}

	return optional.Some(a.value)
}

// WarmUp returns the candles needed before Value is defined.
func (a *ATR) WarmUp() int {
	return a.period
}

// Reset clears all accumulated state.
func (a *ATR) Reset() {
	a.prevClose = 0
	a.ranges = 0
	a.sum = 0
	a.value = 0
}
