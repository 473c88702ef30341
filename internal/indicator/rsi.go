package indicator

import (
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// RSI is Wilder's relative strength index. Average gain and loss are seeded
// by plain means over the first period changes, then smoothed with
// avg = (avg*(n-1) + change) / n.
type RSI struct {
	period    int
	prevClose float64
	changes   int
	sumGain   float64
	sumLoss   float64
	avgGain   float64
	avgLoss   float64
}

// NewRSI creates a relative strength index accumulator.
func NewRSI(period int) *RSI {
	return &RSI{
		period: period,
	}
}

// Name returns the indicator identifier.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Update folds one closed candle into the smoothing recurrences.
func (r *RSI) Update(candle types.Candle) {
	price := candle.Close

	if r.changes == 0 && r.prevClose == 0 {
		r.prevClose = price
		return
	}

	change := price - r.prevClose
	r.prevClose = price

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	r.changes++

	switch {
	case r.changes < r.period:
		r.sumGain += gain
		r.sumLoss += loss
	case r.changes == r.period:
		r.sumGain += gain
		r.sumLoss += loss
		r.avgGain = r.sumGain / float64(r.period)
		r.avgLoss = r.sumLoss / float64(r.period)
	default:
		n := float64(r.period)
		r.avgGain = (r.avgGain*(n-1) + gain) / n
		r.avgLoss = (r.avgLoss*(n-1) + loss) / n
	}
}

// Value returns the RSI in [0,100], or None while fewer than period changes
// have been seen. When the average loss is zero the RSI is 100; a zero
// average gain falls out of the formula as 0.
func (r *RSI) Value() optional.Option[float64] {
	if r.changes < r.period {
		return optional.None[float64]()
	}

	if r.avgLoss == 0 {
		return optional.Some(100.0)
	}

	rs := r.avgGain / r.avgLoss

	return optional.Some(100.0 - 100.0/(1.0+rs))
}

// WarmUp returns the candles needed before Value is defined: period changes
// require period+1 closes.
func (r *RSI) WarmUp() int {
	return r.period + 1
}

// Reset clears all accumulated state.
func (r *RSI) Reset() {
	r.prevClose = 0
	r.changes = 0
	r.sumGain = 0
	r.sumLoss = 0
	r.avgGain = 0
	r.avgLoss = 0
}
