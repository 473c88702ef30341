package indicator

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// ADX is Wilder's average directional index, the strategy's measure of
// directional energy: directional movement and true range smooth with
// Wilder's running sums, the DX series derives from the two directional
// indicators, and the ADX itself is the Wilder-smoothed DX.
type ADX struct {
	period    int
	prevHigh  float64
	prevLow   float64
	prevClose float64
	samples   int
	smTR      float64
	smPlusDM  float64
	smMinusDM float64
	dxCount   int
	dxSum     float64
	value     float64
}

// NewADX creates an average directional index accumulator.
func NewADX(period int) *ADX {
	return &ADX{
		period: period,
	}
}

// Name returns the indicator identifier.
func (a *ADX) Name() types.IndicatorType {
	return types.IndicatorTypeADX
}

// Update folds one closed candle into the directional recurrences.
func (a *ADX) Update(candle types.Candle) {
	if a.prevClose == 0 {
		a.prevHigh = candle.High
		a.prevLow = candle.Low
		a.prevClose = candle.Close

		return
	}

	upMove := candle.High - a.prevHigh
	downMove := a.prevLow - candle.Low

	plusDM, minusDM := 0.0, 0.0
	if upMove > downMove && upMove > 0 {
		plusDM = upMove
	}

	if downMove > upMove && downMove > 0 {
		minusDM = downMove
	}

	tr := math.Max(candle.High-candle.Low, math.Max(
		math.Abs(candle.High-a.prevClose),
		math.Abs(candle.Low-a.prevClose),
	))

	a.prevHigh = candle.High
	a.prevLow = candle.Low
	a.prevClose = candle.Close

	a.samples++

	n := float64(a.period)
	if a.samples <= a.period {
		a.smTR += tr
		a.smPlusDM += plusDM
		a.smMinusDM += minusDM

		if a.samples < a.period {
			return
		}
	} else {
		a.smTR = a.smTR - a.smTR/n + tr
		a.smPlusDM = a.smPlusDM - a.smPlusDM/n + plusDM
		a.smMinusDM = a.smMinusDM - a.smMinusDM/n + minusDM
	}

	plusDI, minusDI := 0.0, 0.0
	if a.smTR > 0 {
		plusDI = 100.0 * a.smPlusDM / a.smTR
		minusDI = 100.0 * a.smMinusDM / a.smTR
	}

	dx := 0.0
	if plusDI+minusDI > 0 {
		dx = 100.0 * math.Abs(plusDI-minusDI) / (plusDI + minusDI)
	}

	switch {
	case a.dxCount < a.period-1:
		a.dxSum += dx
		a.dxCount++
	case a.dxCount == a.period-1:
		a.dxSum += dx
		a.dxCount++
		a.value = a.dxSum / n
	default:
		a.value = (a.value*(n-1) + dx) / n
	}
}

// Value returns the current ADX in [0,100], or None while warming up.
func (a *ADX) Value() optional.Option[float64] {
	if a.dxCount < a.period {
		return optional.None[float64]()
	}

	return optional.Some(a.value)
}

// WarmUp returns the candles needed before Value is defined: period
// directional samples for the first DX, then period DX values for the
// first ADX.
func (a *ADX) WarmUp() int {
	return 2 * a.period
}

// Reset clears all accumulated state.
func (a *ADX) Reset() {
	a.prevHigh = 0
	a.prevLow = 0
	a.prevClose = 0
	a.samples = 0
	a.smTR = 0
	a.smPlusDM = 0
	a.smMinusDM = 0
	a.dxCount = 0
	a.dxSum = 0
	a.value = 0
}
