package indicator

import (
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// Stochastic is the stochastic oscillator: %K positions the close between
// the lowest low and highest high of the last period candles, %D smooths %K
// with a short simple average. The high/low extremes come from a scan of
// the small per-period rings.
type Stochastic struct {
	period int
	highs  []float64
	lows   []float64
	head   int
	count  int
	d      *SMA
	k      float64
}

// NewStochastic creates a stochastic oscillator accumulator.
func NewStochastic(period, smooth int) *Stochastic {
	return &Stochastic{
		period: period,
		highs:  make([]float64, period),
		lows:   make([]float64, period),
		d:      NewSMA(smooth),
	}
}

// Name returns the indicator identifier.
func (s *Stochastic) Name() types.IndicatorType {
	return types.IndicatorTypeStochastic
}

// Update folds one closed candle into the rings and, once full, into %K/%D.
func (s *Stochastic) Update(candle types.Candle) {
	idx := (s.head + s.count) % s.period
	if s.count == s.period {
		idx = s.head
		s.head = (s.head + 1) % s.period
	} else {
		s.count++
	}

	s.highs[idx] = candle.High
	s.lows[idx] = candle.Low

	if s.count < s.period {
		return
	}

	highest, lowest := s.highs[0], s.lows[0]
	for i := 1; i < s.period; i++ {
		if s.highs[i] > highest {
			highest = s.highs[i]
		}

		if s.lows[i] < lowest {
			lowest = s.lows[i]
		}
	}

	// A flat window has no span to position the close in; treat it as
	// mid-range rather than dividing by zero.
	if highest == lowest {
		s.k = 50.0
	} else {
		s.k = 100.0 * (candle.Close - lowest) / (highest - lowest)
	}

	s.d.UpdateValue(s.k)
}

// Value returns %K, or None while warming up.
func (s *Stochastic) Value() optional.Option[float64] {
	v := s.Current()
	if v.IsNone() {
		return optional.None[float64]()
	}

	return optional.Some(v.Unwrap().K)
}

// Current returns the %K/%D pair, or None until %D has enough smoothed
// samples.
func (s *Stochastic) Current() optional.Option[types.StochasticValue] {
	d := s.d.Value()
	if s.count < s.period || d.IsNone() {
		return optional.None[types.StochasticValue]()
	}

	return optional.Some(types.StochasticValue{
		K: s.k,
		D: d.Unwrap(),
	})
}

// WarmUp returns the candles needed before Value is defined.
func (s *Stochastic) WarmUp() int {
	return s.period + s.d.WarmUp() - 1
}

// Reset clears all accumulated state.
func (s *Stochastic) Reset() {
	s.head = 0
	s.count = 0
	s.k = 0
	s.d.Reset()
}
