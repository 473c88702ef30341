package indicator

import (
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// SMA is a simple moving average over the last period closes, maintained
// with a running sum over a small ring of values.
type SMA struct {
	period int
	values []float64
	head   int
	count  int
	sum    float64
}

// NewSMA creates a simple moving average accumulator.
func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		values: make([]float64, period),
	}
}

// Name returns the indicator identifier.
func (s *SMA) Name() types.IndicatorType {
	return types.IndicatorTypeSMA
}

// Update folds one closed candle into the running sum.
func (s *SMA) Update(candle types.Candle) {
	s.UpdateValue(candle.Close)
}

// UpdateValue folds a raw value; MACD and the stochastic %D line reuse the
// accumulator over derived series.
func (s *SMA) UpdateValue(value float64) {
	if s.count == s.period {
		s.sum -= s.values[s.head]
		s.values[s.head] = value
		s.head = (s.head + 1) % s.period
	} else {
		s.values[(s.head+s.count)%s.period] = value
		s.count++
	}

	s.sum += value
}

// Value returns the mean of the last period values, or None while fewer
// values have been seen.
func (s *SMA) Value() optional.Option[float64] {
	if s.count < s.period {
		return optional.None[float64]()
	}

	return optional.Some(s.sum / float64(s.period))
}

// WarmUp returns the candles needed before Value is defined.
func (s *SMA) WarmUp() int {
	return s.period
}

// Reset clears all accumulated state.
func (s *SMA) Reset() {
	s.head = 0
	s.count = 0
	s.sum = 0
}
