package indicator

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// BollingerBands keeps a running sum and sum of squares over the last
// period closes: mid = SMA, upper/lower = mid ± stddev multiplier times the
// population standard deviation.
type BollingerBands struct {
	period int
	stdDev float64
	values []float64
	head   int
	count  int
	sum    float64
	sumSq  float64
}

// NewBollingerBands creates a Bollinger Bands accumulator.
func NewBollingerBands(period int, stdDev float64) *BollingerBands {
	return &BollingerBands{
		period: period,
		stdDev: stdDev,
		values: make([]float64, period),
	}
}

// Name returns the indicator identifier.
func (b *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Update folds one closed candle into the running sums.
func (b *BollingerBands) Update(candle types.Candle) {
	value := candle.Close

	if b.count == b.period {
		evicted := b.values[b.head]
		b.sum -= evicted
		b.sumSq -= evicted * evicted
		b.values[b.head] = value
		b.head = (b.head + 1) % b.period
	} else {
		b.values[(b.head+b.count)%b.period] = value
		b.count++
	}

	b.sum += value
	b.sumSq += value * value
}

// Value returns the mid band, or None while warming up.
func (b *BollingerBands) Value() optional.Option[float64] {
	v := b.Current()
	if v.IsNone() {
		return optional.None[float64]()
	}

	return optional.Some(v.Unwrap().Mid)
}

// Current returns the full upper/mid/lower triple, or None while warming up.
func (b *BollingerBands) Current() optional.Option[types.BollingerValue] {
	if b.count < b.period {
		return optional.None[types.BollingerValue]()
	}

	n := float64(b.period)
	mean := b.sum / n

	variance := b.sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}

	band := b.stdDev * math.Sqrt(variance)

	return optional.Some(types.BollingerValue{
		Upper: mean + band,
		Mid:   mean,
		Lower: mean - band,
	})
}

// WarmUp returns the candles needed before Value is defined.
func (b *BollingerBands) WarmUp() int {
	return b.period
}

// Reset clears all accumulated state.
func (b *BollingerBands) Reset() {
	b.head = 0
	b.count = 0
	b.sum = 0
	b.sumSq = 0
}
