// Package indicator maintains rolling per-symbol candle windows and derives
// technical indicator values incrementally. Every indicator is a streaming
// accumulator: one Update per closed candle, O(1) state, no full-history
// recomputation. Values are absent (None) until the accumulator has seen
// enough candles.
package indicator

import (
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// Indicator is a streaming accumulator over closed candles for one
// (symbol, timeframe) series.
type Indicator interface {
	// Name returns the indicator identifier.
	Name() types.IndicatorType
	// Update folds one closed candle into the accumulator state. Candles
	// must arrive in chronological order.
	Update(candle types.Candle)
	// Value returns the current scalar value, or None while warming up.
	// Composite indicators additionally expose typed getters on their
	// concrete type.
	Value() optional.Option[float64]
	// WarmUp returns the number of closed candles required before Value
	// is defined.
	WarmUp() int
	// Reset clears all accumulated state.
	Reset()
}
