// Package feed provides the price sources that drive the paper venue: a
// seeded synthetic random walk for deterministic dry runs and a live
// binance kline stream for realistic ones.
package feed

import (
	"context"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// Feed streams prices for a fixed set of symbols.
type Feed interface {
	// History returns count candles of tf for symbol ending at the
	// current bucket, oldest first. Sources that synthesize prices also
	// align their live stream with the end of the returned series.
	History(ctx context.Context, symbol string, tf types.Timeframe, count int) ([]types.Candle, error)

	// Start begins emitting ticks on the returned channel. The channel
	// closes once ctx is cancelled and the source has shut down. Start
	// is called at most once per feed.
	Start(ctx context.Context) (<-chan types.Tick, error)
}
