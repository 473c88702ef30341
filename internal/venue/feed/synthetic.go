package feed

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-pilot/internal/config"
	"github.com/rxtech-lab/argo-pilot/internal/types"
	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

// volatility is the per-step price movement of the synthetic walk,
// roughly 0.2% per tick.
const volatility = 0.002

// walk is one symbol's geometric Brownian motion. Price changes use the
// Box-Muller transform for normally distributed steps.
type walk struct {
	rng   *rand.Rand
	price float64
}

func newWalk(seed int64, start float64) *walk {
	return &walk{
		rng:   rand.New(rand.NewSource(seed)),
		price: start,
	}
}

// step advances the walk by one observation and returns the new price.
func (w *walk) step() float64 {
	u1 := w.rng.Float64()
	u2 := w.rng.Float64()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

	next := w.price * (1 + volatility*z)
	if next <= 0 {
		next = w.price * 0.99
	}

	w.price = roundToDecimals(next, 4)

	return w.price
}

// extension returns a random high/low overshoot beyond the open-close range.
func (w *walk) extension() float64 {
	return math.Abs(w.rng.Float64() * volatility * w.price * 0.5)
}

// Synthetic is a seeded random-walk feed. The same seed and call sequence
// reproduce the same prices, which makes dry runs repeatable.
type Synthetic struct {
	symbols  []string
	interval time.Duration

	mu    sync.Mutex
	walks map[string]*walk
}

// NewSynthetic builds a walk per symbol. Each symbol derives its own seed
// from the configured one so the series stay independent.
func NewSynthetic(symbols []string, cfg config.PaperConfig) *Synthetic {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	walks := make(map[string]*walk, len(sorted))
	for i, symbol := range sorted {
		walks[symbol] = newWalk(cfg.Seed+int64(i), cfg.StartPrice)
	}

	return &Synthetic{
		symbols:  sorted,
		interval: cfg.TickInterval(),
		walks:    walks,
	}
}

// History generates count candles ending at the current bucket and leaves
// the walk positioned at the final close, so the live stream continues the
// series without a price jump.
func (s *Synthetic) History(_ context.Context, symbol string, tf types.Timeframe, count int) ([]types.Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.walkFor(symbol)
	if err != nil {
		return nil, err
	}

	start := types.BucketStart(time.Now().UTC(), tf).Add(-time.Duration(count) * tf.Duration())
	candles := make([]types.Candle, 0, count)

	for i := 0; i < count; i++ {
		open := w.price
		closePx := w.step()
		high := roundToDecimals(math.Max(open, closePx)+w.extension(), 4)
		low := roundToDecimals(math.Min(open, closePx)-w.extension(), 4)

		if low <= 0 {
			low = roundToDecimals(math.Min(open, closePx)*0.99, 4)
		}

		bucket := start.Add(time.Duration(i) * tf.Duration())
		candles = append(candles, types.Candle{
			Symbol:    symbol,
			Timeframe: tf,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePx,
			Start:     bucket,
			End:       bucket.Add(tf.Duration()),
		})
	}

	return candles, nil
}

// Start emits one tick per symbol per interval until ctx is cancelled.
func (s *Synthetic) Start(ctx context.Context) (<-chan types.Tick, error) {
	out := make(chan types.Tick)

	go func() {
		defer close(out)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, symbol := range s.symbols {
					tick := types.Tick{
						Symbol: symbol,
						Price:  s.stepSymbol(symbol),
						Time:   time.Now().UTC(),
					}

					select {
					case out <- tick:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out, nil
}

func (s *Synthetic) stepSymbol(symbol string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.walks[symbol]

	return w.step()
}

func (s *Synthetic) walkFor(symbol string) (*walk, error) {
	w, ok := s.walks[symbol]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeSubscribeFailed, "symbol %s is not part of this feed", symbol)
	}

	return w, nil
}

// roundToDecimals rounds a price to the given number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
