package indicator

import (
	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// Window is a fixed-capacity ring buffer of closed candles in chronological
// order. When full, pushing a candle evicts the oldest one.
type Window struct {
	candles []types.Candle
	head    int
	count   int
}

// NewWindow creates a window holding at most capacity candles.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 1
	}

	return &Window{
		candles: make([]types.Candle, capacity),
	}
}

// Push appends a candle, evicting the oldest when the window is full.
func (w *Window) Push(candle types.Candle) {
	idx := (w.head + w.count) % len(w.candles)
	w.candles[idx] = candle

	if w.count < len(w.candles) {
		w.count++
		return
	}

	w.head = (w.head + 1) % len(w.candles)
}

// Len returns the number of candles currently held.
func (w *Window) Len() int {
	return w.count
}

// Capacity returns the maximum number of candles the window can hold.
func (w *Window) Capacity() int {
	return len(w.candles)
}

// At returns the candle at index i, where 0 is the oldest held candle and
// Len()-1 the newest.
func (w *Window) At(i int) types.Candle {
	return w.candles[(w.head+i)%len(w.candles)]
}

// Newest returns the most recently pushed candle.
func (w *Window) Newest() (types.Candle, bool) {
	if w.count == 0 {
		return types.Candle{}, false
	}

	return w.At(w.count - 1), true
}

// Last copies the newest k candles in chronological order. It returns fewer
// when the window holds fewer.
func (w *Window) Last(k int) []types.Candle {
	if k > w.count {
		k = w.count
	}

	out := make([]types.Candle, k)
	for i := 0; i < k; i++ {
		out[i] = w.At(w.count - k + i)
	}

	return out
}

// Reset drops all held candles.
func (w *Window) Reset() {
	w.head = 0
	w.count = 0
}
