package types

import "time"

// Direction is the side of a signal or trade.
type Direction string

const (
	// DirectionBuy is a rise contract: the agent expects the price to go up.
	DirectionBuy Direction = "BUY"
	// DirectionSell is a fall contract: the agent expects the price to go down.
	DirectionSell Direction = "SELL"
	// DirectionNone means no actionable signal this cycle.
	DirectionNone Direction = "NONE"
)

// Signal is the fused output of one evaluation cycle for a symbol. It is
// ephemeral: recomputed on every candle close and never persisted. Identical
// snapshots always produce identical signals.
type Signal struct {
	Symbol    string    `yaml:"symbol" json:"symbol"`
	Direction Direction `yaml:"direction" json:"direction"`
	// Strength is the normalized [0,1] confidence in the direction.
	Strength float64 `yaml:"strength" json:"strength"`
	// Time is the candle close that triggered the evaluation.
	Time time.Time `yaml:"time" json:"time"`
	// Reason is a short operator-readable explanation, e.g. "market is ranging"
	// or "3 of 5 indicators bullish".
	Reason string `yaml:"reason" json:"reason"`
	// Votes records each contributing vote source's normalized vote in
	// [-1, +1] for logging and test assertions, keyed by source name
	// ("rsi", "ma_cross", "pattern", ...).
	Votes map[string]float64 `yaml:"votes" json:"votes"`
}

// Actionable reports whether the signal carries a tradable direction.
func (s Signal) Actionable() bool {
	return s.Direction != DirectionNone
}
