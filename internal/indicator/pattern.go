package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// Pattern thresholds, expressed as fractions of the candle's full range.
const (
	dojiBodyMax   = 0.1
	wickBodyRatio = 2.0
	smallBodyMax  = 0.3
)

// ClassifyPattern labels the candlestick shape formed by the tail of the
// window. It is a pure function: two-candle engulfing shapes win over
// single-candle ones, and anything ambiguous is PatternNone.
func ClassifyPattern(candles []types.Candle) types.PatternType {
	if len(candles) == 0 {
		return types.PatternNone
	}

	current := candles[len(candles)-1]

	if len(candles) >= 2 {
		if p := classifyEngulfing(candles[len(candles)-2], current); p != types.PatternNone {
			return p
		}
	}

	return classifySingle(current)
}

func classifyEngulfing(prev, current types.Candle) types.PatternType {
	if prev.IsBearish() && current.IsBullish() &&
		current.Open < prev.Close && current.Close > prev.Open {
		return types.PatternBullishEngulfing
	}

	if prev.IsBullish() && current.IsBearish() &&
		current.Open > prev.Close && current.Close < prev.Open {
		return types.PatternBearishEngulfing
	}

	return types.PatternNone
}

func classifySingle(c types.Candle) types.PatternType {
	fullRange := c.High - c.Low
	if fullRange <= 0 {
		return types.PatternNone
	}

	body := math.Abs(c.Close - c.Open)
	upperWick := c.High - math.Max(c.Open, c.Close)
	lowerWick := math.Min(c.Open, c.Close) - c.Low

	if body < dojiBodyMax*fullRange {
		return types.PatternDoji
	}

	if body < smallBodyMax*fullRange && lowerWick > wickBodyRatio*body && upperWick < body {
		return types.PatternHammer
	}

	if body < smallBodyMax*fullRange && upperWick > wickBodyRatio*body && lowerWick < body {
		return types.PatternShootingStar
	}

	return types.PatternNone
}
