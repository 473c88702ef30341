package strategy

import (
	"math"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// Saturation spans for the relative-gap votes, as fractions of the
// reference average. A gap at or beyond the span votes a full +-1.
const (
	maCrossSaturation = 0.005
	trendSaturation   = 0.01
)

// A voteFunc maps one snapshot to a normalized vote in [-1,+1]. The boolean
// is false when the inputs the vote needs are absent, in which case the vote
// contributes nothing to the aggregate.
type voteFunc func(cfg Config, snap types.IndicatorSnapshot) (float64, bool)

var voteFuncs = map[string]voteFunc{
	VoteRSI:        rsiVote,
	VoteMACross:    maCrossVote,
	VoteTrend:      trendVote,
	VoteMACD:       macdVote,
	VoteBollinger:  bollingerVote,
	VoteStochastic: stochasticVote,
	VotePattern:    patternVote,
}

func rsiVote(cfg Config, snap types.IndicatorSnapshot) (float64, bool) {
	value, err := snap.RSI.Take()
	if err != nil {
		return 0, false
	}

	return bandVote(value, cfg.RSIOversold, cfg.RSIOverbought), true
}

func stochasticVote(cfg Config, snap types.IndicatorSnapshot) (float64, bool) {
	value, err := snap.Stochastic.Take()
	if err != nil {
		return 0, false
	}

	return bandVote(value.K, cfg.StochasticOversold, cfg.StochasticOverbought), true
}

func maCrossVote(_ Config, snap types.IndicatorSnapshot) (float64, bool) {
	fast, err := snap.FastSMA.Take()
	if err != nil {
		return 0, false
	}

	slow, err := snap.SMA.Take()
	if err != nil || slow <= 0 {
		return 0, false
	}

	return clamp((fast-slow)/(slow*maCrossSaturation), -1, 1), true
}

func trendVote(_ Config, snap types.IndicatorSnapshot) (float64, bool) {
	trend, err := snap.TrendSMA.Take()
	if err != nil || trend <= 0 {
		return 0, false
	}

	return clamp((snap.Close-trend)/(trend*trendSaturation), -1, 1), true
}

func macdVote(_ Config, snap types.IndicatorSnapshot) (float64, bool) {
	value, err := snap.MACD.Take()
	if err != nil {
		return 0, false
	}

	if value.Signal == 0 {
		return signOf(value.Histogram), true
	}

	return clamp(value.Histogram/math.Abs(value.Signal), -1, 1), true
}

func bollingerVote(_ Config, snap types.IndicatorSnapshot) (float64, bool) {
	value, err := snap.Bollinger.Take()
	if err != nil {
		return 0, false
	}

	width := value.Upper - value.Lower
	if width <= 0 {
		return 0, true
	}

	switch {
	case snap.Close <= value.Lower:
		return 1, true
	case snap.Close >= value.Upper:
		return -1, true
	}

	// Linear position between the bands: lower band +1, mid 0, upper -1.
	return (value.Upper + value.Lower - 2*snap.Close) / width, true
}

func patternVote(cfg Config, snap types.IndicatorSnapshot) (float64, bool) {
	if snap.Pattern == types.PatternNone {
		return 0, false
	}

	bias, ok := cfg.PatternBias[snap.Pattern]
	if !ok {
		return 0, false
	}

	return bias, true
}

// bandVote maps an oscillator in [0,100] to a vote: +1 at or below the
// oversold band, -1 at or above the overbought band, linear in between.
func bandVote(value, oversold, overbought float64) float64 {
	switch {
	case value <= oversold:
		return 1
	case value >= overbought:
		return -1
	}

	return 1 - 2*(value-oversold)/(overbought-oversold)
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}

	return v
}

func signOf(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}

	return 0
}
