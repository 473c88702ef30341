package strategy

import (
	"github.com/rxtech-lab/argo-pilot/internal/types"
	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

// Vote names, used as weight keys in configuration and as diagnostic keys
// on emitted signals.
const (
	VoteRSI        = "rsi"
	VoteMACross    = "ma_cross"
	VoteTrend      = "trend"
	VoteMACD       = "macd"
	VoteBollinger  = "bollinger"
	VoteStochastic = "stochastic"
	VotePattern    = "pattern"
)

// voteNames fixes the evaluation order so that aggregation is deterministic
// down to floating point.
var voteNames = []string{
	VoteRSI,
	VoteMACross,
	VoteTrend,
	VoteMACD,
	VoteBollinger,
	VoteStochastic,
	VotePattern,
}

// Config holds the tunable parameters of the signal aggregator: per-vote
// weights, oscillator bands, the ranging gate and the pattern bias table.
type Config struct {
	// Weights maps vote names to non-negative weights. Unknown names are
	// rejected at validation time rather than silently ignored.
	Weights map[string]float64 `yaml:"weights" json:"weights" jsonschema:"description=Per-indicator vote weights"`

	RSIOversold   float64 `yaml:"rsi_oversold" json:"rsi_oversold" validate:"gte=0,lte=100"`
	RSIOverbought float64 `yaml:"rsi_overbought" json:"rsi_overbought" validate:"gte=0,lte=100"`

	StochasticOversold   float64 `yaml:"stochastic_oversold" json:"stochastic_oversold" validate:"gte=0,lte=100"`
	StochasticOverbought float64 `yaml:"stochastic_overbought" json:"stochastic_overbought" validate:"gte=0,lte=100"`

	// ADXRangingThreshold forces direction to NONE while the market shows
	// no directional energy. Zero disables the gate.
	ADXRangingThreshold float64 `yaml:"adx_ranging_threshold" json:"adx_ranging_threshold" validate:"gte=0,lte=100"`

	// PatternBias maps candlestick labels to directional votes in [-1,1].
	PatternBias map[types.PatternType]float64 `yaml:"pattern_bias" json:"pattern_bias"`
}

// DefaultConfig returns the stock aggregator parameters.
func DefaultConfig() Config {
	return Config{
		Weights: map[string]float64{
			VotePattern:    3.5,
			VoteRSI:        3.0,
			VoteMACross:    2.5,
			VoteMACD:       2.0,
			VoteStochastic: 2.0,
			VoteTrend:      1.5,
			VoteBollinger:  1.0,
		},
		RSIOversold:          30,
		RSIOverbought:        70,
		StochasticOversold:   20,
		StochasticOverbought: 80,
		ADXRangingThreshold:  25,
		PatternBias: map[types.PatternType]float64{
			types.PatternHammer:           1,
			types.PatternBullishEngulfing: 1,
			types.PatternShootingStar:     -1,
			types.PatternBearishEngulfing: -1,
			types.PatternDoji:             0,
		},
	}
}

// Validate checks band ordering, weight keys and bias bounds.
func (c Config) Validate() error {
	if c.RSIOversold >= c.RSIOverbought {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"rsi oversold %.1f must be below overbought %.1f", c.RSIOversold, c.RSIOverbought)
	}

	if c.StochasticOversold >= c.StochasticOverbought {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"stochastic oversold %.1f must be below overbought %.1f", c.StochasticOversold, c.StochasticOverbought)
	}

	if c.ADXRangingThreshold < 0 || c.ADXRangingThreshold > 100 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"adx ranging threshold %.1f must be within [0,100]", c.ADXRangingThreshold)
	}

	known := make(map[string]bool, len(voteNames))
	for _, name := range voteNames {
		known[name] = true
	}

	for name, weight := range c.Weights {
		if !known[name] {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown vote weight %q", name)
		}

		if weight < 0 {
			return errors.Newf(errors.ErrCodeInvalidConfiguration,
				"weight for %q must be non-negative, got %f", name, weight)
		}
	}

	for pattern, bias := range c.PatternBias {
		if bias < -1 || bias > 1 {
			return errors.Newf(errors.ErrCodeInvalidConfiguration,
				"pattern bias for %q must be within [-1,1], got %f", pattern, bias)
		}
	}

	return nil
}

// weight returns the configured weight for a vote name, zero when unset.
func (c Config) weight(name string) float64 {
	return c.Weights[name]
}
