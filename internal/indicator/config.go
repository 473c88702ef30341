package indicator

import (
	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

// Config holds the periods of every indicator the engine computes. It is
// embedded in the top-level agent configuration.
type Config struct {
	FastSMAPeriod int `yaml:"fast_sma_period" json:"fast_sma_period" validate:"required,gt=0" jsonschema:"description=Fast moving average period for crossover votes"`
	SlowSMAPeriod int `yaml:"slow_sma_period" json:"slow_sma_period" validate:"required,gt=0" jsonschema:"description=Slow moving average period for crossover votes"`
	// TrendSMAPeriod is the long average the trend vote compares price against.
	TrendSMAPeriod int `yaml:"trend_sma_period" json:"trend_sma_period" validate:"required,gt=0"`
	EMAPeriod      int `yaml:"ema_period" json:"ema_period" validate:"required,gt=0"`
	RSIPeriod      int `yaml:"rsi_period" json:"rsi_period" validate:"required,gt=0"`

	MACDFastPeriod   int `yaml:"macd_fast_period" json:"macd_fast_period" validate:"required,gt=0"`
	MACDSlowPeriod   int `yaml:"macd_slow_period" json:"macd_slow_period" validate:"required,gt=0"`
	MACDSignalPeriod int `yaml:"macd_signal_period" json:"macd_signal_period" validate:"required,gt=0"`

	BollingerPeriod int     `yaml:"bollinger_period" json:"bollinger_period" validate:"required,gt=0"`
	BollingerStdDev float64 `yaml:"bollinger_stddev" json:"bollinger_stddev" validate:"required,gt=0"`

	ATRPeriod        int `yaml:"atr_period" json:"atr_period" validate:"required,gt=0"`
	StochasticPeriod int `yaml:"stochastic_period" json:"stochastic_period" validate:"required,gt=0"`
	StochasticSmooth int `yaml:"stochastic_smooth" json:"stochastic_smooth" validate:"required,gt=0"`
	ADXPeriod        int `yaml:"adx_period" json:"adx_period" validate:"required,gt=0"`
}

// DefaultConfig returns the stock indicator periods.
func DefaultConfig() Config {
	return Config{
		FastSMAPeriod:    5,
		SlowSMAPeriod:    13,
		TrendSMAPeriod:   50,
		EMAPeriod:        9,
		RSIPeriod:        14,
		MACDFastPeriod:   12,
		MACDSlowPeriod:   26,
		MACDSignalPeriod: 9,
		BollingerPeriod:  20,
		BollingerStdDev:  2.0,
		ATRPeriod:        14,
		StochasticPeriod: 14,
		StochasticSmooth: 3,
		ADXPeriod:        14,
	}
}

// Validate checks the period relationships the accumulators rely on.
func (c Config) Validate() error {
	if c.FastSMAPeriod <= 0 || c.SlowSMAPeriod <= 0 || c.TrendSMAPeriod <= 0 ||
		c.EMAPeriod <= 0 || c.RSIPeriod <= 0 ||
		c.MACDFastPeriod <= 0 || c.MACDSlowPeriod <= 0 || c.MACDSignalPeriod <= 0 ||
		c.BollingerPeriod <= 0 || c.ATRPeriod <= 0 ||
		c.StochasticPeriod <= 0 || c.StochasticSmooth <= 0 || c.ADXPeriod <= 0 {
		return errors.New(errors.ErrCodeInvalidPeriod, "indicator periods must be positive")
	}

	if c.BollingerStdDev <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "bollinger stddev multiplier must be positive, got %f", c.BollingerStdDev)
	}

	if c.FastSMAPeriod >= c.SlowSMAPeriod {
		return errors.Newf(errors.ErrCodeInvalidPeriod,
			"fast sma period %d must be shorter than slow sma period %d", c.FastSMAPeriod, c.SlowSMAPeriod)
	}

	if c.MACDFastPeriod >= c.MACDSlowPeriod {
		return errors.Newf(errors.ErrCodeInvalidPeriod,
			"macd fast period %d must be shorter than slow period %d", c.MACDFastPeriod, c.MACDSlowPeriod)
	}

	return nil
}

// MaxWarmUp returns the largest number of closed candles any configured
// indicator needs before it produces a value. The candle window must hold at
// least this many candles for snapshots to ever become complete.
func (c Config) MaxWarmUp() int {
	warmUps := []int{
		c.TrendSMAPeriod,
		c.SlowSMAPeriod,
		c.EMAPeriod,
		c.RSIPeriod + 1,
		c.MACDSlowPeriod + c.MACDSignalPeriod - 1,
		c.BollingerPeriod,
		c.ATRPeriod,
		c.StochasticPeriod + c.StochasticSmooth - 1,
		2 * c.ADXPeriod,
	}

	longest := 0
	for _, w := range warmUps {
		if w > longest {
			longest = w
		}
	}

	return longest
}
