package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type IndicatorType string

const (
	IndicatorTypeSMA            IndicatorType = "sma"
	IndicatorTypeEMA            IndicatorType = "ema"
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeATR            IndicatorType = "atr"
	IndicatorTypeStochastic     IndicatorType = "stochastic"
	IndicatorTypeADX            IndicatorType = "adx"
	IndicatorTypePattern        IndicatorType = "pattern"
)

// MACDValue carries the three MACD series values for one candle close.
type MACDValue struct {
	Line      float64 `yaml:"line" json:"line"`
	Signal    float64 `yaml:"signal" json:"signal"`
	Histogram float64 `yaml:"histogram" json:"histogram"`
}

// BollingerValue carries the three band values for one candle close.
type BollingerValue struct {
	Upper float64 `yaml:"upper" json:"upper"`
	Mid   float64 `yaml:"mid" json:"mid"`
	Lower float64 `yaml:"lower" json:"lower"`
}

// StochasticValue carries the %K / %D oscillator pair.
type StochasticValue struct {
	K float64 `yaml:"k" json:"k"`
	D float64 `yaml:"d" json:"d"`
}

// PatternType is the categorical label of a candlestick shape. Ambiguous
// shapes classify as PatternNone rather than guessing.
type PatternType string

const (
	PatternNone             PatternType = "none"
	PatternDoji             PatternType = "doji"
	PatternHammer           PatternType = "hammer"
	PatternShootingStar     PatternType = "shooting_star"
	PatternBullishEngulfing PatternType = "bullish_engulfing"
	PatternBearishEngulfing PatternType = "bearish_engulfing"
)

// IndicatorSnapshot is the technical picture of one (symbol, timeframe) pair
// after a candle close. Values that cannot be computed yet, because the
// window holds fewer candles than the indicator period, are None rather than
// zero; consumers must treat absence as ordinary data.
type IndicatorSnapshot struct {
	Symbol    string    `yaml:"symbol" json:"symbol"`
	Timeframe Timeframe `yaml:"timeframe" json:"timeframe"`
	// Time is the close time of the candle this snapshot derives from.
	Time time.Time `yaml:"time" json:"time"`
	// Close is the close price of that candle.
	Close float64 `yaml:"close" json:"close"`

	SMA        optional.Option[float64]         `yaml:"sma" json:"sma"`
	FastSMA    optional.Option[float64]         `yaml:"fast_sma" json:"fast_sma"`
	TrendSMA   optional.Option[float64]         `yaml:"trend_sma" json:"trend_sma"`
	EMA        optional.Option[float64]         `yaml:"ema" json:"ema"`
	RSI        optional.Option[float64]         `yaml:"rsi" json:"rsi"`
	MACD       optional.Option[MACDValue]       `yaml:"macd" json:"macd"`
	Bollinger  optional.Option[BollingerValue]  `yaml:"bollinger" json:"bollinger"`
	ATR        optional.Option[float64]         `yaml:"atr" json:"atr"`
	Stochastic optional.Option[StochasticValue] `yaml:"stochastic" json:"stochastic"`
	ADX        optional.Option[float64]         `yaml:"adx" json:"adx"`

	Pattern PatternType `yaml:"pattern" json:"pattern"`
}
