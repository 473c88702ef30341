package types

import (
	"time"

	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

// Timeframe is the bucket width used to aggregate ticks into candles.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe30m Timeframe = "30m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
)

var timeframeDurations = map[Timeframe]time.Duration{
	Timeframe1m:  time.Minute,
	Timeframe5m:  5 * time.Minute,
	Timeframe15m: 15 * time.Minute,
	Timeframe30m: 30 * time.Minute,
	Timeframe1h:  time.Hour,
	Timeframe4h:  4 * time.Hour,
	Timeframe1d:  24 * time.Hour,
}

// ParseTimeframe converts a config string such as "5m" into a Timeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if _, ok := timeframeDurations[tf]; !ok {
		return "", errors.Newf(errors.ErrCodeInvalidTimeframe, "unknown timeframe %q", s)
	}

	return tf, nil
}

// Duration returns the bucket width as a time.Duration.
func (t Timeframe) Duration() time.Duration {
	return timeframeDurations[t]
}

// Granularity returns the bucket width in seconds, the unit the venue wire
// protocol uses for candle subscriptions.
func (t Timeframe) Granularity() int {
	return int(timeframeDurations[t] / time.Second)
}

// Validate reports whether the timeframe is one of the supported buckets.
func (t Timeframe) Validate() error {
	_, err := ParseTimeframe(string(t))

	return err
}

// Tick is one price observation for a symbol. Ticks are immutable once
// received and are only ever appended to per-symbol windows.
type Tick struct {
	Symbol string    `yaml:"symbol" json:"symbol"`
	Price  float64   `yaml:"price" json:"price"`
	Time   time.Time `yaml:"time" json:"time"`
}

// Validate rejects malformed ticks so a bad payload for one symbol never
// reaches the indicator windows.
func (t Tick) Validate() error {
	if t.Symbol == "" {
		return errors.New(errors.ErrCodeMalformedTick, "tick has empty symbol")
	}

	if t.Price <= 0 {
		return errors.Newf(errors.ErrCodeMalformedTick, "tick for %s has non-positive price %f", t.Symbol, t.Price)
	}

	if t.Time.IsZero() {
		return errors.Newf(errors.ErrCodeMalformedTick, "tick for %s has zero timestamp", t.Symbol)
	}

	return nil
}

// Candle is the OHLC aggregate of ticks inside one timeframe bucket.
// A candle is mutable while forming and immutable once its bucket elapses.
type Candle struct {
	Symbol    string    `yaml:"symbol" json:"symbol"`
	Timeframe Timeframe `yaml:"timeframe" json:"timeframe"`
	Open      float64   `yaml:"open" json:"open"`
	High      float64   `yaml:"high" json:"high"`
	Low       float64   `yaml:"low" json:"low"`
	Close     float64   `yaml:"close" json:"close"`
	Start     time.Time `yaml:"start" json:"start"`
	End       time.Time `yaml:"end" json:"end"`
}

// BucketStart truncates a timestamp to the start of its timeframe bucket.
// Buckets are aligned to the Unix epoch, so 1d candles start at UTC midnight.
func BucketStart(ts time.Time, tf Timeframe) time.Time {
	return ts.Truncate(tf.Duration())
}

// NewCandleFromTick opens a fresh candle in the tick's bucket.
func NewCandleFromTick(tick Tick, tf Timeframe) Candle {
	start := BucketStart(tick.Time, tf)

	return Candle{
		Symbol:    tick.Symbol,
		Timeframe: tf,
		Open:      tick.Price,
		High:      tick.Price,
		Low:       tick.Price,
		Close:     tick.Price,
		Start:     start,
		End:       start.Add(tf.Duration()),
	}
}

// ApplyTick folds one more observation into a forming candle.
func (c *Candle) ApplyTick(tick Tick) {
	if tick.Price > c.High {
		c.High = tick.Price
	}

	if tick.Price < c.Low {
		c.Low = tick.Price
	}

	c.Close = tick.Price
}

// Contains reports whether the timestamp falls inside this candle's bucket.
func (c Candle) Contains(ts time.Time) bool {
	return !ts.Before(c.Start) && ts.Before(c.End)
}

// IsBullish reports whether the candle closed above its open.
func (c Candle) IsBullish() bool {
	return c.Close > c.Open
}

// IsBearish reports whether the candle closed below its open.
func (c Candle) IsBearish() bool {
	return c.Close < c.Open
}

// Validate rejects candles with impossible shapes before they enter a window.
func (c Candle) Validate() error {
	if c.Symbol == "" {
		return errors.New(errors.ErrCodeMalformedCandle, "candle has empty symbol")
	}

	if err := c.Timeframe.Validate(); err != nil {
		return errors.Wrapf(errors.ErrCodeMalformedCandle, err, "candle for %s has invalid timeframe", c.Symbol)
	}

	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return errors.Newf(errors.ErrCodeMalformedCandle, "candle for %s has non-positive price", c.Symbol)
	}

	if c.High < c.Low {
		return errors.Newf(errors.ErrCodeMalformedCandle, "candle for %s has high %f below low %f", c.Symbol, c.High, c.Low)
	}

	if c.High < c.Open || c.High < c.Close || c.Low > c.Open || c.Low > c.Close {
		return errors.Newf(errors.ErrCodeMalformedCandle, "candle for %s has open/close outside high/low range", c.Symbol)
	}

	if c.Start.IsZero() {
		return errors.Newf(errors.ErrCodeMalformedCandle, "candle for %s has zero start time", c.Symbol)
	}

	return nil
}
