// Package config loads and validates the agent's configuration: a YAML
// file, overridden by PILOT_-prefixed environment variables, checked
// against the supported config schema version before anything connects.
package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-pilot/internal/indicator"
	"github.com/rxtech-lab/argo-pilot/internal/strategy"
	"github.com/rxtech-lab/argo-pilot/internal/types"
	"github.com/rxtech-lab/argo-pilot/internal/version"
	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

// VenueKind selects the trading venue implementation.
type VenueKind string

const (
	// VenueDeriv trades real contracts over the Deriv websocket API.
	VenueDeriv VenueKind = "deriv"
	// VenuePaper runs the pipeline against the in-process simulator.
	VenuePaper VenueKind = "paper"
)

// FeedKind selects the paper venue's price source.
type FeedKind string

const (
	// FeedSynthetic generates a seeded random walk.
	FeedSynthetic FeedKind = "synthetic"
	// FeedBinance streams live binance klines as the simulated price.
	FeedBinance FeedKind = "binance"
)

// DerivConfig holds the Deriv websocket endpoint parameters. The API token
// is never part of the file; it comes from the credential store.
type DerivConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint" env:"ENDPOINT" validate:"omitempty,url" jsonschema:"description=Deriv websocket endpoint"`
	AppID    string `yaml:"app_id" json:"app_id" env:"APP_ID" jsonschema:"description=Registered Deriv application id"`
}

// PaperConfig tunes the in-process venue simulator.
type PaperConfig struct {
	Feed           FeedKind `yaml:"feed" json:"feed" env:"FEED" validate:"omitempty,oneof=synthetic binance"`
	Payout         float64  `yaml:"payout" json:"payout" validate:"gt=0,lte=1" jsonschema:"description=Fraction of stake paid on a winning contract"`
	Seed           int64    `yaml:"seed" json:"seed"`
	StartPrice     float64  `yaml:"start_price" json:"start_price" validate:"gt=0"`
	TickIntervalMS int      `yaml:"tick_interval_ms" json:"tick_interval_ms" validate:"gt=0"`
}

// TickInterval returns the synthetic feed's tick spacing.
func (p PaperConfig) TickInterval() time.Duration {
	return time.Duration(p.TickIntervalMS) * time.Millisecond
}

// RiskConfig controls stake sizing. With ScaleStake off every trade uses
// the flat configured stake.
type RiskConfig struct {
	ScaleStake bool    `yaml:"scale_stake" json:"scale_stake" jsonschema:"description=Scale the stake with signal strength"`
	MinStake   float64 `yaml:"min_stake" json:"min_stake"`
	MaxStake   float64 `yaml:"max_stake" json:"max_stake"`
}

// TimeoutsConfig bounds the order lifecycle waits.
type TimeoutsConfig struct {
	AckSeconds         int `yaml:"ack_seconds" json:"ack_seconds" validate:"gt=0"`
	SettleGraceSeconds int `yaml:"settle_grace_seconds" json:"settle_grace_seconds" validate:"gt=0"`
	DrainSeconds       int `yaml:"drain_seconds" json:"drain_seconds" validate:"gt=0"`
}

// Ack returns how long a submitted order may wait for its acknowledgement.
func (t TimeoutsConfig) Ack() time.Duration {
	return time.Duration(t.AckSeconds) * time.Second
}

// SettleGrace returns the slack past the contract duration before an open
// trade is declared failed.
func (t TimeoutsConfig) SettleGrace() time.Duration {
	return time.Duration(t.SettleGraceSeconds) * time.Second
}

// Drain returns the shutdown budget for settling open trades.
func (t TimeoutsConfig) Drain() time.Duration {
	return time.Duration(t.DrainSeconds) * time.Second
}

// ReconnectConfig shapes the exponential backoff after transport loss.
type ReconnectConfig struct {
	BaseDelaySeconds int `yaml:"base_delay_seconds" json:"base_delay_seconds" validate:"gt=0"`
	MaxDelaySeconds  int `yaml:"max_delay_seconds" json:"max_delay_seconds" validate:"gt=0"`
}

// BaseDelay returns the first retry delay.
func (r ReconnectConfig) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelaySeconds) * time.Second
}

// MaxDelay returns the backoff ceiling.
func (r ReconnectConfig) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelaySeconds) * time.Second
}

// APIConfig configures the reporting endpoint.
type APIConfig struct {
	Port int `yaml:"port" json:"port" env:"API_PORT" validate:"gt=0,lte=65535"`
}

// LogConfig configures the log sink.
type LogConfig struct {
	// File receives a copy of the log stream in addition to stdout.
	File  string `yaml:"file" json:"file" env:"LOG_FILE"`
	Debug bool   `yaml:"debug" json:"debug" env:"DEBUG"`
}

// StatsConfig configures the shutdown stats snapshot.
type StatsConfig struct {
	// SnapshotPath, when set, receives a YAML stats dump on shutdown.
	SnapshotPath string `yaml:"snapshot_path" json:"snapshot_path" env:"STATS_SNAPSHOT_PATH"`
}

// Config is the immutable top-level configuration handed to every
// component. Load is the only constructor that reads files; components
// never touch raw configuration sources themselves.
type Config struct {
	// Version declares which config schema the file was written against.
	Version string `yaml:"version" json:"version" jsonschema:"description=Config schema version this file targets"`

	Venue      VenueKind         `yaml:"venue" json:"venue" env:"VENUE" validate:"required,oneof=deriv paper"`
	Symbols    []string          `yaml:"symbols" json:"symbols" env:"SYMBOLS" envSeparator:"," validate:"required,min=1,dive,required"`
	Timeframes []types.Timeframe `yaml:"timeframes" json:"timeframes" validate:"required,min=1"`

	Stake        float64            `yaml:"stake" json:"stake" env:"STAKE" validate:"required,gt=0"`
	Duration     int                `yaml:"duration" json:"duration" env:"DURATION" validate:"required,gt=0"`
	DurationUnit types.DurationUnit `yaml:"duration_unit" json:"duration_unit" validate:"required,oneof=t s m h d"`
	Currency     string             `yaml:"currency" json:"currency" env:"CURRENCY" validate:"required,len=3"`

	MinSignalStrength float64 `yaml:"min_signal_strength" json:"min_signal_strength" validate:"gte=0,lte=1"`
	LookbackPeriods   int     `yaml:"lookback_periods" json:"lookback_periods" env:"LOOKBACK_PERIODS" validate:"required,gt=0"`
	// TradeInterval is the minimum spacing in seconds between trades on the
	// same symbol.
	TradeInterval int         `yaml:"trade_interval" json:"trade_interval" env:"TRADE_INTERVAL" validate:"gte=0"`
	ActiveHours   HoursWindow `yaml:"active_hours" json:"active_hours"`

	Deriv DerivConfig `yaml:"deriv" json:"deriv" envPrefix:"DERIV_"`
	Paper PaperConfig `yaml:"paper" json:"paper" envPrefix:"PAPER_"`

	Strategy   strategy.Config  `yaml:"strategy" json:"strategy"`
	Indicators indicator.Config `yaml:"indicators" json:"indicators"`

	Risk      RiskConfig      `yaml:"risk" json:"risk"`
	Timeouts  TimeoutsConfig  `yaml:"timeouts" json:"timeouts"`
	Reconnect ReconnectConfig `yaml:"reconnect" json:"reconnect"`
	API       APIConfig       `yaml:"api" json:"api"`
	Log       LogConfig       `yaml:"log" json:"log" envPrefix:"LOG_"`
	Stats     StatsConfig     `yaml:"stats" json:"stats"`
}

// DefaultConfig returns a complete runnable configuration for one
// volatility index on the one-minute timeframe.
func DefaultConfig() Config {
	return Config{
		Version:           version.ConfigVersion,
		Venue:             VenueDeriv,
		Symbols:           []string{"R_50"},
		Timeframes:        []types.Timeframe{types.Timeframe1m},
		Stake:             10,
		Duration:          5,
		DurationUnit:      types.DurationUnitTicks,
		Currency:          "USD",
		MinSignalStrength: 0.3,
		LookbackPeriods:   100,
		TradeInterval:     60,
		ActiveHours: HoursWindow{
			Start: ClockTime{Hour: 0, Minute: 0},
			End:   ClockTime{Hour: 0, Minute: 0},
		},
		Deriv: DerivConfig{
			Endpoint: "wss://ws.derivws.com/websockets/v3",
			AppID:    "1089",
		},
		Paper: PaperConfig{
			Feed:           FeedSynthetic,
			Payout:         0.95,
			Seed:           42,
			StartPrice:     100,
			TickIntervalMS: 1000,
		},
		Strategy:   strategy.DefaultConfig(),
		Indicators: indicator.DefaultConfig(),
		Risk: RiskConfig{
			ScaleStake: false,
			MinStake:   1,
			MaxStake:   100,
		},
		Timeouts: TimeoutsConfig{
			AckSeconds:         10,
			SettleGraceSeconds: 30,
			DrainSeconds:       30,
		},
		Reconnect: ReconnectConfig{
			BaseDelaySeconds: 1,
			MaxDelaySeconds:  60,
		},
		API: APIConfig{
			Port: 8089,
		},
	}
}

// Load reads the YAML file at path over the defaults, applies PILOT_
// environment overrides, and validates the result. A .env file in the
// working directory is honored if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config file %s", path)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "PILOT_"}); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to apply environment overrides", err)
	}

	if err := version.CheckConfigCompatibility(cfg.Version, version.ConfigVersion); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and the relationships between sections.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "config validation failed", err)
	}

	for _, tf := range c.Timeframes {
		if err := tf.Validate(); err != nil {
			return err
		}
	}

	if err := c.Indicators.Validate(); err != nil {
		return err
	}

	if err := c.Strategy.Validate(); err != nil {
		return err
	}

	// Snapshots can never complete if the window is shorter than the
	// slowest indicator's warm-up.
	if warmUp := c.Indicators.MaxWarmUp(); c.LookbackPeriods < warmUp {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"lookback_periods %d is below the indicator warm-up %d", c.LookbackPeriods, warmUp)
	}

	if c.Venue == VenueDeriv && (c.Deriv.Endpoint == "" || c.Deriv.AppID == "") {
		return errors.New(errors.ErrCodeInvalidConfiguration,
			"the deriv venue requires deriv.endpoint and deriv.app_id")
	}

	if c.Risk.ScaleStake {
		if c.Risk.MinStake <= 0 || c.Risk.MinStake > c.Risk.MaxStake {
			return errors.Newf(errors.ErrCodeInvalidConfiguration,
				"risk stake bounds [%.2f, %.2f] are not an ordered positive range", c.Risk.MinStake, c.Risk.MaxStake)
		}
	}

	return nil
}
