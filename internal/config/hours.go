package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

// ClockTime is a time of day with minute precision, written "HH:MM" in
// configuration files.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses a strict 24h "HH:MM" string.
func ParseClockTime(s string) (ClockTime, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, errors.Wrapf(errors.ErrCodeInvalidClockTime, err, "invalid clock time %q, want HH:MM", s)
	}

	return ClockTime{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

// Minutes returns the minute offset from midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// UnmarshalYAML decodes a "HH:MM" scalar.
func (c *ClockTime) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := ParseClockTime(raw)
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}

// MarshalYAML encodes the time back to its "HH:MM" form.
func (c ClockTime) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// HoursWindow is the daily window in which the agent may submit trades.
// Bounds are inclusive. When end is before start the window wraps midnight:
// 22:00 to 02:00 is active late evening and early morning. Equal bounds mean
// the agent trades around the clock.
type HoursWindow struct {
	Start ClockTime `yaml:"start" json:"start"`
	End   ClockTime `yaml:"end" json:"end"`
}

// Contains reports whether the wall-clock time of t falls inside the window.
func (w HoursWindow) Contains(t time.Time) bool {
	now := t.Hour()*60 + t.Minute()
	start := w.Start.Minutes()
	end := w.End.Minutes()

	switch {
	case start == end:
		return true
	case start < end:
		return now >= start && now <= end
	}

	return now >= start || now <= end
}
