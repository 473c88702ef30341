package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

type HoursTestSuite struct {
	suite.Suite
}

func TestHoursSuite(t *testing.T) {
	suite.Run(t, new(HoursTestSuite))
}

func (suite *HoursTestSuite) at(hour, minute int) time.Time {
	return time.Date(2024, 3, 1, hour, minute, 0, 0, time.UTC)
}

func (suite *HoursTestSuite) TestParseClockTime() {
	ct, err := ParseClockTime("08:30")
	suite.Require().NoError(err)
	suite.Equal(8, ct.Hour)
	suite.Equal(30, ct.Minute)
	suite.Equal("08:30", ct.String())
}

func (suite *HoursTestSuite) TestParseClockTimeRejectsMalformedInput() {
	for _, input := range []string{"8:30", "24:00", "12:60", "noon", ""} {
		_, err := ParseClockTime(input)
		suite.Error(err, "input %q", input)
		suite.True(errors.HasCode(err, errors.ErrCodeInvalidClockTime))
	}
}

func (suite *HoursTestSuite) TestContainsDaytimeWindow() {
	w := HoursWindow{
		Start: ClockTime{Hour: 8},
		End:   ClockTime{Hour: 22},
	}

	suite.False(w.Contains(suite.at(7, 59)))
	suite.True(w.Contains(suite.at(8, 0)))
	suite.True(w.Contains(suite.at(15, 30)))
	suite.True(w.Contains(suite.at(22, 0)))
	suite.False(w.Contains(suite.at(22, 1)))
}

func (suite *HoursTestSuite) TestContainsOvernightWindowWrapsMidnight() {
	w := HoursWindow{
		Start: ClockTime{Hour: 22},
		End:   ClockTime{Hour: 2},
	}

	suite.True(w.Contains(suite.at(22, 0)))
	suite.True(w.Contains(suite.at(23, 45)))
	suite.True(w.Contains(suite.at(0, 30)))
	suite.True(w.Contains(suite.at(2, 0)))
	suite.False(w.Contains(suite.at(2, 1)))
	suite.False(w.Contains(suite.at(12, 0)))
	suite.False(w.Contains(suite.at(21, 59)))
}

func (suite *HoursTestSuite) TestEqualBoundsMeanAlwaysActive() {
	w := HoursWindow{
		Start: ClockTime{Hour: 0},
		End:   ClockTime{Hour: 0},
	}

	suite.True(w.Contains(suite.at(0, 0)))
	suite.True(w.Contains(suite.at(12, 0)))
	suite.True(w.Contains(suite.at(23, 59)))
}

func (suite *HoursTestSuite) TestYAMLRoundTrip() {
	var w HoursWindow

	err := yaml.Unmarshal([]byte("start: \"08:00\"\nend: \"22:30\"\n"), &w)
	suite.Require().NoError(err)
	suite.Equal(ClockTime{Hour: 8}, w.Start)
	suite.Equal(ClockTime{Hour: 22, Minute: 30}, w.End)

	out, err := yaml.Marshal(w)
	suite.Require().NoError(err)
	suite.Contains(string(out), "08:00")
	suite.Contains(string(out), "22:30")
}

func (suite *HoursTestSuite) TestYAMLRejectsBadClockTime() {
	var w HoursWindow

	err := yaml.Unmarshal([]byte("start: \"25:00\"\nend: \"22:30\"\n"), &w)
	suite.Error(err)
}
