package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

type MACDTestSuite struct {
	suite.Suite
}

func TestMACDSuite(t *testing.T) {
	suite.Run(t, new(MACDTestSuite))
}

func (suite *MACDTestSuite) TestUndefinedBeforeSignalSeeds() {
	macd := NewMACD(2, 3, 2)

	// Line appears at candle 3, signal needs two line values.
	feedCloses(macd, 1, 2, 3)

	suite.True(macd.Current().IsNone())
	suite.True(macd.Value().IsNone())
}

func (suite *MACDTestSuite) TestLinearSeries() {
	macd := NewMACD(2, 3, 2)

	// On closes 1..5 the fast EMA runs one point above the slow EMA,
	// so the line settles at 0.5 and the histogram at zero.
	feedCloses(macd, 1, 2, 3, 4, 5)

	current, err := macd.Current().Take()
	suite.Require().NoError(err)
	suite.InDelta(0.5, current.Line, 1e-9)
	suite.InDelta(0.5, current.Signal, 1e-9)
	suite.InDelta(0.0, current.Histogram, 1e-9)
}

func (suite *MACDTestSuite) TestConstantSeriesIsZero() {
	macd := NewMACD(2, 3, 2)

	feedCloses(macd, 10, 10, 10, 10, 10, 10)

	current, err := macd.Current().Take()
	suite.Require().NoError(err)
	suite.InDelta(0.0, current.Line, 1e-9)
	suite.InDelta(0.0, current.Signal, 1e-9)
	suite.InDelta(0.0, current.Histogram, 1e-9)
}

func (suite *MACDTestSuite) TestValueIsHistogram() {
	macd := NewMACD(2, 3, 2)

	feedCloses(macd, 1, 2, 3, 4, 10)

	current, err := macd.Current().Take()
	suite.Require().NoError(err)

	value, err := macd.Value().Take()
	suite.Require().NoError(err)
	suite.InDelta(current.Histogram, value, 1e-9)
	suite.Positive(value)
}

func (suite *MACDTestSuite) TestWarmUp() {
	suite.Equal(34, NewMACD(12, 26, 9).WarmUp())
	suite.Equal(4, NewMACD(2, 3, 2).WarmUp())
}

func (suite *MACDTestSuite) TestName() {
	suite.Equal(types.IndicatorTypeMACD, NewMACD(12, 26, 9).Name())
}

func (suite *MACDTestSuite) TestReset() {
	macd := NewMACD(2, 3, 2)

	feedCloses(macd, 1, 2, 3, 4, 5)
	suite.True(macd.Current().IsSome())

	macd.Reset()
	suite.True(macd.Current().IsNone())
}
