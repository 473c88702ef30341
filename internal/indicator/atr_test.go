package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

type ATRTestSuite struct {
	suite.Suite
}

func TestATRSuite(t *testing.T) {
	suite.Run(t, new(ATRTestSuite))
}

func (suite *ATRTestSuite) atrCandles() []types.Candle {
	tf := types.Timeframe1m
	at := func(i int) time.Time { return testStart.Add(time.Duration(i) * tf.Duration()) }

	return []types.Candle{
		ohlcCandle("R_50", tf, at(0), 10, 12, 8, 10),
		ohlcCandle("R_50", tf, at(1), 11, 13, 11, 12),
		ohlcCandle("R_50", tf, at(2), 11, 11, 9, 9),
		ohlcCandle("R_50", tf, at(3), 9, 10, 8, 9),
	}
}

func (suite *ATRTestSuite) TestUndefinedBeforeSeed() {
	atr := NewATR(3)

	for _, c := range suite.atrCandles()[:2] {
		atr.Update(c)
	}

	suite.True(atr.Value().IsNone())
}

func (suite *ATRTestSuite) TestSeedIsMeanTrueRange() {
	atr := NewATR(3)

	// True ranges 4, 3, 3: the first candle has no prior close and the
	// later two are stretched by the gap from the previous close.
	for _, c := range suite.atrCandles()[:3] {
		atr.Update(c)
	}

	value, err := atr.Value().Take()
	suite.Require().NoError(err)
	suite.InDelta(10.0/3.0, value, 1e-9)
}

func (suite *ATRTestSuite) TestWilderSmoothingAfterSeed() {
	atr := NewATR(3)

	for _, c := range suite.atrCandles() {
		atr.Update(c)
	}

	value, err := atr.Value().Take()
	suite.Require().NoError(err)
	suite.InDelta(26.0/9.0, value, 1e-9)
}

func (suite *ATRTestSuite) TestName() {
	suite.Equal(types.IndicatorTypeATR, NewATR(14).Name())
}

func (suite *ATRTestSuite) TestWarmUp() {
	suite.Equal(14, NewATR(14).WarmUp())
}

func (suite *ATRTestSuite) TestReset() {
	atr := NewATR(3)

	for _, c := range suite.atrCandles() {
		atr.Update(c)
	}
	suite.True(atr.Value().IsSome())

	atr.Reset()
	suite.True(atr.Value().IsNone())
}
