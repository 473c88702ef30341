package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-pilot/internal/types"
	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

type EngineTestSuite struct {
	suite.Suite
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupTest() {
	cfg := Config{
		FastSMAPeriod:    2,
		SlowSMAPeriod:    3,
		TrendSMAPeriod:   4,
		EMAPeriod:        3,
		RSIPeriod:        3,
		MACDFastPeriod:   2,
		MACDSlowPeriod:   3,
		MACDSignalPeriod: 2,
		BollingerPeriod:  3,
		BollingerStdDev:  2.0,
		ATRPeriod:        3,
		StochasticPeriod: 3,
		StochasticSmooth: 2,
		ADXPeriod:        2,
	}

	suite.engine = NewEngine(cfg, 10)
	suite.engine.Watch("R_50", types.Timeframe1m)
}

func (suite *EngineTestSuite) tick(offset time.Duration, price float64) types.Tick {
	return types.Tick{
		Symbol: "R_50",
		Price:  price,
		Time:   testStart.Add(offset),
	}
}

func (suite *EngineTestSuite) TestWatchIsIdempotent() {
	suite.engine.Watch("R_50", types.Timeframe1m)

	suite.Equal([]types.Timeframe{types.Timeframe1m}, suite.engine.Watched("R_50"))
}

func (suite *EngineTestSuite) TestSeedWarmsIndicators() {
	candles := closesToCandles("R_50", types.Timeframe1m, testStart, 1, 2, 3, 4, 5, 6)

	applied, err := suite.engine.Seed("R_50", types.Timeframe1m, candles)
	suite.Require().NoError(err)
	suite.Equal(6, applied)
	suite.Equal(6, suite.engine.CandleCount("R_50", types.Timeframe1m))

	snapshot, ok := suite.engine.Snapshot("R_50", types.Timeframe1m)
	suite.Require().True(ok)
	suite.Equal(6.0, snapshot.Close)

	sma, err := snapshot.SMA.Take()
	suite.Require().NoError(err)
	suite.InDelta(5.0, sma, 1e-9)

	rsi, err := snapshot.RSI.Take()
	suite.Require().NoError(err)
	suite.InDelta(100.0, rsi, 1e-9)

	suite.True(snapshot.TrendSMA.IsSome())
	suite.True(snapshot.MACD.IsSome())
	suite.True(snapshot.ADX.IsSome())
}

func (suite *EngineTestSuite) TestSeedUnwatchedSeries() {
	candles := closesToCandles("R_100", types.Timeframe1m, testStart, 1, 2)

	_, err := suite.engine.Seed("R_100", types.Timeframe1m, candles)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownSymbol))
}

func (suite *EngineTestSuite) TestSeedSkipsMalformedCandles() {
	candles := closesToCandles("R_50", types.Timeframe1m, testStart, 1, 2, 3)
	candles[1].High = candles[1].Low - 1

	applied, err := suite.engine.Seed("R_50", types.Timeframe1m, candles)
	suite.Require().NoError(err)
	suite.Equal(2, applied)
	suite.Equal(2, suite.engine.CandleCount("R_50", types.Timeframe1m))
}

func (suite *EngineTestSuite) TestTickPathClosesCandleOnBucketRollover() {
	closed, err := suite.engine.ApplyTick(suite.tick(1*time.Second, 10))
	suite.Require().NoError(err)
	suite.Empty(closed)

	closed, err = suite.engine.ApplyTick(suite.tick(30*time.Second, 12))
	suite.Require().NoError(err)
	suite.Empty(closed)

	// First tick of the next bucket closes the forming candle.
	closed, err = suite.engine.ApplyTick(suite.tick(62*time.Second, 11))
	suite.Require().NoError(err)
	suite.Require().Len(closed, 1)

	suite.Equal(12.0, closed[0].Close)
	suite.Equal(testStart.Add(time.Minute), closed[0].Time)
	suite.Equal(1, suite.engine.CandleCount("R_50", types.Timeframe1m))
}

func (suite *EngineTestSuite) TestTickForUnwatchedSymbol() {
	_, err := suite.engine.ApplyTick(types.Tick{Symbol: "R_100", Price: 10, Time: testStart})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownSymbol))
}

func (suite *EngineTestSuite) TestMalformedTickIsRejected() {
	_, err := suite.engine.ApplyTick(types.Tick{Symbol: "R_50", Price: -1, Time: testStart})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMalformedTick))
}

func (suite *EngineTestSuite) TestStaleTickIsIgnoredAfterSeeding() {
	candles := closesToCandles("R_50", types.Timeframe1m, testStart, 1, 2, 3, 4)
	_, err := suite.engine.Seed("R_50", types.Timeframe1m, candles)
	suite.Require().NoError(err)

	// A tick inside the last seeded bucket must not reopen it.
	closed, err := suite.engine.ApplyTick(suite.tick(3*time.Minute+30*time.Second, 99))
	suite.Require().NoError(err)
	suite.Empty(closed)
	suite.Equal(4, suite.engine.CandleCount("R_50", types.Timeframe1m))
}

func (suite *EngineTestSuite) TestSeedThenLiveContinuation() {
	candles := closesToCandles("R_50", types.Timeframe1m, testStart, 1, 2, 3, 4)
	_, err := suite.engine.Seed("R_50", types.Timeframe1m, candles)
	suite.Require().NoError(err)

	_, err = suite.engine.ApplyTick(suite.tick(4*time.Minute+5*time.Second, 5))
	suite.Require().NoError(err)

	closed, err := suite.engine.ApplyTick(suite.tick(5*time.Minute+1*time.Second, 6))
	suite.Require().NoError(err)
	suite.Require().Len(closed, 1)
	suite.Equal(5.0, closed[0].Close)
	suite.Equal(5, suite.engine.CandleCount("R_50", types.Timeframe1m))
}

func (suite *EngineTestSuite) TestApplyCandleRejectsDuplicates() {
	candle := closesToCandles("R_50", types.Timeframe1m, testStart, 10)[0]

	_, advanced, err := suite.engine.ApplyCandle(candle)
	suite.Require().NoError(err)
	suite.True(advanced)

	_, advanced, err = suite.engine.ApplyCandle(candle)
	suite.Require().NoError(err)
	suite.False(advanced)
	suite.Equal(1, suite.engine.CandleCount("R_50", types.Timeframe1m))
}

func (suite *EngineTestSuite) TestApplyCandleUnwatchedSeries() {
	candle := closesToCandles("R_50", types.Timeframe5m, testStart, 10)[0]

	_, _, err := suite.engine.ApplyCandle(candle)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownSymbol))
}

func (suite *EngineTestSuite) TestCandleStreamSupersedesFormingCandle() {
	_, err := suite.engine.ApplyTick(suite.tick(10*time.Second, 10))
	suite.Require().NoError(err)

	candle := closesToCandles("R_50", types.Timeframe1m, testStart, 11)[0]
	_, advanced, err := suite.engine.ApplyCandle(candle)
	suite.Require().NoError(err)
	suite.True(advanced)

	// The next tick starts a fresh forming candle instead of closing the
	// one the candle stream already delivered.
	closed, err := suite.engine.ApplyTick(suite.tick(70*time.Second, 12))
	suite.Require().NoError(err)
	suite.Empty(closed)

	closed, err = suite.engine.ApplyTick(suite.tick(130*time.Second, 13))
	suite.Require().NoError(err)
	suite.Require().Len(closed, 1)
	suite.Equal(12.0, closed[0].Close)
	suite.Equal(2, suite.engine.CandleCount("R_50", types.Timeframe1m))
}

func (suite *EngineTestSuite) TestMultiTimeframeClose() {
	suite.engine.Watch("R_50", types.Timeframe5m)

	_, err := suite.engine.ApplyTick(suite.tick(4*time.Minute+59*time.Second, 10))
	suite.Require().NoError(err)

	// The next tick crosses both the 1m and the 5m bucket boundary.
	closed, err := suite.engine.ApplyTick(suite.tick(5*time.Minute+1*time.Second, 11))
	suite.Require().NoError(err)
	suite.Require().Len(closed, 2)
	suite.Equal(types.Timeframe1m, closed[0].Timeframe)
	suite.Equal(types.Timeframe5m, closed[1].Timeframe)
}

func (suite *EngineTestSuite) TestSnapshotsSkipUnclosedSeries() {
	suite.engine.Watch("R_50", types.Timeframe5m)

	candle := closesToCandles("R_50", types.Timeframe1m, testStart, 10)[0]
	_, _, err := suite.engine.ApplyCandle(candle)
	suite.Require().NoError(err)

	snapshots := suite.engine.Snapshots("R_50")
	suite.Require().Len(snapshots, 1)
	suite.Equal(types.Timeframe1m, snapshots[0].Timeframe)

	_, ok := suite.engine.Snapshot("R_50", types.Timeframe5m)
	suite.False(ok)
}
