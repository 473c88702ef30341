package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

type SMATestSuite struct {
	suite.Suite
}

func TestSMASuite(t *testing.T) {
	suite.Run(t, new(SMATestSuite))
}

func (suite *SMATestSuite) TestUndefinedBeforeFullWindow() {
	sma := NewSMA(3)

	feedCloses(sma, 10, 11)

	suite.True(sma.Value().IsNone())
}

func (suite *SMATestSuite) TestRollingAverage() {
	sma := NewSMA(3)

	feedCloses(sma, 10, 11, 12, 11, 10, 9, 10, 11, 12, 13)

	value, err := sma.Value().Take()
	suite.Require().NoError(err)
	suite.InDelta(12.0, value, 1e-9)
}

func (suite *SMATestSuite) TestExactWindowBoundary() {
	sma := NewSMA(4)

	feedCloses(sma, 2, 4, 6, 8)

	value, err := sma.Value().Take()
	suite.Require().NoError(err)
	suite.InDelta(5.0, value, 1e-9)
}

func (suite *SMATestSuite) TestOldValuesLeaveTheWindow() {
	sma := NewSMA(2)

	feedCloses(sma, 100, 1, 2)

	value, err := sma.Value().Take()
	suite.Require().NoError(err)
	suite.InDelta(1.5, value, 1e-9)
}

func (suite *SMATestSuite) TestName() {
	suite.Equal(types.IndicatorTypeSMA, NewSMA(3).Name())
}

func (suite *SMATestSuite) TestWarmUp() {
	suite.Equal(5, NewSMA(5).WarmUp())
}

func (suite *SMATestSuite) TestReset() {
	sma := NewSMA(2)

	feedCloses(sma, 1, 2)
	suite.True(sma.Value().IsSome())

	sma.Reset()
	suite.True(sma.Value().IsNone())

	feedCloses(sma, 4, 6)
	value, err := sma.Value().Take()
	suite.Require().NoError(err)
	suite.InDelta(5.0, value, 1e-9)
}
