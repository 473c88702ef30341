package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

type BollingerTestSuite struct {
	suite.Suite
}

func TestBollingerSuite(t *testing.T) {
	suite.Run(t, new(BollingerTestSuite))
}

func (suite *BollingerTestSuite) TestUndefinedBeforeFullWindow() {
	bb := NewBollingerBands(3, 2.0)

	feedCloses(bb, 1, 2)

	suite.True(bb.Current().IsNone())
}

func (suite *BollingerTestSuite) TestBandsAroundPopulationStdDev() {
	bb := NewBollingerBands(3, 2.0)

	feedCloses(bb, 1, 2, 3)

	current, err := bb.Current().Take()
	suite.Require().NoError(err)

	stdDev := math.Sqrt(2.0 / 3.0)
	suite.InDelta(2.0, current.Mid, 1e-9)
	suite.InDelta(2.0+2.0*stdDev, current.Upper, 1e-9)
	suite.InDelta(2.0-2.0*stdDev, current.Lower, 1e-9)
}

func (suite *BollingerTestSuite) TestConstantSeriesCollapsesBands() {
	bb := NewBollingerBands(3, 2.0)

	feedCloses(bb, 5, 5, 5, 5)

	current, err := bb.Current().Take()
	suite.Require().NoError(err)
	suite.InDelta(5.0, current.Upper, 1e-9)
	suite.InDelta(5.0, current.Mid, 1e-9)
	suite.InDelta(5.0, current.Lower, 1e-9)
}

func (suite *BollingerTestSuite) TestWindowSlides() {
	bb := NewBollingerBands(2, 1.0)

	feedCloses(bb, 100, 4, 6)

	current, err := bb.Current().Take()
	suite.Require().NoError(err)
	suite.InDelta(5.0, current.Mid, 1e-9)
	suite.InDelta(6.0, current.Upper, 1e-9)
	suite.InDelta(4.0, current.Lower, 1e-9)
}

func (suite *BollingerTestSuite) TestValueIsMidBand() {
	bb := NewBollingerBands(3, 2.0)

	feedCloses(bb, 1, 2, 3)

	value, err := bb.Value().Take()
	suite.Require().NoError(err)
	suite.InDelta(2.0, value, 1e-9)
}

func (suite *BollingerTestSuite) TestName() {
	suite.Equal(types.IndicatorTypeBollingerBands, NewBollingerBands(20, 2.0).Name())
}

func (suite *BollingerTestSuite) TestReset() {
	bb := NewBollingerBands(2, 2.0)

	feedCloses(bb, 1, 2)
	suite.True(bb.Current().IsSome())

	bb.Reset()
	suite.True(bb.Current().IsNone())
}
