package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestDefaultConfigIsValid() {
	suite.NoError(DefaultConfig().Validate())
}

func (suite *ConfigTestSuite) TestDefaultMaxWarmUpIsTrendSMA() {
	suite.Equal(50, DefaultConfig().MaxWarmUp())
}

func (suite *ConfigTestSuite) TestMaxWarmUpFollowsLongestIndicator() {
	cfg := DefaultConfig()
	cfg.TrendSMAPeriod = 10

	// With the trend average shortened, MACD dominates: 26 + 9 - 1.
	suite.Equal(34, cfg.MaxWarmUp())
}

func (suite *ConfigTestSuite) TestRejectsNonPositivePeriod() {
	cfg := DefaultConfig()
	cfg.RSIPeriod = 0

	err := cfg.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (suite *ConfigTestSuite) TestRejectsFastSlowerThanSlow() {
	cfg := DefaultConfig()
	cfg.FastSMAPeriod = 13
	cfg.SlowSMAPeriod = 13

	err := cfg.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (suite *ConfigTestSuite) TestRejectsInvertedMACDPeriods() {
	cfg := DefaultConfig()
	cfg.MACDFastPeriod = 30

	err := cfg.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (suite *ConfigTestSuite) TestRejectsNonPositiveStdDev() {
	cfg := DefaultConfig()
	cfg.BollingerStdDev = -1

	err := cfg.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}
