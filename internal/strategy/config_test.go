package strategy

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-pilot/internal/types"
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

func (suite *ConfigTestSuite) TestDefaultWeightsCoverEveryVote() {
	cfg := DefaultConfig()

	for _, name := range voteNames {
		suite.Positive(cfg.Weights[name], "vote %s has no default weight", name)
	}
}

func (suite *ConfigTestSuite) TestRejectsUnknownWeightKey() {
	cfg := DefaultConfig()
	cfg.Weights["momentum"] = 1.0

	err := cfg.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestRejectsNegativeWeight() {
	cfg := DefaultConfig()
	cfg.Weights[VoteRSI] = -0.5

	err := cfg.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestRejectsInvertedRSIBands() {
	cfg := DefaultConfig()
	cfg.RSIOversold = 70
	cfg.RSIOverbought = 30

	suite.Error(cfg.Validate())
}

func (suite *ConfigTestSuite) TestRejectsInvertedStochasticBands() {
	cfg := DefaultConfig()
	cfg.StochasticOversold = 80
	cfg.StochasticOverbought = 20

	suite.Error(cfg.Validate())
}

func (suite *ConfigTestSuite) TestRejectsOutOfRangePatternBias() {
	cfg := DefaultConfig()
	cfg.PatternBias[types.PatternDoji] = 2.0

	err := cfg.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}
