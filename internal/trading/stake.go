package trading

import (
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-pilot/internal/config"
)

// stakeFor sizes the stake for one trade. With scaling disabled every trade
// commits the flat configured stake. With scaling enabled the stake grows
// linearly with signal strength, from half the base at strength 0 to twice
// the base at strength 1, clamped to the configured bounds and rounded to
// cents.
func stakeFor(base float64, strength float64, risk config.RiskConfig) float64 {
	if !risk.ScaleStake {
		return base
	}

	factor := decimal.NewFromFloat(0.5).Add(decimal.NewFromFloat(1.5).Mul(decimal.NewFromFloat(strength)))
	stake := decimal.NewFromFloat(base).Mul(factor)

	minStake := decimal.NewFromFloat(risk.MinStake)
	maxStake := decimal.NewFromFloat(risk.MaxStake)

	if stake.LessThan(minStake) {
		stake = minStake
	}

	if stake.GreaterThan(maxStake) {
		stake = maxStake
	}

	return stake.Round(2).InexactFloat64()
}
