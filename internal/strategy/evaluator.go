// Package strategy fuses indicator snapshots into directional trade
// signals. The evaluator is pure: the same snapshots always produce the
// same signal, with vote sources walked in a fixed order so the floating
// point aggregation is reproducible.
package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// Evaluator aggregates per-indicator votes into one Signal per symbol.
type Evaluator struct {
	cfg         Config
	minStrength float64
}

// NewEvaluator creates an evaluator. Signals with aggregate strength below
// minStrength are forced to DirectionNone.
func NewEvaluator(cfg Config, minStrength float64) *Evaluator {
	return &Evaluator{
		cfg:         cfg,
		minStrength: minStrength,
	}
}

// Evaluate fuses the snapshots of every configured timeframe for one symbol
// into a single signal. Votes whose inputs are absent contribute nothing; a
// timeframe that has not warmed up simply has no say yet.
func (e *Evaluator) Evaluate(symbol string, snapshots []types.IndicatorSnapshot) types.Signal {
	signal := types.Signal{
		Symbol:    symbol,
		Direction: types.DirectionNone,
		Time:      latestTime(snapshots),
		Votes:     make(map[string]float64),
	}

	if len(snapshots) == 0 {
		signal.Reason = "no closed candles"
		return signal
	}

	var weightedSum, strengthSum, weightTotal float64

	counts := make(map[string]int)

	for _, snap := range snapshots {
		for _, name := range voteNames {
			weight := e.cfg.weight(name)
			if weight == 0 {
				continue
			}

			vote, ok := voteFuncs[name](e.cfg, snap)
			if !ok {
				continue
			}

			weightedSum += weight * vote
			strengthSum += weight * math.Abs(vote)
			weightTotal += weight

			signal.Votes[name] += vote
			counts[name]++
		}
	}

	// Recorded votes are per-source means across timeframes.
	for name, n := range counts {
		signal.Votes[name] /= float64(n)
	}

	if weightTotal == 0 {
		signal.Reason = "no indicator votes"
		return signal
	}

	signal.Strength = strengthSum / weightTotal

	if reason, ranging := e.rangingReason(snapshots); ranging {
		signal.Reason = reason
		return signal
	}

	if signal.Strength < e.minStrength {
		signal.Reason = fmt.Sprintf("strength %.2f below threshold %.2f", signal.Strength, e.minStrength)
		return signal
	}

	switch {
	case weightedSum > 0:
		signal.Direction = types.DirectionBuy
	case weightedSum < 0:
		signal.Direction = types.DirectionSell
	default:
		signal.Reason = "votes balanced"
		return signal
	}

	signal.Reason = fmt.Sprintf("%d vote sources across %d timeframe(s)", len(counts), len(snapshots))

	return signal
}

// rangingReason reports whether any timeframe's ADX reads below the ranging
// threshold. Ranging markets produce no directional signal at all.
func (e *Evaluator) rangingReason(snapshots []types.IndicatorSnapshot) (string, bool) {
	if e.cfg.ADXRangingThreshold <= 0 {
		return "", false
	}

	for _, snap := range snapshots {
		adx, err := snap.ADX.Take()
		if err != nil {
			continue
		}

		if adx < e.cfg.ADXRangingThreshold {
			return fmt.Sprintf("market is ranging (%s adx %.1f below %.1f)",
				snap.Timeframe, adx, e.cfg.ADXRangingThreshold), true
		}
	}

	return "", false
}

func latestTime(snapshots []types.IndicatorSnapshot) time.Time {
	var latest time.Time

	for _, snap := range snapshots {
		if snap.Time.After(latest) {
			latest = snap.Time
		}
	}

	return latest
}
