// Package probability is the engine's probability model (spec component
// C): the weighted logistic base probability, the seed-gap blend, the
// live-state blend, and the noisy outcome sampler the propagator calls
// once per game.
package probability

import (
	"math"

	"github.com/ncaaforecast/engine/bracket"
	"github.com/ncaaforecast/engine/metrics"
	"github.com/ncaaforecast/engine/rng"
	"gonum.org/v1/gonum/floats"
)

// Weights maps a recognized metric to a non-negative weight. Unknown keys
// are never looked up by Base.
type Weights map[metrics.Key]float64

// VarianceConfig parameterizes the noisy sampler and the seed-gap/live
// blends a mode composes with.
type VarianceConfig struct {
	BaseVariance             float64
	UpsetMultiplier          float64
	LiveStateWeight          float64
	SeedGapSensitivity       float64
	RoundVarianceMultipliers map[bracket.Round]float64
}

// RoundMultiplier returns the configured per-round variance multiplier,
// defaulting to 1.0 when the round is unset in the map.
func (v VarianceConfig) RoundMultiplier(r bracket.Round) float64 {
	if m, ok := v.RoundVarianceMultipliers[r]; ok {
		return m
	}
	return 1.0
}

// baseProbabilityScale is the calibration constant: a total weighted
// differential of 1 sigma maps to sigmoid(0.25) ~ 56% win probability, and
// about 4 weighted sigma map to ~73%.
const baseProbabilityScale = 0.25

// Base computes the pre-game win probability of team1 over team2 under
// weights w: `p = sigmoid(0.25 * Σ_k w_k·signedDiff_k)`.
// Identical teams yield exactly 0.5; Base(a,b) + Base(b,a) = 1 exactly
// because signedDiff is antisymmetric and sigmoid(-x) = 1-sigmoid(x).
func Base(w Weights, team1, team2 metrics.Profile) float64 {
	ws := make([]float64, 0, len(metrics.Keys))
	diffs := make([]float64, 0, len(metrics.Keys))
	for _, k := range metrics.Keys {
		weight, ok := w[k]
		if !ok {
			continue
		}
		ws = append(ws, weight)
		diffs = append(diffs, metrics.SignedDiff(k, team1, team2))
	}
	logit := floats.Dot(ws, diffs)
	return sigmoid(logit * baseProbabilityScale)
}

// seedGapScale and seedGapBlendCoefficient are the seed-gap blend's
// calibration constants.
const (
	seedGapScale            = 0.18
	seedGapBlendCoefficient = 0.15
)

// SeedGap blends a base probability with a pure seed-implied probability.
// If sensitivity is 0 or the seeds are equal, p is returned unchanged.
func SeedGap(p float64, seed1, seed2 int, sensitivity float64) float64 {
	if sensitivity == 0 || seed1 == seed2 {
		return p
	}
	seedImplied := sigmoid(float64(seed2-seed1) * seedGapScale)
	weight := seedGapBlendCoefficient * sensitivity
	return p*(1-weight) + seedImplied*weight
}

// regulationTotalSeconds, regulationHalfSeconds and overtimePeriodSeconds
// are the clock lengths
// the total-game-time formula implies: 2400s regulation split over two
// 1200s halves, 300s per overtime period.
const (
	regulationTotalSeconds = 2400.0
	regulationHalfSeconds  = 1200.0
	overtimePeriodSeconds  = 300.0
)

func totalGameSeconds(period int) float64 {
	if period <= 2 {
		return regulationTotalSeconds
	}
	return regulationTotalSeconds + float64(period-2)*overtimePeriodSeconds
}

func periodLengthSeconds(period int) float64 {
	if period <= 2 {
		return regulationHalfSeconds
	}
	return overtimePeriodSeconds
}

func elapsedBeforePeriod(period int) float64 {
	if period <= 2 {
		return float64(period-1) * regulationHalfSeconds
	}
	return regulationTotalSeconds + float64(period-3)*overtimePeriodSeconds
}

func elapsedSeconds(period int, timeRemaining float64) float64 {
	return elapsedBeforePeriod(period) + (periodLengthSeconds(period) - timeRemaining)
}

// LiveBlend folds a live game snapshot into a base probability. team1ID
// identifies which side of the live game corresponds to "team1" in the
// base probability; scoreDiff is always team1 - team2.
func LiveBlend(base float64, live *bracket.LiveGameState, team1ID string, gamma float64) float64 {
	if live == nil || live.Status == bracket.PreGame {
		return base
	}
	score1, score2 := perspectiveScores(live, team1ID)
	if live.Status == bracket.Final {
		switch {
		case score1 > score2:
			return 1.0
		case score1 < score2:
			return 0.0
		default:
			return 0.5
		}
	}

	total := totalGameSeconds(live.Period)
	elapsed := elapsedSeconds(live.Period, live.TimeRemainingSeconds)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > total {
		elapsed = total
	}
	remaining := total - elapsed

	alpha := math.Pow(elapsed/total, gamma)
	remainingPossessions := math.Max(1, (remaining/2400.0)*70.0)
	scoreDiff := float64(score1 - score2)
	liveProb := standardNormalCDF(scoreDiff / (math.Sqrt(remainingPossessions) * 2.5))

	return alpha*liveProb + (1-alpha)*base
}

func perspectiveScores(live *bracket.LiveGameState, team1ID string) (score1, score2 int) {
	if live.HomeTeamID == team1ID {
		return live.HomeScore, live.AwayScore
	}
	return live.AwayScore, live.HomeScore
}

// NoisySample draws a boolean outcome for team1 winning given a pipeline
// probability p, a variance config, and the round being simulated. It
// clamps the final probability to [0.001, 0.999] before
// comparing against a fresh uniform draw. With UpsetMultiplier < 1 the
// compression step stretches away from 0.5 and can leave [0, 1] before the
// clamp, so such values end up pinned at the clamp bounds.
func NoisySample(p float64, v VarianceConfig, round bracket.Round, source *rng.Source) bool {
	sigmaEff := v.BaseVariance * v.RoundMultiplier(round)
	logitP := math.Log(p / (1 - p))
	noisy := sigmoid(logitP + source.Gaussian()*sigmaEff*4)

	m := v.UpsetMultiplier
	final := noisy/m + 0.5*(1-1/m)

	final = clampProbability(final)
	return source.Float64() < final
}

func clampProbability(p float64) float64 {
	if p < 0.001 {
		return 0.001
	}
	if p > 0.999 {
		return 0.999
	}
	return p
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// standardNormalCDF approximates Φ(x) via the Abramowitz-Stegun 7.1.26
// approximation to erf, accurate to about 1.5e-7.
func standardNormalCDF(x float64) float64 {
	return 0.5 * (1 + erf(x/math.Sqrt2))
}

const (
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
	erfP  = 0.3275911
)

func erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}
	t := 1 / (1 + erfP*x)
	y := 1 - (((((erfA5*t+erfA4)*t)+erfA3)*t+erfA2)*t+erfA1)*t*math.Exp(-x*x)
	return sign * y
}

// DefaultWeights returns the fixed baseline weight set other modes may
// compose off of by copying and overriding individual keys.
func DefaultWeights() Weights {
	return Weights{
		metrics.AdjOffensiveEfficiency: 1.0,
		metrics.AdjDefensiveEfficiency: 1.0,
		metrics.AdjTempo:               0.1,
		metrics.StrengthOfSchedule:     0.3,
		metrics.EffectiveFGPct:         0.6,
		metrics.ThreePointRate:         0.2,
		metrics.ThreePointPct:          0.3,
		metrics.FreeThrowRate:          0.2,
		metrics.FreeThrowPct:           0.2,
		metrics.OffensiveReboundPct:    0.3,
		metrics.DefensiveReboundPct:    0.3,
		metrics.TurnoverPct:            0.5,
		metrics.ExperienceRating:       0.3,
		metrics.MomentumScore:          0.4,
	}
}

// DefaultVarianceConfig returns the fixed baseline variance config other
// modes may compose off of.
func DefaultVarianceConfig() VarianceConfig {
	return VarianceConfig{
		BaseVariance:             1.0,
		UpsetMultiplier:          1.0,
		LiveStateWeight:          0.5,
		SeedGapSensitivity:       1.0,
		RoundVarianceMultipliers: map[bracket.Round]float64{},
	}
}
