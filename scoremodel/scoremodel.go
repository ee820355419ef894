// Package scoremodel is the engine's auxiliary score simulator. It is not
// on the path that decides who advances (the probability model and its
// noisy sampler in package probability own that); the bracket propagator
// calls it after every game to produce a plausible final score for
// display/logging, the same way a box score accompanies a result.
package scoremodel

import (
	"math"

	"github.com/ncaaforecast/engine/rng"
)

// d1AverageEfficiency is the Division-I-average points allowed/scored per
// 100 possessions, the zero-point teams' efficiency ratings are compared
// against.
const d1AverageEfficiency = 100.0

// Possessions estimates the number of possessions both teams will play,
// the mean of their two tempo ratings.
func Possessions(tempo1, tempo2 float64) float64 {
	return (tempo1 + tempo2) / 2
}

// ExpectedScore estimates a team's final score given its own adjusted
// offensive efficiency, its opponent's adjusted defensive efficiency, and
// the estimated possession count for the game.
func ExpectedScore(ownOffensiveEfficiency, opponentDefensiveEfficiency, possessions float64) float64 {
	return (ownOffensiveEfficiency + (d1AverageEfficiency - opponentDefensiveEfficiency)) / 100 * possessions
}

// SampleScore draws one Gaussian-noised final score around an expected
// value, floored at 30: max(30, round(expected + G·8.0)).
func SampleScore(expected float64, source *rng.Source) int {
	noisy := expected + source.Gaussian()*8.0
	return maxInt(30, round(noisy))
}

// MaxOvertimePeriods bounds how many overtime periods the resolver will
// simulate before forcing a result with a coin flip: at most 5 OTs.
const MaxOvertimePeriods = 5

// ResolveOvertime takes a regulation score that ended tied and simulates
// overtime periods until there's a winner: each OT period adds
// max(2, round(7 + G·3)) to both teams; after 5 periods still tied, a
// fair coin decides and the winner gets +1.
func ResolveOvertime(team1Score, team2Score int, source *rng.Source) (finalTeam1, finalTeam2, overtimePeriods int) {
	t1, t2 := team1Score, team2Score
	for ot := 0; ot < MaxOvertimePeriods; ot++ {
		t1 += maxInt(2, round(7+source.Gaussian()*3))
		t2 += maxInt(2, round(7+source.Gaussian()*3))
		overtimePeriods++
		if t1 != t2 {
			return t1, t2, overtimePeriods
		}
	}
	if source.Float64() < 0.5 {
		t1++
	} else {
		t2++
	}
	return t1, t2, overtimePeriods
}

// SimulateGame runs the full auxiliary score pipeline for a matchup:
// possession estimate, independent Gaussian-noised scores for each side,
// and overtime resolution if regulation ends tied.
func SimulateGame(ownOff1, oppDef2, ownOff2, oppDef1, tempo1, tempo2 float64, source *rng.Source) (score1, score2, overtimePeriods int) {
	possessions := Possessions(tempo1, tempo2)
	expected1 := ExpectedScore(ownOff1, oppDef2, possessions)
	expected2 := ExpectedScore(ownOff2, oppDef1, possessions)

	score1 = SampleScore(expected1, source)
	score2 = SampleScore(expected2, source)

	if score1 == score2 {
		score1, score2, overtimePeriods = ResolveOvertime(score1, score2, source)
	}
	return score1, score2, overtimePeriods
}

func round(x float64) int {
	return int(math.Round(x))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
