// Package aggregate is the engine's aggregator: it turns merged
// round-reach and championship count matrices into per-team advancement
// probabilities, the most-likely Final Four and champion, a volatility
// index, and a biggest-projected-upset finding.
package aggregate

import (
	"math"
	"sort"

	"github.com/ncaaforecast/engine/bracket"
	"github.com/ncaaforecast/engine/propagator"
	"gonum.org/v1/gonum/stat"
)

// expectedWinsRounds are the rounds that count toward expected wins:
// round-of-64 itself contributes no "win" since every team starts there.
var expectedWinsRounds = []bracket.Round{
	bracket.RoundOf32, bracket.SweetSixteen, bracket.EliteEight, bracket.FinalFour, bracket.Championship,
}

// upsetEligibleRounds are the rounds considered for the biggest-upset
// search: every round except round-of-64.
var upsetEligibleRounds = []bracket.Round{
	bracket.RoundOf32, bracket.SweetSixteen, bracket.EliteEight, bracket.FinalFour, bracket.Championship,
}

// TeamResult is one team's derived forecast.
type TeamResult struct {
	TeamID                  string
	Seed                    int
	RoundProbabilities      map[bracket.Round]float64
	ChampionshipProbability float64
	ExpectedWins            float64
}

// UpsetFinding names the (team, round) pair with the largest gap between
// simulated advancement probability and historical baseline.
type UpsetFinding struct {
	TeamID   string
	Round    bracket.Round
	Surprise float64
}

// Result is the aggregator's complete output.
type Result struct {
	PerTeam               map[string]*TeamResult
	MostLikelyFinalFour   []string
	MostLikelyChampion    string
	VolatilityIndex       float64
	BiggestProjectedUpset *UpsetFinding
}

// Aggregate converts a merged count matrix plus the team roster into the
// full derived result. n is the total number of Monte Carlo runs the
// matrix was accumulated over.
func Aggregate(counts *propagator.CountMatrix, teams []bracket.Team, n int) *Result {
	seedByID := make(map[string]int, len(teams))
	for _, t := range teams {
		seedByID[t.ID] = t.Seed
	}

	perTeam := make(map[string]*TeamResult, len(teams))
	for _, t := range teams {
		rounds := counts.RoundReach[t.ID]
		probs := make(map[bracket.Round]float64, len(bracket.WalkOrder)+2)
		probs[bracket.FirstFour] = 1.0
		probs[bracket.RoundOf64] = 1.0
		for _, r := range expectedWinsRounds {
			probs[r] = safeDiv(rounds[r], n)
		}

		var expectedWins float64
		for _, r := range expectedWinsRounds {
			expectedWins += probs[r]
		}

		perTeam[t.ID] = &TeamResult{
			TeamID:                  t.ID,
			Seed:                    t.Seed,
			RoundProbabilities:      probs,
			ChampionshipProbability: safeDiv(counts.Championship[t.ID], n),
			ExpectedWins:            expectedWins,
		}
	}

	return &Result{
		PerTeam:               perTeam,
		MostLikelyFinalFour:   mostLikelyFinalFour(perTeam, seedByID),
		MostLikelyChampion:    mostLikelyChampion(counts, seedByID),
		VolatilityIndex:       volatilityIndex(perTeam),
		BiggestProjectedUpset: biggestProjectedUpset(perTeam, seedByID),
	}
}

func safeDiv(count, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(count) / float64(n)
}

// mostLikelyFinalFour ranks teams by p(final-four) descending, ties
// broken by championship probability descending, then seed ascending.
func mostLikelyFinalFour(perTeam map[string]*TeamResult, seedByID map[string]int) []string {
	ids := make([]string, 0, len(perTeam))
	for id := range perTeam {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := perTeam[ids[i]], perTeam[ids[j]]
		if a.RoundProbabilities[bracket.FinalFour] != b.RoundProbabilities[bracket.FinalFour] {
			return a.RoundProbabilities[bracket.FinalFour] > b.RoundProbabilities[bracket.FinalFour]
		}
		if a.ChampionshipProbability != b.ChampionshipProbability {
			return a.ChampionshipProbability > b.ChampionshipProbability
		}
		return seedByID[ids[i]] < seedByID[ids[j]]
	})
	if len(ids) > 4 {
		ids = ids[:4]
	}
	return ids
}

// mostLikelyChampion is the team with the most championship-count wins,
// ties broken by lower seed number.
func mostLikelyChampion(counts *propagator.CountMatrix, seedByID map[string]int) string {
	best := ""
	bestCount := -1
	for id, count := range counts.Championship {
		if count > bestCount || (count == bestCount && seedByID[id] < seedByID[best]) {
			best = id
			bestCount = count
		}
	}
	return best
}

// volatilityIndex is the population standard deviation of championship
// probabilities across all teams. stat.MomentAbout
// divides by N, not N-1, matching "population" rather than sample
// variance; stat.StdDev would apply a Bessel correction and is wrong here.
func volatilityIndex(perTeam map[string]*TeamResult) float64 {
	probs := make([]float64, 0, len(perTeam))
	for _, r := range perTeam {
		probs = append(probs, r.ChampionshipProbability)
	}
	if len(probs) == 0 {
		return 0
	}
	mean := stat.Mean(probs, nil)
	variance := stat.MomentAbout(2, probs, mean, nil)
	return math.Sqrt(variance)
}

// historicalBaselineMens is the fixed table of historical men's-bracket
// advancement rates by seed (capped at 8) and round.
var historicalBaselineMens = map[int]map[bracket.Round]float64{
	1: {bracket.RoundOf32: 0.99, bracket.SweetSixteen: 0.85, bracket.EliteEight: 0.62, bracket.FinalFour: 0.38, bracket.Championship: 0.20},
	2: {bracket.RoundOf32: 0.94, bracket.SweetSixteen: 0.67, bracket.EliteEight: 0.38, bracket.FinalFour: 0.20, bracket.Championship: 0.08},
	3: {bracket.RoundOf32: 0.85, bracket.SweetSixteen: 0.53, bracket.EliteEight: 0.27, bracket.FinalFour: 0.10, bracket.Championship: 0.04},
	4: {bracket.RoundOf32: 0.79, bracket.SweetSixteen: 0.39, bracket.EliteEight: 0.17, bracket.FinalFour: 0.06, bracket.Championship: 0.02},
	5: {bracket.RoundOf32: 0.65, bracket.SweetSixteen: 0.26, bracket.EliteEight: 0.10, bracket.FinalFour: 0.03, bracket.Championship: 0.01},
	6: {bracket.RoundOf32: 0.63, bracket.SweetSixteen: 0.25, bracket.EliteEight: 0.09, bracket.FinalFour: 0.02, bracket.Championship: 0.01},
	7: {bracket.RoundOf32: 0.60, bracket.SweetSixteen: 0.20, bracket.EliteEight: 0.07, bracket.FinalFour: 0.02, bracket.Championship: 0.005},
	8: {bracket.RoundOf32: 0.49, bracket.SweetSixteen: 0.15, bracket.EliteEight: 0.05, bracket.FinalFour: 0.01, bracket.Championship: 0.003},
}

func historicalBaseline(seed int, round bracket.Round) float64 {
	if seed > 8 {
		seed = 8
	}
	if seed < 1 {
		seed = 1
	}
	row, ok := historicalBaselineMens[seed]
	if !ok {
		return 0
	}
	return row[round]
}

// biggestProjectedUpset finds the (team, round) pair maximizing
// simulated-probability minus historical baseline among seed >= 9 teams
// with p >= 0.01. Returns nil if no team qualifies.
func biggestProjectedUpset(perTeam map[string]*TeamResult, seedByID map[string]int) *UpsetFinding {
	var best *UpsetFinding
	ids := make([]string, 0, len(perTeam))
	for id := range perTeam {
		ids = append(ids, id)
	}
	sort.Strings(ids) // deterministic iteration before comparing surprises
	for _, id := range ids {
		seed := seedByID[id]
		if seed < 9 {
			continue
		}
		result := perTeam[id]
		for _, round := range upsetEligibleRounds {
			p := result.RoundProbabilities[round]
			if p < 0.01 {
				continue
			}
			surprise := p - historicalBaseline(seed, round)
			if best == nil || surprise > best.Surprise {
				best = &UpsetFinding{TeamID: id, Round: round, Surprise: surprise}
			}
		}
	}
	return best
}
