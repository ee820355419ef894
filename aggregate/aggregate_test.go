package aggregate

import (
	"math"
	"testing"

	"github.com/ncaaforecast/engine/bracket"
	"github.com/ncaaforecast/engine/propagator"
)

func TestAggregateComputesRoundProbabilitiesAndExpectedWins(t *testing.T) {
	teams := []bracket.Team{{ID: "a", Seed: 1}, {ID: "b", Seed: 16}}
	counts := propagator.NewCountMatrix()
	n := 100
	for i := 0; i < n; i++ {
		counts.RoundReach["a"] = map[bracket.Round]int{
			bracket.RoundOf32: 100, bracket.SweetSixteen: 80, bracket.EliteEight: 50, bracket.FinalFour: 20, bracket.Championship: 10,
		}
		counts.RoundReach["b"] = map[bracket.Round]int{
			bracket.RoundOf32: 5,
		}
		counts.Championship["a"] = 10
		break
	}

	result := Aggregate(counts, teams, n)

	a := result.PerTeam["a"]
	if a.RoundProbabilities[bracket.FirstFour] != 1.0 || a.RoundProbabilities[bracket.RoundOf64] != 1.0 {
		t.Fatalf("first-four/round-of-64 probabilities should always be 1.0 by convention")
	}
	if a.RoundProbabilities[bracket.RoundOf32] != 1.0 {
		t.Fatalf("p(round-of-32) = %v, want 1.0", a.RoundProbabilities[bracket.RoundOf32])
	}
	wantExpectedWins := 1.0 + 0.8 + 0.5 + 0.2 + 0.1
	if math.Abs(a.ExpectedWins-wantExpectedWins) > 1e-9 {
		t.Fatalf("ExpectedWins = %v, want %v", a.ExpectedWins, wantExpectedWins)
	}
	if a.ChampionshipProbability != 0.1 {
		t.Fatalf("ChampionshipProbability = %v, want 0.1", a.ChampionshipProbability)
	}
}

func TestMostLikelyFinalFourTieBreaksBySeed(t *testing.T) {
	teams := []bracket.Team{
		{ID: "x", Seed: 5},
		{ID: "y", Seed: 2},
	}
	counts := propagator.NewCountMatrix()
	counts.RoundReach["x"] = map[bracket.Round]int{bracket.FinalFour: 50}
	counts.RoundReach["y"] = map[bracket.Round]int{bracket.FinalFour: 50}

	result := Aggregate(counts, teams, 100)
	if len(result.MostLikelyFinalFour) != 2 || result.MostLikelyFinalFour[0] != "y" {
		t.Fatalf("MostLikelyFinalFour = %v, want [y x] (lower seed first on tie)", result.MostLikelyFinalFour)
	}
}

func TestMostLikelyChampionTieBreaksBySeed(t *testing.T) {
	counts := propagator.NewCountMatrix()
	counts.Championship["low-seed"] = 10
	counts.Championship["high-seed"] = 10
	seedByID := map[string]int{"low-seed": 3, "high-seed": 11}

	got := mostLikelyChampion(counts, seedByID)
	if got != "low-seed" {
		t.Fatalf("mostLikelyChampion = %v, want low-seed", got)
	}
}

func TestVolatilityIndexZeroWhenUniform(t *testing.T) {
	teams := []bracket.Team{{ID: "a", Seed: 1}, {ID: "b", Seed: 2}}
	counts := propagator.NewCountMatrix()
	counts.Championship["a"] = 50
	counts.Championship["b"] = 50

	result := Aggregate(counts, teams, 100)
	if result.VolatilityIndex != 0 {
		t.Fatalf("VolatilityIndex = %v, want 0 for identical championship probabilities", result.VolatilityIndex)
	}
}

func TestBiggestProjectedUpsetIgnoresTopEightSeeds(t *testing.T) {
	teams := []bracket.Team{{ID: "favorite", Seed: 1}}
	counts := propagator.NewCountMatrix()
	counts.RoundReach["favorite"] = map[bracket.Round]int{bracket.SweetSixteen: 90}

	result := Aggregate(counts, teams, 100)
	if result.BiggestProjectedUpset != nil {
		t.Fatalf("expected no upset finding when no team has seed >= 9, got %+v", result.BiggestProjectedUpset)
	}
}

func TestBiggestProjectedUpsetFindsOutperformingUnderdog(t *testing.T) {
	teams := []bracket.Team{{ID: "cinderella", Seed: 15}}
	counts := propagator.NewCountMatrix()
	// Seed-15 teams historically almost never reach the Sweet Sixteen; a
	// simulated 20% rate there is a clear surprise.
	counts.RoundReach["cinderella"] = map[bracket.Round]int{bracket.SweetSixteen: 20}

	result := Aggregate(counts, teams, 100)
	if result.BiggestProjectedUpset == nil {
		t.Fatal("expected an upset finding")
	}
	if result.BiggestProjectedUpset.TeamID != "cinderella" || result.BiggestProjectedUpset.Round != bracket.SweetSixteen {
		t.Fatalf("BiggestProjectedUpset = %+v, want cinderella/sweet-sixteen", result.BiggestProjectedUpset)
	}
}
