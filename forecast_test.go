package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ncaaforecast/engine/bracket"
	"github.com/ncaaforecast/engine/metrics"
	"github.com/ncaaforecast/engine/modes"
)

func fullTeams() []bracket.Team {
	teams := make([]bracket.Team, 0, 64)
	regions := []string{bracket.East, bracket.West, bracket.South, bracket.Midwest}
	for _, region := range regions {
		for seed := 1; seed <= 16; seed++ {
			quality := float64(17-seed) / 16.0
			teams = append(teams, bracket.Team{
				ID:             region + "-" + seedLabel(seed),
				Seed:           seed,
				Region:         region,
				TournamentType: bracket.Mens,
				Metrics: metrics.Profile{
					AdjOffensiveEfficiency: 90 + 25*quality,
					AdjDefensiveEfficiency: 110 - 25*quality,
					AdjTempo:               68,
					StrengthOfSchedule:     -5 + 10*quality,
				},
			})
		}
	}
	return teams
}

func seedLabel(n int) string {
	digits := "0123456789"
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{digits[n%10]}, b...)
		n /= 10
	}
	return string(b)
}

func statisticalMode(t *testing.T) modes.Mode {
	t.Helper()
	if err := modes.RegisterAll(); err != nil && !errors.Is(err, modes.ErrDuplicateModeRegistration) {
		t.Fatalf("RegisterAll: %v", err)
	}
	m, err := modes.Default.Lookup("statistical")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	return m
}

func TestSimulateProducesChampionshipCountsSummingToN(t *testing.T) {
	teams := fullTeams()
	b, err := bracket.NewBracketFromTeams(teams)
	if err != nil {
		t.Fatalf("NewBracketFromTeams: %v", err)
	}

	result, err := Simulate(context.Background(), Request{
		Bracket:         b,
		Teams:           teams,
		Mode:            statisticalMode(t),
		SimulationCount: 400,
		BaseSeed:        99,
		Workers:         4,
	})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	var total float64
	for _, tr := range result.PerTeam {
		total += tr.ChampionshipProbability
	}
	if total < 0.999 || total > 1.001 {
		t.Fatalf("championship probabilities summed to %v, want ~1", total)
	}
	if result.RunID == "" {
		t.Fatalf("RunID was not stamped")
	}
	if result.Timestamp.After(time.Now()) {
		t.Fatalf("Timestamp is in the future")
	}
	if len(result.MostLikelyFinalFour) != 4 {
		t.Fatalf("MostLikelyFinalFour length = %d, want 4", len(result.MostLikelyFinalFour))
	}
	if result.TournamentType != bracket.Mens {
		t.Fatalf("TournamentType = %v, want mens", result.TournamentType)
	}
}

func TestSimulateIsDeterministicForFixedWorkerCount(t *testing.T) {
	teams := fullTeams()
	b, err := bracket.NewBracketFromTeams(teams)
	if err != nil {
		t.Fatalf("NewBracketFromTeams: %v", err)
	}

	req := Request{
		Bracket:         b,
		Teams:           teams,
		Mode:            statisticalMode(t),
		SimulationCount: 300,
		BaseSeed:        12345,
		Workers:         1,
	}

	r1, err := Simulate(context.Background(), req)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	r2, err := Simulate(context.Background(), req)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	for id, tr := range r1.PerTeam {
		other, ok := r2.PerTeam[id]
		if !ok || other.ChampionshipProbability != tr.ChampionshipProbability {
			t.Fatalf("team %s championship probability diverged across identical runs", id)
		}
	}
	if r1.MostLikelyChampion != r2.MostLikelyChampion {
		t.Fatalf("MostLikelyChampion diverged across identical runs")
	}
}
