package scoremodel

import (
	"testing"

	"github.com/ncaaforecast/engine/rng"
)

func TestPossessionsIsAverage(t *testing.T) {
	if got := Possessions(68, 72); got != 70 {
		t.Fatalf("Possessions(68,72) = %v, want 70", got)
	}
}

func TestExpectedScoreAverageTeamsScoreAroundPossessions(t *testing.T) {
	// Two exactly-average teams (100 off, 100 def) should expect to score
	// almost exactly their possession count.
	got := ExpectedScore(100, 100, 70)
	if got != 70 {
		t.Fatalf("ExpectedScore(100,100,70) = %v, want 70", got)
	}
}

func TestSampleScoreNeverBelowFloor(t *testing.T) {
	source := rng.New(1)
	for i := 0; i < 5000; i++ {
		if s := SampleScore(-100, source); s < 30 {
			t.Fatalf("SampleScore returned %d, below the 30-point floor", s)
		}
	}
}

func TestResolveOvertimeAlwaysProducesAWinner(t *testing.T) {
	source := rng.New(2)
	for i := 0; i < 2000; i++ {
		t1, t2, ot := ResolveOvertime(70, 70, source)
		if t1 == t2 {
			t.Fatalf("ResolveOvertime left the game tied: %d-%d after %d OTs", t1, t2, ot)
		}
		if ot < 1 || ot > MaxOvertimePeriods {
			t.Fatalf("overtimePeriods = %d, want between 1 and %d", ot, MaxOvertimePeriods)
		}
	}
}

func TestSimulateGameProducesDistinctScoreOrOvertime(t *testing.T) {
	source := rng.New(3)
	for i := 0; i < 500; i++ {
		s1, s2, ot := SimulateGame(110, 95, 108, 97, 68, 70, source)
		if s1 == s2 {
			t.Fatalf("SimulateGame returned a tied final score %d-%d (ot=%d)", s1, s2, ot)
		}
	}
}
