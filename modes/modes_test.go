package modes

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ncaaforecast/engine/bracket"
)

func TestRegistryRegisterIsIdempotentPerID(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("statistical", newStatisticalMode); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register("statistical", newStatisticalMode); !errors.Is(err, ErrDuplicateModeRegistration) {
		t.Fatalf("second Register = %v, want ErrDuplicateModeRegistration", err)
	}
}

func TestRegistryLookupUnknownListsAvailable(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("statistical", newStatisticalMode)
	_, err := r.Lookup("nonexistent")
	if !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("Lookup error = %v, want ErrUnknownMode", err)
	}
	if !strings.Contains(err.Error(), "statistical") {
		t.Fatalf("Lookup error = %v, want it to list the available id statistical", err)
	}
}

func TestRegistryLookupReturnsFreshInstance(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("coach-experience", newCoachExperienceMode)
	m1, err := r.Lookup("coach-experience")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	m2, err := r.Lookup("coach-experience")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	s1 := m1.InitializeSimState()
	s2 := m2.InitializeSimState()
	if s1 == s2 {
		t.Fatalf("Lookup returned shared state across instances")
	}
}

func TestRegistryFreezeRejectsFurtherRegistration(t *testing.T) {
	r := NewRegistry()
	r.Freeze()
	if err := r.Register("statistical", newStatisticalMode); !errors.Is(err, ErrRegistryFrozen) {
		t.Fatalf("Register after Freeze = %v, want ErrRegistryFrozen", err)
	}
}

func allReferenceModes() []Mode {
	return []Mode{newStatisticalMode(), newWildcardMode(), newCoachExperienceMode()}
}

func TestModeContractUniversality(t *testing.T) {
	ctx := Context{Round: bracket.RoundOf32}
	team1 := bracket.Team{ID: "a"}
	team2 := bracket.Team{ID: "b"}
	for _, m := range allReferenceModes() {
		for k, w := range m.Weights() {
			if w < 0 {
				t.Fatalf("mode %s: negative weight for %s", m.ID(), k)
			}
		}
		if m.VarianceConfig().BaseVariance <= 0 {
			t.Fatalf("mode %s: non-positive base variance", m.ID())
		}
		out1 := m.Adjust(0.6, team1, team2, ctx)
		out2 := m.Adjust(0.6, team1, team2, ctx)
		if out1 != out2 {
			t.Fatalf("mode %s: Adjust not deterministic: %v vs %v", m.ID(), out1, out2)
		}
		if out1 < 0 || out1 > 1 {
			t.Fatalf("mode %s: Adjust returned %v, outside [0,1]", m.ID(), out1)
		}
	}
}

func TestBlenderLinearity(t *testing.T) {
	m1 := newStatisticalMode()
	m2 := newCoachExperienceMode()
	b, err := NewBlender("blend-test", "Blend Test", "", []Mode{m1, m2}, []float64{0.3, 0.7})
	if err != nil {
		t.Fatalf("NewBlender: %v", err)
	}
	team1 := bracket.Team{ID: "a", Coaching: &bracket.CoachingProfile{TournamentWins: 20}}
	team2 := bracket.Team{ID: "b", Coaching: &bracket.CoachingProfile{TournamentWins: 2}}
	ctx := Context{Round: bracket.SweetSixteen}

	got := b.Adjust(0.55, team1, team2, ctx)
	want := 0.3*m1.Adjust(0.55, team1, team2, ctx) + 0.7*m2.Adjust(0.55, team1, team2, ctx)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("Blender.Adjust = %v, want %v", got, want)
	}
}

func TestBlenderCategoryWhimsicalDominates(t *testing.T) {
	b, err := NewBlender("fun-blend", "Fun Blend", "", []Mode{newStatisticalMode(), newWildcardMode()}, []float64{0.5, 0.5})
	if err != nil {
		t.Fatalf("NewBlender: %v", err)
	}
	if b.Category() != Entertainment {
		t.Fatalf("Category() = %v, want Entertainment", b.Category())
	}
	if b.Confidence() != Experimental {
		t.Fatalf("Confidence() = %v, want Experimental", b.Confidence())
	}
}

func TestBlenderRejectsFewerThanTwoModes(t *testing.T) {
	if _, err := NewBlender("bad", "Bad", "", []Mode{newStatisticalMode()}, []float64{1.0}); err == nil {
		t.Fatal("expected error for single-component blender")
	}
}
